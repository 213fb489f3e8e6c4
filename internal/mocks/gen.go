// Package mocks holds test doubles for this core's collaborator
// interfaces: the hand-written fakes in fakes.go, plus the go:generate
// directives below (grounded on the teacher's internal/mocks/gen.go
// pattern) for go.uber.org/mock fakes. Those generated files are
// produced by `go generate` under the gomock build tag and are not
// committed.
package mocks

//go:generate sh -c "go run go.uber.org/mock/mockgen -typed -build_flags=\"-tags=gomock\" -package mocks -destination handshake_handler.go github.com/qcore/quicendpoint HandshakeHandler"
//go:generate sh -c "go run go.uber.org/mock/mockgen -typed -build_flags=\"-tags=gomock\" -package mocks -destination stream_manager.go github.com/qcore/quicendpoint StreamManager"
//go:generate sh -c "go run go.uber.org/mock/mockgen -typed -build_flags=\"-tags=gomock\" -package mocks -destination path_validator.go github.com/qcore/quicendpoint PathValidator"
//go:generate sh -c "go run go.uber.org/mock/mockgen -typed -build_flags=\"-tags=gomock\" -package mocks -destination alternate_cid_manager.go github.com/qcore/quicendpoint AlternateCIDManager"
//go:generate sh -c "go run go.uber.org/mock/mockgen -typed -build_flags=\"-tags=gomock\" -package mocks -destination ack_creator.go github.com/qcore/quicendpoint ACKCreator"
//go:generate sh -c "go run go.uber.org/mock/mockgen -typed -build_flags=\"-tags=gomock\" -package mocks -destination packet_retransmitter.go github.com/qcore/quicendpoint PacketRetransmitter"
//go:generate sh -c "go run go.uber.org/mock/mockgen -typed -build_flags=\"-tags=gomock\" -package mocks -destination loss_detector.go github.com/qcore/quicendpoint LossDetector"
//go:generate sh -c "go run go.uber.org/mock/mockgen -typed -build_flags=\"-tags=gomock\" -package mocks -destination udp_conn.go github.com/qcore/quicendpoint UDPConn"
//go:generate sh -c "go run go.uber.org/mock/mockgen -typed -build_flags=\"-tags=gomock\" -package mocks -destination connection_table.go github.com/qcore/quicendpoint ConnectionTable"
//go:generate sh -c "go run go.uber.org/mock/mockgen -typed -build_flags=\"-tags=gomock\" -package mockcongestion -destination congestion/controller.go github.com/qcore/quicendpoint/congestion Controller"
//go:generate sh -c "go run go.uber.org/mock/mockgen -typed -build_flags=\"-tags=gomock\" -package mocklogging -destination logging/tracer.go github.com/qcore/quicendpoint/logging ConnectionTracer"
