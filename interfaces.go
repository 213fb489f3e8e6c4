package quic

import (
	"net"
	"time"

	"github.com/qcore/quicendpoint/internal/protocol"
	"github.com/qcore/quicendpoint/internal/wire"
)

// FrameSource is the common capability every frame producer in the
// ordered registry (C4) implements, per spec.md §9's design note. The
// packetizer (C9) queries producers in the fixed order of §4.3 and never
// needs to know their concrete type.
type FrameSource interface {
	// WillGenerateFrame reports whether this producer currently has a
	// frame to offer at the given encryption level.
	WillGenerateFrame(level protocol.EncryptionLevel) bool
	// GenerateFrame returns at most one frame no larger than maxSize, or
	// nil if the producer has nothing to offer that fits.
	GenerateFrame(level protocol.EncryptionLevel, maxSize protocol.ByteCount) wire.Frame
	// IsProbingFrame reports whether frames from this source are usable
	// in a probing-only packet (RFC 9000 §9.1).
	IsProbingFrame() bool
}

// UDPConn is the send half of the UDP collaborator (spec.md §6): the
// core hands it finished datagrams, never touching a socket itself.
type UDPConn interface {
	SendPacket(datagram []byte, remote net.Addr) error
}

// UDPPacket is what the UDP receive path (an independent goroutine, per
// spec.md §5) pushes into the receive queue (C2).
type UDPPacket struct {
	Data       []byte
	RemoteAddr net.Addr
	ReceivedAt time.Time
}

// HandshakeHandler is the TLS/key-schedule collaborator (spec.md §6),
// referenced only through this interface — the handshake itself and the
// wire codec it uses are out of scope for this core.
type HandshakeHandler interface {
	Start() error
	DoHandshake(data []byte, level protocol.EncryptionLevel) error
	IsCompleted() bool
	IsVersionNegotiated() bool
	HasRemoteTransportParameters() bool
	CurrentEncryptionLevel() protocol.EncryptionLevel
	NegotiatedApplicationName() string
	NegotiatedCipherSuite() string
	InitializeKeyMaterials(cid protocol.ConnectionID) error
	Reset()
	FrameSource
}

// StreamManager is the stream-reassembly collaborator (spec.md §6).
type StreamManager interface {
	TotalOffsetSent() protocol.ByteCount
	TotalReorderedBytesReceived() protocol.ByteCount
	UpdateFlowControlParameters(localMax, remoteMax protocol.ByteCount)
	FrameSource
}

// PathValidator drives the path-validation probe (spec.md §4.6,
// GLOSSARY).
type PathValidator interface {
	StartValidation()
	IsValidating() bool
	IsValidated() bool
	FrameSource
}

// AlternateCIDManager is the collaborator that owns the peer-advertised
// alternate CID queue's acceptance policy for a migration attempt
// (spec.md §4.6's "alternate-CID manager's migrate_to"). The connection
// core's own ConnectionIDSet (C1) stores the queue; this interface is
// the decision point layered on top of it, kept distinct so a
// integrator can veto or rate-limit migrations.
type AlternateCIDManager interface {
	MigrateTo(newDCID protocol.ConnectionID) bool
	HasOutstandingFrames(level protocol.EncryptionLevel) bool
	FrameSource
}

// ACKCreator is the ACK-frame construction-policy collaborator (spec.md
// §6), fed by RecordReceived and queried by the packetizer.
type ACKCreator interface {
	RecordReceived(level protocol.EncryptionLevel, pn protocol.PacketNumber, ackEliciting bool)
	FrameSource
}

// PacketRetransmitter replays frames from packets the loss detector
// declared lost (spec.md §4.3 step 4).
type PacketRetransmitter interface {
	FrameSource
}

// LossDetector is one per packet-number space (spec.md §3). Only the
// surface the connection core touches is modeled; loss-detection
// internals are out of scope.
type LossDetector interface {
	OnPacketSent(pn protocol.PacketNumber, sentBytes protocol.ByteCount, ackEliciting bool)
	RTO() time.Duration
	Shutdown()
}

// ConnectionTable is the shared (non-owning) lookup collaborator (spec.md
// §3 Ownership, §6).
type ConnectionTable interface {
	Insert(cid protocol.ConnectionID, conn *Connection)
	Erase(cid protocol.ConnectionID, conn *Connection)
}

// NextProtocolEndpoint receives NET_EVENT_ACCEPT/NET_EVENT_OPEN once the
// handshake completes and an ALPN value is resolved (spec.md §6).
type NextProtocolEndpoint interface {
	OnAccept(conn *Connection)
}
