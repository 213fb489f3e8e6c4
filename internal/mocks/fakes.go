package mocks

import (
	"net"
	"time"

	"github.com/qcore/quicendpoint/internal/protocol"
	"github.com/qcore/quicendpoint/internal/wire"
)

// This file carries small hand-written test doubles for the collaborator
// interfaces, independent of the go:generate'd gomock fakes in gen.go:
// they need no code-generation step, so package tests can use them
// without first running `go generate`.

// FakeHandshakeHandler is a minimal, controllable HandshakeHandler.
type FakeHandshakeHandler struct {
	Completed      bool
	Level          protocol.EncryptionLevel
	HasRemoteTP    bool
	PendingCrypto  *wire.CryptoFrame
}

func (f *FakeHandshakeHandler) Start() error                                              { return nil }
func (f *FakeHandshakeHandler) DoHandshake(data []byte, level protocol.EncryptionLevel) error { return nil }
func (f *FakeHandshakeHandler) IsCompleted() bool                                          { return f.Completed }
func (f *FakeHandshakeHandler) IsVersionNegotiated() bool                                  { return true }
func (f *FakeHandshakeHandler) HasRemoteTransportParameters() bool                         { return f.HasRemoteTP }
func (f *FakeHandshakeHandler) CurrentEncryptionLevel() protocol.EncryptionLevel           { return f.Level }
func (f *FakeHandshakeHandler) NegotiatedApplicationName() string                          { return "" }
func (f *FakeHandshakeHandler) NegotiatedCipherSuite() string                              { return "" }
func (f *FakeHandshakeHandler) InitializeKeyMaterials(protocol.ConnectionID) error          { return nil }
func (f *FakeHandshakeHandler) Reset()                                                     {}
func (f *FakeHandshakeHandler) WillGenerateFrame(protocol.EncryptionLevel) bool             { return f.PendingCrypto != nil }
func (f *FakeHandshakeHandler) GenerateFrame(_ protocol.EncryptionLevel, maxSize protocol.ByteCount) wire.Frame {
	if f.PendingCrypto == nil || f.PendingCrypto.Length() > maxSize {
		return nil
	}
	frame := f.PendingCrypto
	f.PendingCrypto = nil
	return frame
}
func (f *FakeHandshakeHandler) IsProbingFrame() bool { return false }

// FakeStreamManager is a minimal, controllable StreamManager.
type FakeStreamManager struct {
	OffsetSent      protocol.ByteCount
	ReorderedBytes  protocol.ByteCount
	PendingFrame    *wire.StreamFrame
}

func (f *FakeStreamManager) TotalOffsetSent() protocol.ByteCount           { return f.OffsetSent }
func (f *FakeStreamManager) TotalReorderedBytesReceived() protocol.ByteCount { return f.ReorderedBytes }
func (f *FakeStreamManager) UpdateFlowControlParameters(localMax, remoteMax protocol.ByteCount) {}
func (f *FakeStreamManager) WillGenerateFrame(protocol.EncryptionLevel) bool { return f.PendingFrame != nil }
func (f *FakeStreamManager) GenerateFrame(protocol.EncryptionLevel, protocol.ByteCount) wire.Frame {
	if f.PendingFrame == nil {
		return nil
	}
	frame := f.PendingFrame
	f.PendingFrame = nil
	return frame
}
func (f *FakeStreamManager) IsProbingFrame() bool { return false }

// FakePathValidator is a minimal, controllable PathValidator.
type FakePathValidator struct {
	validating bool
	validated  bool
}

func (f *FakePathValidator) StartValidation()                                                    { f.validating = true }
func (f *FakePathValidator) IsValidating() bool                                                  { return f.validating }
func (f *FakePathValidator) IsValidated() bool                                                    { return f.validated }
func (f *FakePathValidator) MarkValidated()                                                       { f.validated = true; f.validating = false }
func (f *FakePathValidator) WillGenerateFrame(protocol.EncryptionLevel) bool                      { return false }
func (f *FakePathValidator) GenerateFrame(protocol.EncryptionLevel, protocol.ByteCount) wire.Frame { return nil }
func (f *FakePathValidator) IsProbingFrame() bool                                                 { return true }

// FakeUDPConn records every datagram handed to SendPacket, for assertions.
type FakeUDPConn struct {
	Sent [][]byte
	Err  error
}

func (f *FakeUDPConn) SendPacket(datagram []byte, remote net.Addr) error {
	if f.Err != nil {
		return f.Err
	}
	f.Sent = append(f.Sent, datagram)
	return nil
}

// FakeLossDetector is a minimal, controllable LossDetector.
type FakeLossDetector struct {
	SentPNs  []protocol.PacketNumber
	FixedRTO time.Duration
}

func (f *FakeLossDetector) OnPacketSent(pn protocol.PacketNumber, sentBytes protocol.ByteCount, ackEliciting bool) {
	f.SentPNs = append(f.SentPNs, pn)
}
func (f *FakeLossDetector) RTO() time.Duration { return f.FixedRTO }
func (f *FakeLossDetector) Shutdown()          {}
