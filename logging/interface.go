// Package logging defines the tracer seam the connection core calls
// through for every externally observable event. It mirrors quic-go's
// logging package: a stable, narrow interface an integrator implements
// to get qlog, Prometheus, or any other sink, without the core knowing
// about any of them.
package logging

import (
	"net"
	"time"

	"github.com/qcore/quicendpoint/internal/protocol"
)

// CloseReason classifies why ClosedConnection was called.
type CloseReason uint8

const (
	CloseReasonLocal CloseReason = iota
	CloseReasonRemote
	CloseReasonIdleTimeout
	CloseReasonPathValidationTimeout
)

// ConnectionTracer records per-connection events. Every method may be
// called from the connection's single scheduler goroutine only; a
// tracer implementation must not block.
type ConnectionTracer interface {
	StartedConnection(local, remote net.Addr, srcConnID, destConnID protocol.ConnectionID)
	ClosedConnection(reason CloseReason, err error)
	StateTransition(from, to string)
	SentPacket(pt protocol.PacketType, size protocol.ByteCount, frameCount int)
	ReceivedPacket(pt protocol.PacketType, size protocol.ByteCount, frameCount int)
	MigrationStarted(newLocal protocol.ConnectionID)
	MigrationCompleted(newLocal protocol.ConnectionID)
	PathValidationTimedOut()
	SetTimer(name string, deadline time.Time)
	TimerCanceled(name string)
}

// NullTracer implements ConnectionTracer with no-ops. It is the default
// when a Config carries no tracer, matching the teacher's
// logging.NullConnectionTracer.
type NullTracer struct{}

func (NullTracer) StartedConnection(net.Addr, net.Addr, protocol.ConnectionID, protocol.ConnectionID) {
}
func (NullTracer) ClosedConnection(CloseReason, error)                          {}
func (NullTracer) StateTransition(string, string)                               {}
func (NullTracer) SentPacket(protocol.PacketType, protocol.ByteCount, int)       {}
func (NullTracer) ReceivedPacket(protocol.PacketType, protocol.ByteCount, int)   {}
func (NullTracer) MigrationStarted(protocol.ConnectionID)                       {}
func (NullTracer) MigrationCompleted(protocol.ConnectionID)                     {}
func (NullTracer) PathValidationTimedOut()                                      {}
func (NullTracer) SetTimer(string, time.Time)                                   {}
func (NullTracer) TimerCanceled(string)                                         {}

var _ ConnectionTracer = NullTracer{}
