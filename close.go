package quic

import (
	"github.com/qcore/quicendpoint/internal/protocol"
	"github.com/qcore/quicendpoint/internal/wire"
)

// CloseLocal begins a locally-initiated close (spec.md §4.2): it builds
// and caches the final CONNECTION_CLOSE/APPLICATION_CLOSE packet, sends
// it once, and transitions to closing. Each later packet received while
// closing that fills the closing receive window (closingRecvWindow)
// re-sends the cached final packet rather than rebuilding it —
// QUICNetVConnection.cc's `_switch_to_closed_state` caches exactly
// one packet for this reason (spec.md §4.2 invariant P8). Component
// C11.
func (c *Connection) CloseLocal(err ConnError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeWithError(err)
}

// closeWithError is the unlocked body shared by CloseLocal and every
// internal call site (receive-path dispatch/flow-control errors) that
// already holds c.mu and needs to drive the same close sequence: cache
// the final packet once, fire eventLocalClose, and send it.
func (c *Connection) closeWithError(err ConnError) {
	if c.closeInitiated {
		return
	}
	c.closeInitiated = true
	c.closeErr = err

	c.finalPacket = c.buildFinalPacket(err)
	c.handleEvent(eventLocalClose, eventCtx{})
	c.resendFinalPacket()
}

// buildFinalPacket constructs the single CONNECTION_CLOSE (or
// APPLICATION_CLOSE) packet that will be cached and replayed for the
// lifetime of the closing state.
func (c *Connection) buildFinalPacket(err ConnError) *Packet {
	level := protocol.Encryption1RTT
	if c.handshake == nil || !c.handshake.IsCompleted() {
		level = protocol.EncryptionInitial
	}
	pt := protocol.PacketTypeFromEncryptionLevel(level)
	pn := c.nextPacketNumber(level.PNSpace())
	pkt := NewPacket(pt, level, c.connIDs.Peer(), c.connIDs.Local(), pn)

	var f wire.Frame
	switch e := err.(type) {
	case *TransportError:
		f = &wire.ConnectionCloseFrame{
			ErrorCode:    protocol.ByteCount(e.ErrorCode),
			ReasonPhrase: e.ErrorMessage,
		}
	case *ApplicationError:
		f = &wire.ApplicationCloseFrame{
			ErrorCode:    protocol.ByteCount(e.ErrorCode),
			ReasonPhrase: e.ErrorMessage,
		}
	default:
		f = &wire.ConnectionCloseFrame{}
	}
	pkt.AddFrame(f)
	return pkt
}

// resendFinalPacket re-sends the cached final packet, used both for the
// initial close send and for each later packet received while closing
// that fills the closing receive window (spec.md §4.2's "receiving any packet while closing re-sends
// the final packet, rate-limited by the closing receive window").
func (c *Connection) resendFinalPacket() {
	if c.finalPacket == nil {
		return
	}
	if err := c.sendPacket(c.finalPacket); err != nil {
		c.cfg.Logger.Errorf("[%s] failed to resend final packet: %v", c.connIDs.DebugTag(), err)
	}
}

// OnClosingTimeout fires the closing/draining persistence window's
// expiry, driving the final transition to StateClosed (spec.md §4.2).
func (c *Connection) OnClosingTimeout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handleEvent(eventClosingTimeout, eventCtx{})
}
