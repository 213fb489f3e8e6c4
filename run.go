package quic

import (
	"github.com/qcore/quicendpoint/internal/protocol"
)

// sendLevels is the fixed encryption-level order a coalesced send pass
// visits (spec.md §4.3): Initial, then Handshake, then 1-RTT.
var sendLevels = []protocol.EncryptionLevel{
	protocol.EncryptionInitial,
	protocol.EncryptionHandshake,
	protocol.Encryption1RTT,
}

// Run is the single-threaded scheduler loop spec.md §5 describes: one
// goroutine per connection, selecting across every armed timer and a
// write-ready signal. The external writeReady signal drains the receive
// queue and runs a packetizer pass; the write-ready timer runs a
// packetizer pass only; the other timers only deliver their own event.
// It returns once the connection
// reaches StateClosed. Everything this loop touches is therefore safe
// to access without c.mu except the receive queue itself (C2), which
// has its own lock for the independent UDP-receiver goroutine.
//
// Grounded on QUICNetVConnection.cc's main_event_handler dispatch loop
// and the teacher's session.run goroutine structure.
func (c *Connection) Run(decode decodeFunc, validator PathValidator, altCID AlternateCIDManager, writeReady <-chan struct{}) {
	for {
		select {
		case <-c.timers.Chan(timerIdle):
			c.timers.MarkRead(timerIdle)
			c.mu.Lock()
			c.handleEvent(eventIdleTimeout, eventCtx{})
			c.mu.Unlock()

		case <-c.timers.Chan(timerClosing):
			c.timers.MarkRead(timerClosing)
			c.OnClosingTimeout()

		case <-c.timers.Chan(timerPathValidation):
			c.timers.MarkRead(timerPathValidation)
			c.OnPathValidationTimeout()

		case <-c.timers.Chan(timerHandshake):
			c.timers.MarkRead(timerHandshake)
			c.CloseLocal(NewTransportError(InternalError, "handshake did not complete before the handshake timeout"))

		case <-c.timers.Chan(timerWriteReady):
			// Self-rescheduled write-ready: a prior pass either hit the
			// per-event datagram cap or still had a frame source with
			// more to offer, so the connection reschedules itself
			// rather than waiting on an external signal (spec.md §4.1/§5,
			// protocol.WriteReadyRetryDelay).
			c.timers.MarkRead(timerWriteReady)
			c.mu.Lock()
			c.handleEvent(eventWriteReady, eventCtx{})
			c.mu.Unlock()
			c.runSendPass()

		case <-writeReady:
			c.ProcessReceiveQueue(decode, validator, altCID)
			c.runSendPass()

		}

		if c.State() == StateClosed {
			return
		}
	}
}

// runSendPass runs one coalesced packetizer pass (C9) across every
// encryption level in a single datagram-budget, per §4.3's "allocate one
// UDP payload buffer ... for each encryption level ... transmit the
// datagram" — not three independent per-level send loops, which would
// let a single pass emit up to 3x MaxPacketsPerEvent datagrams (P7). If
// the pass stopped early because it hit the per-event cap, or a frame
// source still has data to offer that didn't fit, the connection arms
// its own write-ready timer (spec.md §4.1/§5) instead of waiting for the
// next external writeReady signal.
func (c *Connection) runSendPass() {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	if state == StateClosing || state == StateDraining || state == StateClosed {
		return
	}

	sent := c.sendCoalescedPass(sendLevels)

	c.mu.Lock()
	defer c.mu.Unlock()

	stillPending := sent >= protocol.MaxPacketsPerEvent
	if !stillPending {
		for _, level := range sendLevels {
			if c.frameSources.willGenerateAny(level) {
				stillPending = true
				break
			}
		}
	}
	if stillPending {
		c.timers.ArmAfter(timerWriteReady, protocol.WriteReadyRetryDelay)
	}
}
