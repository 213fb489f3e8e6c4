package quic

import (
	"github.com/qcore/quicendpoint/internal/protocol"
	"github.com/qcore/quicendpoint/internal/qerr"
	"github.com/qcore/quicendpoint/internal/wire"
)

// decodeFunc turns a raw UDPPacket into a decrypted Packet plus its
// frame list. Producing it is the wire codec's job (header protection,
// AEAD, varint parsing — out of scope per spec.md's scope note); this
// core only consumes the result. Collaborator-owned frames (STREAM,
// CRYPTO, ACK, PATH_CHALLENGE/RESPONSE) are expected to already have
// been routed to their owning collaborator by the time decode returns;
// this core dispatches only the connection-owned subset itself.
type decodeFunc func(UDPPacket) (*Packet, []wire.Frame, qerr.RecvResult)

// ProcessReceiveQueue drains the receive queue once, processing every
// packet currently queued (spec.md §5: the scheduler drains the receive
// queue once per pass, then moves on to sending). validator/altCID are
// the migration collaborators for this pass and may be nil if migration
// support isn't wired in.
func (c *Connection) ProcessReceiveQueue(decode decodeFunc, validator PathValidator, altCID AlternateCIDManager) {
	for {
		raw, result := c.recvQueue.Dequeue()
		if result == qerr.RecvNoPacket {
			return
		}
		c.processOnePacket(raw, decode, validator, altCID)
		if !result.ContinueDraining() {
			return
		}
	}
}

func (c *Connection) processOnePacket(raw UDPPacket, decode decodeFunc, validator PathValidator, altCID AlternateCIDManager) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosing || c.state == StateDraining {
		c.handleEvent(eventPacketReceived, eventCtx{packet: &raw})
		return
	}

	pkt, frames, result := decode(raw)
	switch result {
	case qerr.RecvFailed:
		c.cfg.Logger.Debugf("[%s] dropping unparseable packet", c.connIDs.DebugTag())
		return
	case qerr.RecvNotReady, qerr.RecvUnsupported, qerr.RecvIgnored:
		return
	}

	if pkt != nil {
		c.tracer.ReceivedPacket(pkt.Type, pkt.Length, len(frames))
		c.handlePacketTypeSideEffects(pkt)

		if validator != nil {
			c.onPacketFromAddr(pkt.DestConnID, raw.RemoteAddr, validator, altCID)
			if altCID != nil {
				c.commitMigration(validator, altCID)
			}
		}
	}

	shouldSendAck := false
	for _, f := range frames {
		if wire.IsAckEliciting(f) {
			shouldSendAck = true
		}
		if !isConnectionOwnedFrame(f) {
			continue
		}
		sendAck, _, err := c.dispatcher.Dispatch(f)
		if sendAck {
			shouldSendAck = true
		}
		if err != nil {
			c.closeWithError(err)
			return
		}
	}

	if c.streams != nil {
		if err := c.recvWindow.Update(c.streams.TotalReorderedBytesReceived()); err != nil {
			c.closeWithError(NewTransportError(FlowControlError, err.Error()))
			return
		}
	}

	if pkt != nil && c.ackCreator != nil {
		c.ackCreator.RecordReceived(pkt.EncryptionLevel, pkt.PacketNumber, shouldSendAck)
	}

	c.handleEvent(eventPacketReceived, eventCtx{packet: &raw})
}

// handlePacketTypeSideEffects implements spec.md §4.5's packet-type
// processing during the handshake: each packet type triggers a specific
// one-time side effect independent of its frame contents.
func (c *Connection) handlePacketTypeSideEffects(pkt *Packet) {
	switch pkt.Type {
	case protocol.PacketTypeVersionNegotiation:
		c.resetForVersionNegotiation()

	case protocol.PacketTypeInitial:
		if c.perspective == protocol.PerspectiveServer && !c.initialStarted {
			c.initialStarted = true
			if c.handshake != nil {
				if err := c.handshake.Start(); err != nil {
					c.cfg.Logger.Errorf("[%s] handshake start failed: %v", c.connIDs.DebugTag(), err)
				}
			}
		}

	case protocol.PacketTypeRetry:
		if c.perspective == protocol.PerspectiveClient && !c.retryAccepted {
			c.retryAccepted = true
			newCID := pkt.SrcConnID
			c.connIDs.RerandomizeOriginal(newCID)
			c.connIDs.SetPeer(newCID)
			if c.handshake != nil {
				if err := c.handshake.InitializeKeyMaterials(newCID); err != nil {
					c.cfg.Logger.Errorf("[%s] retry key reinit failed: %v", c.connIDs.DebugTag(), err)
				}
			}
		}

	case protocol.PacketTypeHandshake:
		c.sourceAddressVerified = true

	case protocol.PacketTypeZeroRTTProtected:
		if c.streams != nil {
			c.streams.UpdateFlowControlParameters(c.cfg.InitialConnectionMaxData, c.cfg.InitialConnectionMaxData)
		}
	}
}

// resetForVersionNegotiation implements §4.5's Version-Negotiation
// handling (client only; ignored once the handshake reports a negotiated
// version): the congestion controller and every loss detector restart
// from scratch and the handshake itself resets, since every byte sent
// under the abandoned version is now meaningless.
func (c *Connection) resetForVersionNegotiation() {
	if c.perspective != protocol.PerspectiveClient {
		return
	}
	if c.handshake != nil && c.handshake.IsVersionNegotiated() {
		return
	}
	if c.congestion != nil {
		c.congestion.Reset()
	}
	for _, ld := range c.lossDetectors {
		ld.Shutdown()
	}
	c.lossDetectors = make(map[protocol.PacketNumberSpace]LossDetector)
	if c.handshake != nil {
		c.handshake.Reset()
	}
	c.initialStarted = false
	c.tracer.StateTransition(c.state.String(), StatePreHandshake.String())
	c.state = StatePreHandshake
}

func isConnectionOwnedFrame(f wire.Frame) bool {
	switch f.(type) {
	case *wire.MaxDataFrame, *wire.DataBlockedFrame, *wire.PingFrame, *wire.NewConnectionIDFrame,
		*wire.ConnectionCloseFrame, *wire.ApplicationCloseFrame:
		return true
	default:
		return false
	}
}
