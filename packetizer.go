package quic

import (
	"github.com/qcore/quicendpoint/internal/protocol"
)

// sendCoalescedPass implements QUICNetVConnection.cc's
// _state_common_send_packet main send loop (spec.md §4.3): each
// iteration allocates one UDP payload buffer, visits every encryption
// level in order (Initial, Handshake, 1-RTT) and appends at most one
// packet per level from the ordered frame-source registry (C4) into
// that single buffer, then transmits one coalesced datagram. The whole
// pass is capped at MaxPacketsPerEvent *datagrams*, not per level
// (invariant P7) — three independent per-level loops would let up to
// 96 datagrams out of a single write-ready pass, which P7 forbids.
// Component C9.
func (c *Connection) sendCoalescedPass(levels []protocol.EncryptionLevel) int {
	maxPacketSize := maximumQUICPacketSize(c.cfg.PMTU, false)
	sent := 0

	for sent < protocol.MaxPacketsPerEvent {
		avail := c.congestion.OpenWindow()
		if avail <= 0 {
			break
		}
		budget := maxPacketSize
		if avail < budget {
			budget = avail
		}

		packets := c.buildCoalescedPackets(levels, budget, maxPacketSize)
		if len(packets) == 0 {
			break
		}

		if err := c.transmitCoalesced(packets); err != nil {
			c.cfg.Logger.Errorf("[%s] send failed: %v", c.connIDs.DebugTag(), err)
			break
		}
		sent++
	}
	return sent
}

// buildCoalescedPackets assembles at most one packet per level that
// still fits within the remaining datagram budget, skipping a level
// entirely once the anti-amplification ceiling (SPEC_FULL.md C.2,
// invariant P8) blocks it or it has nothing to offer.
func (c *Connection) buildCoalescedPackets(levels []protocol.EncryptionLevel, budget, maxPacketSize protocol.ByteCount) []*Packet {
	var packets []*Packet
	remaining := budget
	handshakeBuilt := 0

	for _, level := range levels {
		if remaining <= 0 {
			break
		}
		if c.handshakeAmplificationBlocked(level, handshakeBuilt) {
			continue
		}
		if !c.frameSources.willGenerateAny(level) {
			continue
		}

		pt := protocol.PacketTypeFromEncryptionLevel(level)
		pn := c.nextPacketNumber(level.PNSpace())
		pkt := NewPacket(pt, level, c.connIDs.Peer(), c.connIDs.Local(), pn)

		levelBudget := remaining - pkt.Length
		frames := c.frameSources.collectFrames(level, levelBudget)
		if len(frames) == 0 {
			continue
		}
		for _, f := range frames {
			pkt.AddFrame(f)
		}
		c.padIfNeeded(pkt, level, maxPacketSize)

		packets = append(packets, pkt)
		remaining -= pkt.Length
		if level == protocol.EncryptionInitial || level == protocol.EncryptionHandshake {
			handshakeBuilt++
		}
	}
	return packets
}

// handshakeAmplificationBlocked implements the §4.3 rule "if inbound and
// source address not yet verified, stop emitting once
// handshake_packets_sent >= 3" (SPEC_FULL.md C.2, invariant P8): a
// server that hasn't yet seen proof the client owns its claimed address
// may not send more than MaxHandshakePacketsUnverified Initial/Handshake
// packets. pending counts Initial/Handshake packets already built into
// the datagram being assembled but not yet counted as sent. The check is
// skipped forever once the address is verified; the counter itself is
// never reset, matching the original's own never-reset behavior
// (SPEC_FULL.md C.2's Open Question decision).
func (c *Connection) handshakeAmplificationBlocked(level protocol.EncryptionLevel, pending int) bool {
	if c.perspective != protocol.PerspectiveServer {
		return false
	}
	if level != protocol.EncryptionInitial && level != protocol.EncryptionHandshake {
		return false
	}
	if c.sourceAddressVerified {
		return false
	}
	return c.handshakePacketsSent+pending >= protocol.MaxHandshakePacketsUnverified
}

// padIfNeeded implements spec.md §4.3's Initial-level outbound padding
// rule (SPEC_FULL.md C.4 for the inbound counterpart): a client's first
// Initial packet must reach MinimumClientInitialSize, and the server's
// reply path pads with the configured InboundMinPacketSizeFunc floor to
// resist traffic-analysis amplification probing.
func (c *Connection) padIfNeeded(pkt *Packet, level protocol.EncryptionLevel, maxPacketSize protocol.ByteCount) {
	if level != protocol.EncryptionInitial {
		return
	}
	floor := protocol.ByteCount(protocol.MinimumClientInitialSize)
	if c.perspective == protocol.PerspectiveServer {
		floor = protocol.ByteCount(c.cfg.InboundMinPacketSizeFunc())
	}
	if pkt.Length < floor && floor <= maxPacketSize {
		pkt.Length = floor
	}
}

func (c *Connection) nextPacketNumber(space protocol.PacketNumberSpace) protocol.PacketNumber {
	pn := c.pnCounters[space]
	c.pnCounters[space] = pn + 1
	return pn
}

// transmitCoalesced hands one UDP datagram carrying every packet in
// packets to the UDP collaborator as a single send, then records each
// constituent packet with the congestion controller, its space's loss
// detector, and the tracer — mirroring how a real coalesced QUIC
// datagram is one network write but several independently-tracked
// packets.
func (c *Connection) transmitCoalesced(packets []*Packet) error {
	var total protocol.ByteCount
	for _, p := range packets {
		total += p.Length
	}
	datagram := make([]byte, total)
	if err := c.udp.SendPacket(datagram, c.remoteAddr); err != nil {
		return err
	}

	for _, p := range packets {
		if c.perspective == protocol.PerspectiveServer &&
			(p.EncryptionLevel == protocol.EncryptionInitial || p.EncryptionLevel == protocol.EncryptionHandshake) {
			c.handshakePacketsSent++
		}
		c.congestion.OnPacketSent(p.Length)
		if ld, ok := c.lossDetectors[p.EncryptionLevel.PNSpace()]; ok {
			ld.OnPacketSent(p.PacketNumber, p.Length, p.IsAckEliciting())
		}
		c.tracer.SentPacket(p.Type, p.Length, len(p.Frames))
	}
	return nil
}

// sendPacket transmits a single already-built packet outside of a
// coalesced pass — used by the close orchestrator (C11) to (re)send the
// one cached final packet, which is never coalesced with anything else.
func (c *Connection) sendPacket(pkt *Packet) error {
	datagram := make([]byte, pkt.Length)
	if err := c.udp.SendPacket(datagram, c.remoteAddr); err != nil {
		return err
	}
	c.congestion.OnPacketSent(pkt.Length)
	if ld, ok := c.lossDetectors[pkt.EncryptionLevel.PNSpace()]; ok {
		ld.OnPacketSent(pkt.PacketNumber, pkt.Length, pkt.IsAckEliciting())
	}
	c.tracer.SentPacket(pkt.Type, pkt.Length, len(pkt.Frames))
	return nil
}
