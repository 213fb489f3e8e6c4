package quic

import (
	"github.com/qcore/quicendpoint/internal/protocol"
	"github.com/qcore/quicendpoint/internal/wire"
)

// Packet is the in-memory representation the packetizer (C9) builds
// before handing a datagram to the UDPConn collaborator, and the
// representation the receive path parses into before frame dispatch
// (C5). The wire codec itself (header protection, AEAD, varint framing)
// is out of scope per spec.md's "Out of scope" list; this type models
// only what the connection core's logic needs to see. Grounded on the
// teacher's internal/wire/short_header_packet.go and
// long_header_packet.go header-field sets, collapsed into one type
// since this core never serializes a header itself.
type Packet struct {
	Type            protocol.PacketType
	EncryptionLevel protocol.EncryptionLevel
	DestConnID      protocol.ConnectionID
	SrcConnID       protocol.ConnectionID
	PacketNumber    protocol.PacketNumber

	Frames []wire.Frame

	// Length is the on-wire size once the header, AEAD tag, and frame
	// bytes are accounted for. The packetizer fills this in as frames are
	// added so it can stop at maxSize (spec.md §4.3 step 2).
	Length protocol.ByteCount
}

// NewPacket starts an empty packet for the given type/level, seeded with
// the per-packet header overhead so Length already reflects what an
// empty packet would cost on the wire.
func NewPacket(typ protocol.PacketType, level protocol.EncryptionLevel, dest, src protocol.ConnectionID, pn protocol.PacketNumber) *Packet {
	return &Packet{
		Type:            typ,
		EncryptionLevel: level,
		DestConnID:      dest,
		SrcConnID:       src,
		PacketNumber:    pn,
		Length:          protocol.MaxPacketOverhead,
	}
}

// AddFrame appends f and advances Length by f's encoded size. Callers
// (the packetizer) are expected to have already checked that f fits
// within the packet's maxSize budget.
func (p *Packet) AddFrame(f wire.Frame) {
	p.Frames = append(p.Frames, f)
	p.Length += f.Length()
}

// IsAckEliciting reports whether any frame in the packet requires the
// peer to send an ACK (spec.md GLOSSARY).
func (p *Packet) IsAckEliciting() bool {
	for _, f := range p.Frames {
		if wire.IsAckEliciting(f) {
			return true
		}
	}
	return false
}

// IsProbingOnly reports whether every frame in the packet is a probing
// frame — i.e. the packet is safe to send on a path that hasn't been
// validated yet (RFC 9000 §9.1, spec.md §4.6).
func (p *Packet) IsProbingOnly() bool {
	if len(p.Frames) == 0 {
		return false
	}
	for _, f := range p.Frames {
		if !wire.IsProbingFrame(f) {
			return false
		}
	}
	return true
}

// Empty reports whether the packet carries no frames, meaning the
// packetizer should discard it rather than send a bare header
// (spec.md §4.3 step 2's "nothing to send" case).
func (p *Packet) Empty() bool {
	return len(p.Frames) == 0
}
