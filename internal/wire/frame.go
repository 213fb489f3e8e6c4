// Package wire models the frame types this connection core owns
// (spec.md §3's "Frame" entity) plus the Frame interface every frame
// producer (C4) and the dispatcher (C5) share. The wire *codec* — varint
// encoding, header parsing — is an external collaborator per spec.md's
// scope note; this package only carries the typed, already-decoded frame
// values the codec hands to the dispatcher and the values the builder
// hands back to it to encode.
package wire

import "github.com/qcore/quicendpoint/internal/protocol"

// A Frame is anything the packetizer (C9) can place into a packet.
type Frame interface {
	// Length estimates the encoded size of the frame, used by the
	// packetizer to decide whether it still fits in the remaining space.
	Length() protocol.ByteCount
}

// AckElicitingFrame is implemented by frames that report whether they
// require the peer to send an ACK (ACK, CONNECTION_CLOSE and
// APPLICATION_CLOSE report false).
type AckElicitingFrame interface {
	Frame
	IsAckEliciting() bool
}

// ProbingFrame is implemented by frames allowed in a probing packet
// during path validation (RFC 9000 §9.1): PATH_CHALLENGE, PATH_RESPONSE,
// NEW_CONNECTION_ID.
type ProbingFrame interface {
	Frame
	IsProbingFrame() bool
}

// IsProbingFrame reports whether f is usable in a probing-only packet,
// grounded on the teacher's wire.IsProbingFrame free function.
func IsProbingFrame(f Frame) bool {
	if p, ok := f.(ProbingFrame); ok {
		return p.IsProbingFrame()
	}
	return false
}

// IsAckEliciting reports whether receiving f obligates the peer to ACK.
func IsAckEliciting(f Frame) bool {
	if a, ok := f.(AckElicitingFrame); ok {
		return a.IsAckEliciting()
	}
	return true
}
