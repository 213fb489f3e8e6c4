package quic

import (
	"github.com/qcore/quicendpoint/internal/protocol"
	"github.com/qcore/quicendpoint/internal/wire"
)

// frameSourceRegistry holds every FrameSource in the strict tie-break
// order spec.md §4.3 specifies:
//
//	CRYPTO -> PATH_CHALLENGE/RESPONSE -> NEW_CONNECTION_ID -> retransmits
//	-> MAX_DATA -> BLOCKED -> STREAM (capped at MaxConsecutiveStreamFrames
//	per pass) -> ACK
//
// Grounded on QUICNetVConnection.cc's _packetize_frames, which visits
// exactly these producers in exactly this order every pass, and on the
// teacher's internal/ackhandler frame-source composition pattern
// (a fixed slice of FrameSource walked in sequence). This is component
// C4.
type frameSourceRegistry struct {
	crypto       FrameSource
	pathProbe    FrameSource
	newConnID    FrameSource
	retransmit   FrameSource
	maxData      FrameSource
	blocked      FrameSource
	streams      FrameSource
	ack          FrameSource
}

// ordered returns the producers in the fixed §4.3 sequence, skipping any
// nil slot (a core built without, say, a stream manager still visits
// every other producer in order).
func (r *frameSourceRegistry) ordered() []FrameSource {
	all := []FrameSource{r.crypto, r.pathProbe, r.newConnID, r.retransmit, r.maxData, r.blocked, r.streams, r.ack}
	out := make([]FrameSource, 0, len(all))
	for _, s := range all {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// collectFrames walks the registry in order, taking at most one frame
// per producer per call, except the stream producer which may
// contribute up to MaxConsecutiveStreamFrames frames in a single pass
// (spec.md §4.3's consecutive-STREAM cap, invariant P6) before the walk
// continues to ACK. BLOCKED is only offered while the stream producer
// still has a frame to send at level. The walk stops early once budget
// is exhausted; it bounds a single packet's frame list only, and the
// per-pass datagram cap is enforced by the caller.
func (r *frameSourceRegistry) collectFrames(level protocol.EncryptionLevel, budget protocol.ByteCount) []wire.Frame {
	var frames []wire.Frame
	remaining := budget

	appendIfFits := func(src FrameSource) bool {
		if !src.WillGenerateFrame(level) {
			return false
		}
		f := src.GenerateFrame(level, remaining)
		if f == nil {
			return false
		}
		frames = append(frames, f)
		remaining -= f.Length()
		return true
	}

	for _, src := range []FrameSource{r.crypto, r.pathProbe, r.newConnID, r.retransmit, r.maxData, r.blocked} {
		if src == nil {
			continue
		}
		if remaining <= 0 {
			return frames
		}
		if src == r.blocked && (r.streams == nil || !r.streams.WillGenerateFrame(level)) {
			continue
		}
		appendIfFits(src)
	}

	if r.streams != nil {
		for i := 0; i < protocol.MaxConsecutiveStreamFrames; i++ {
			if remaining <= 0 {
				break
			}
			if !appendIfFits(r.streams) {
				break
			}
		}
	}

	if r.ack != nil && remaining > 0 {
		appendIfFits(r.ack)
	}

	return frames
}

// willGenerateAny reports whether any producer in the registry has
// something to offer at level, used by the packetizer to decide whether
// a pass is worth attempting at all (spec.md §4.3 step 1).
func (r *frameSourceRegistry) willGenerateAny(level protocol.EncryptionLevel) bool {
	for _, src := range r.ordered() {
		if src.WillGenerateFrame(level) {
			return true
		}
	}
	return false
}

// hasProbingSource reports whether any producer in the registry is
// probing-capable at level, used when the connection is limited to
// probing-only sends during path validation (spec.md §4.6).
func (r *frameSourceRegistry) hasProbingSource(level protocol.EncryptionLevel) bool {
	for _, src := range r.ordered() {
		if src.IsProbingFrame() && src.WillGenerateFrame(level) {
			return true
		}
	}
	return false
}
