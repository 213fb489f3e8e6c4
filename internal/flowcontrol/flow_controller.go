// Package flowcontrol implements the connection-scope flow-control
// windows spec.md §3 describes: a local (received-bytes) window and a
// remote (sent-bytes) window, each monotonic in its limit. Grounded on
// quic-go's internal/flowcontrol, trimmed to connection scope only —
// per-stream flow control is the stream manager's concern and is out of
// scope here.
package flowcontrol

import (
	"fmt"
	"sync"

	"github.com/qcore/quicendpoint/internal/protocol"
	"github.com/qcore/quicendpoint/internal/wire"
)

// ErrFlowControlViolation is returned when the peer has sent more bytes
// than our advertised limit permits (spec.md §7 FLOW_CONTROL_ERROR).
var ErrFlowControlViolation = fmt.Errorf("flowcontrol: received more data than the advertised limit")

// LocalWindow is the connection's received-bytes flow-control window: it
// bounds how much the peer may send us. Invariant P2: CurrentOffset() <=
// Limit() at every observable point.
type LocalWindow struct {
	mu      sync.Mutex
	offset  protocol.ByteCount
	limit   protocol.ByteCount
	pending bool // a MAX_DATA frame is due
}

// NewLocalWindow creates a receive window with the given initial limit.
func NewLocalWindow(initialLimit protocol.ByteCount) *LocalWindow {
	return &LocalWindow{limit: initialLimit}
}

// Update folds in the aggregate offset the stream manager reports as
// received (spec.md §4.2's "local connection-level window ... against the
// stream manager's aggregate received offset"). It returns
// ErrFlowControlViolation if offset exceeds the current limit.
func (w *LocalWindow) Update(offset protocol.ByteCount) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if offset > w.limit {
		return ErrFlowControlViolation
	}
	if offset > w.offset {
		w.offset = offset
	}
	return nil
}

// SetLimit forwards the local limit to newLimit if it is larger than the
// current one (spec.md §4.2: "local limit is then forwarded to
// total_reordered_bytes + initial_max_data"). Limit is monotonic — a
// smaller value is silently ignored.
func (w *LocalWindow) SetLimit(newLimit protocol.ByteCount) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if newLimit > w.limit {
		w.limit = newLimit
		w.pending = true
	}
}

// CurrentOffset and Limit expose the window for invariant checks (P2)
// and tests.
func (w *LocalWindow) CurrentOffset() protocol.ByteCount {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.offset
}

func (w *LocalWindow) Limit() protocol.ByteCount {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.limit
}

// WillGenerateFrame reports whether a MAX_DATA update is due (frame
// producer capability, spec.md §9 design note).
func (w *LocalWindow) WillGenerateFrame(protocol.EncryptionLevel) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// GenerateFrame produces the MAX_DATA frame, if one is due (spec.md §4.3
// step 5). Never a probing frame.
func (w *LocalWindow) GenerateFrame(level protocol.EncryptionLevel, maxSize protocol.ByteCount) wire.Frame {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.pending {
		return nil
	}
	f := &wire.MaxDataFrame{MaximumData: w.limit}
	if f.Length() > maxSize {
		return nil
	}
	w.pending = false
	return f
}

func (w *LocalWindow) IsProbingFrame() bool { return false }

// RemoteWindow is the connection's sent-bytes flow-control window: it
// bounds how much we may send the peer, as advertised by the peer's own
// MAX_DATA frames.
type RemoteWindow struct {
	mu      sync.Mutex
	sent    protocol.ByteCount
	limit   protocol.ByteCount
}

// NewRemoteWindow creates a send window with the given initial limit
// (typically the peer's initial_max_data transport parameter).
func NewRemoteWindow(initialLimit protocol.ByteCount) *RemoteWindow {
	return &RemoteWindow{limit: initialLimit}
}

// SetLimit forwards the limit to newLimit if it advances it (spec.md
// §4.4 MAX_DATA handler: "forwards the remote flow-control limit to the
// advertised maximum").
func (w *RemoteWindow) SetLimit(newLimit protocol.ByteCount) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if newLimit > w.limit {
		w.limit = newLimit
		return true
	}
	return false
}

// Update records the stream manager's total bytes sent so far, mirroring
// the original's `update(total_offset_sent)` call after each STREAM
// frame (spec.md §4.3 step 7). Invariant P2.
func (w *RemoteWindow) Update(totalOffsetSent protocol.ByteCount) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if totalOffsetSent > w.limit {
		return ErrFlowControlViolation
	}
	w.sent = totalOffsetSent
	return nil
}

// Credit is the number of bytes still available to send before blocking.
func (w *RemoteWindow) Credit() protocol.ByteCount {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sent >= w.limit {
		return 0
	}
	return w.limit - w.sent
}

func (w *RemoteWindow) Limit() protocol.ByteCount {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.limit
}

// WillGenerateFrame reports whether the send window is currently
// exhausted, i.e. whether a DATA_BLOCKED frame would be due (spec.md
// §4.3 step 6's credit==0 half of the gate; the stream-manager half
// lives in the frame-source registry's collectFrames, C4).
func (w *RemoteWindow) WillGenerateFrame(protocol.EncryptionLevel) bool {
	return w.Credit() == 0
}

// GenerateFrame produces a BLOCKED frame carrying the current limit,
// matching spec.md §4.3 step 6's gating (credit==0 AND the stream
// manager has pending data) — the stream-manager check lives in the
// frame-source registry (C4), not here.
func (w *RemoteWindow) GenerateFrame(level protocol.EncryptionLevel, maxSize protocol.ByteCount) wire.Frame {
	if w.Credit() != 0 {
		return nil
	}
	f := &wire.DataBlockedFrame{MaximumData: w.Limit()}
	if f.Length() > maxSize {
		return nil
	}
	return f
}

func (w *RemoteWindow) IsProbingFrame() bool { return false }
