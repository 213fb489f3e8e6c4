package utils

import (
	"math"
	"time"
)

// Timer is a time.Timer wrapper that behaves correctly across repeated
// Reset calls, mirroring quic-go's internal/utils.Timer (the stdlib
// documents that resetting an unread, already-fired timer races unless
// the channel is drained first).
type Timer struct {
	t        *time.Timer
	read     bool
	deadline time.Time
}

// NewTimer creates a new Timer that is not armed.
func NewTimer() *Timer {
	return &Timer{t: time.NewTimer(time.Duration(math.MaxInt64))}
}

// Chan returns the channel the wrapped timer fires on.
func (t *Timer) Chan() <-chan time.Time { return t.t.C }

// Reset arms the timer for deadline, draining a stale fire if necessary.
// It no-ops if the timer is already set for the same deadline and hasn't
// been read since — the idempotent re-arm spec.md §5 requires.
func (t *Timer) Reset(deadline time.Time) {
	if deadline.Equal(t.deadline) && !t.read {
		return
	}
	if !t.t.Stop() && !t.read {
		<-t.t.C
	}
	if !deadline.IsZero() {
		t.t.Reset(time.Until(deadline))
	}
	t.read = false
	t.deadline = deadline
}

// SetRead marks the most recent fire as consumed.
func (t *Timer) SetRead() { t.read = true }

// Deadline returns the time the timer is currently armed for.
func (t *Timer) Deadline() time.Time { return t.deadline }

// Stop disarms the timer without draining its channel.
func (t *Timer) Stop() {
	t.t.Stop()
	t.deadline = time.Time{}
}
