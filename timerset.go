package quic

import (
	"time"

	"github.com/qcore/quicendpoint/internal/utils"
	"github.com/qcore/quicendpoint/logging"
)

// timerKind names each of the independent timers the connection core
// arms, so SetTimer/TimerCanceled tracing calls can report which one
// fired (spec.md §4.7, logging.ConnectionTracer.SetTimer).
type timerKind uint8

const (
	timerIdle timerKind = iota
	timerHandshake
	timerLossDetection
	timerClosing
	timerPathValidation
	timerKeepAlive
	timerWriteReady
)

func (k timerKind) String() string {
	switch k {
	case timerIdle:
		return "idle"
	case timerHandshake:
		return "handshake"
	case timerLossDetection:
		return "loss_detection"
	case timerClosing:
		return "closing"
	case timerPathValidation:
		return "path_validation"
	case timerKeepAlive:
		return "keep_alive"
	case timerWriteReady:
		return "write_ready"
	default:
		return "unknown"
	}
}

// TimerSet owns every timer the connection core arms (spec.md §4.7:
// idle, handshake, loss-detection, closing/draining, path-validation,
// plus keep-alive and write-ready).
// Every Arm/Cancel call is idempotent — re-arming the same deadline is a
// no-op, and canceling an already-canceled timer is a no-op — matching
// QUICNetVConnection.cc's _schedule_* / _unschedule_* pairs, which guard
// on a stored event handle before touching the underlying timer.
// Component C7.
type TimerSet struct {
	timers map[timerKind]*utils.Timer
	tracer logging.ConnectionTracer
	tag    string
}

// NewTimerSet returns an empty set. tracer and tag are used only for
// SetTimer/TimerCanceled trace events.
func NewTimerSet(tracer logging.ConnectionTracer, tag string) *TimerSet {
	return &TimerSet{timers: make(map[timerKind]*utils.Timer), tracer: tracer, tag: tag}
}

func (s *TimerSet) timerFor(kind timerKind) *utils.Timer {
	t, ok := s.timers[kind]
	if !ok {
		t = utils.NewTimer()
		s.timers[kind] = t
	}
	return t
}

// Arm schedules kind to fire at deadline. Re-arming with the same
// deadline while unread is a no-op (utils.Timer.Reset already
// implements this); a genuine change traces SetTimer.
func (s *TimerSet) Arm(kind timerKind, deadline time.Time) {
	t := s.timerFor(kind)
	prev := t.Deadline()
	t.Reset(deadline)
	if !prev.Equal(deadline) {
		s.tracer.SetTimer(s.tag+"."+kind.String(), deadline)
	}
}

// ArmAfter is a convenience wrapper for the common "d from now" case.
func (s *TimerSet) ArmAfter(kind timerKind, d time.Duration) {
	s.Arm(kind, time.Now().Add(d))
}

// Cancel stops kind if it is currently armed. Canceling an unarmed timer
// is a no-op, matching the idempotence invariant (spec.md §4.7, P9).
func (s *TimerSet) Cancel(kind timerKind) {
	t, ok := s.timers[kind]
	if !ok {
		return
	}
	if t.Deadline().IsZero() {
		return
	}
	t.Stop()
	s.tracer.TimerCanceled(s.tag + "." + kind.String())
}

// Chan returns the fire channel for kind, for use in a select statement
// in the scheduler's event loop.
func (s *TimerSet) Chan(kind timerKind) <-chan time.Time {
	return s.timerFor(kind).Chan()
}

// MarkRead must be called once the scheduler has consumed kind's fire
// event, so a subsequent Arm with an earlier deadline behaves correctly
// (utils.Timer's read-tracking contract).
func (s *TimerSet) MarkRead(kind timerKind) {
	s.timerFor(kind).SetRead()
}

// CancelAll stops every armed timer, called on connection teardown
// (spec.md §4.2 closed state entry).
func (s *TimerSet) CancelAll() {
	for kind := range s.timers {
		s.Cancel(kind)
	}
}
