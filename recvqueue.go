package quic

import (
	"sync"
	"time"

	"github.com/qcore/quicendpoint/internal/qerr"
	"github.com/qcore/quicendpoint/internal/utils/ringbuffer"
)

// ReceiveQueue is the single point of contact between the independent
// UDP-receiver goroutine and the scheduler thread (spec.md §5): the
// receiver only ever calls Enqueue under queue.mu, and the scheduler
// only ever calls Dequeue. Grounded on the teacher's
// internal/handshake/session_ticket_store.go's mutex-guarded ring
// buffer pattern and internal/utils/ringbuffer for storage (C2).
type ReceiveQueue struct {
	mu       sync.Mutex
	packets  ringbuffer.RingBuffer[UDPPacket]
	draining bool
}

// NewReceiveQueue returns an empty queue ready for concurrent use.
func NewReceiveQueue() *ReceiveQueue {
	q := &ReceiveQueue{}
	q.packets.Init(8)
	return q
}

// Enqueue is called from the UDP-receiver goroutine. It never blocks and
// never returns an error: a full queue simply grows (ringbuffer.grow),
// matching spec.md §5's "the receiver never applies backpressure".
func (q *ReceiveQueue) Enqueue(pkt UDPPacket) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.packets.PushBack(pkt)
}

// SetDraining marks the queue as draining-only: once set, Dequeue still
// returns queued/new packets (closing/draining states keep reading to
// detect CONNECTION_CLOSE, per spec.md §4.2) but callers use this flag
// to decide whether newly delivered packets should still feed the
// frame dispatcher or be discarded after an ACK-eliciting check.
func (q *ReceiveQueue) SetDraining(d bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.draining = d
}

func (q *ReceiveQueue) Draining() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.draining
}

// Dequeue is called only from the scheduler thread. It returns
// qerr.RecvNoPacket when the queue is empty rather than blocking, so the
// scheduler's event loop can move on to other work (spec.md §5).
func (q *ReceiveQueue) Dequeue() (UDPPacket, qerr.RecvResult) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.packets.Empty() {
		return UDPPacket{}, qerr.RecvNoPacket
	}
	pkt := q.packets.PopFront()
	return pkt, qerr.RecvSuccess
}

// Len reports the number of packets currently queued, used by metrics
// and tests only.
func (q *ReceiveQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.packets.Len()
}

// closingRecvWindow implements spec.md §4.2's closing/draining receive
// throttle: it counts packets received while closing, and each time the
// count reaches the window (starting at InitialClosingRecvWindow) the
// window doubles, up to MaxClosingRecvWindow, and the count restarts.
// Only those window-filling packets trigger a resend of the final
// packet. Grounded on
// QUICNetVConnection.cc's _recv_and_ack closing-window doubling.
type closingRecvWindow struct {
	mu       sync.Mutex
	limit    int
	seen     int
	lastSeen time.Time
}

func newClosingRecvWindow(initial, max int) *closingRecvWindow {
	return &closingRecvWindow{limit: initial}
}

// Admit counts one packet received while closing and reports whether it
// filled the current window. The window keeps cycling indefinitely
// rather than ever permanently latching shut: once seen catches up to
// limit, Admit returns true, limit doubles (capped at max) and seen
// resets to zero, even after limit has already reached max — spec.md
// §4.2 describes a recv_count/threshold cycle that repeats for the life
// of the closing/draining state, not a one-shot budget.
func (w *closingRecvWindow) Admit(max int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seen++
	w.lastSeen = time.Now()
	if w.seen < w.limit {
		return false
	}
	w.limit *= 2
	if w.limit > max {
		w.limit = max
	}
	w.seen = 0
	return true
}
