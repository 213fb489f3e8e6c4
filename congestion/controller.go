// Package congestion defines the congestion-controller collaborator
// contract the packetizer (C9) consumes, per spec.md §6: OpenWindow()
// and Reset(). The controller's actual algorithm (Cubic, BBR, ...) is
// out of scope per spec.md's "Out of scope" list; this package only
// carries the seam plus a minimal fixed-window implementation that is
// enough to drive the packetizer in tests and in integrators that don't
// need a sophisticated algorithm.
package congestion

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/qcore/quicendpoint/internal/protocol"
)

// Controller is the contract the packetizer (C9) needs from a
// congestion controller.
type Controller interface {
	// OpenWindow returns the number of bytes currently permitted to be
	// sent. Zero means the packetizer must stop (spec.md §4.3 step 1).
	OpenWindow() protocol.ByteCount
	// Reset restores the controller to its initial state, called on
	// Version-Negotiation and Retry (spec.md §4.5).
	Reset()
	// OnPacketSent records bytes handed to the network, so OpenWindow
	// reflects bytes actually in flight.
	OnPacketSent(protocol.ByteCount)
	// OnBytesAcked frees window as the loss detector confirms delivery.
	OnBytesAcked(protocol.ByteCount)
}

// FixedWindowController is a congestion.Controller whose window is a
// constant ceiling minus bytes currently in flight, paced with a
// golang.org/x/time/rate token bucket so a burst of OpenWindow() calls
// within one scheduler pass can't exceed the configured rate — grounded
// on the teacher's internal/congestion/pacer.go, which gates sending the
// same way (a budget that's spent by SentPacket and replenished over
// time) without committing this core to a specific algorithm.
type FixedWindowController struct {
	mu          sync.Mutex
	initial     protocol.ByteCount
	window      protocol.ByteCount
	inFlight    protocol.ByteCount
	limiter     *rate.Limiter
}

// NewFixedWindowController returns a controller with a constant
// congestion window of initialWindow bytes, paced at bytesPerSecond
// bytes/sec (0 disables pacing, i.e. the full window opens immediately).
func NewFixedWindowController(initialWindow protocol.ByteCount, bytesPerSecond int) *FixedWindowController {
	c := &FixedWindowController{initial: initialWindow, window: initialWindow}
	if bytesPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), int(initialWindow))
	}
	return c
}

func (c *FixedWindowController) OpenWindow() protocol.ByteCount {
	c.mu.Lock()
	defer c.mu.Unlock()
	avail := c.window - c.inFlight
	if avail < 0 {
		return 0
	}
	if c.limiter == nil {
		return avail
	}
	tokens := protocol.ByteCount(c.limiter.Tokens())
	if tokens < avail {
		return tokens
	}
	return avail
}

func (c *FixedWindowController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = c.initial
	c.inFlight = 0
	if c.limiter != nil {
		c.limiter.SetBurst(int(c.initial))
	}
}

func (c *FixedWindowController) OnPacketSent(n protocol.ByteCount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight += n
	if c.limiter != nil {
		c.limiter.AllowN(time.Now(), int(n))
	}
}

func (c *FixedWindowController) OnBytesAcked(n protocol.ByteCount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight -= n
	if c.inFlight < 0 {
		c.inFlight = 0
	}
}

// SetWindow lets an integrator (or a test) drive the window directly,
// e.g. from a real congestion algorithm living outside this core.
func (c *FixedWindowController) SetWindow(w protocol.ByteCount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = w
}
