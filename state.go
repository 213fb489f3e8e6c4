package quic

// State is one of the six connection states spec.md §4.1 defines. Every
// state transition is driven by Connection.handleEvent, which applies
// the redelivery pattern QUICNetVConnection.cc's state_pre_handshake /
// state_handshake / ... handlers use: a transition re-invokes the
// handler for the *new* state with the *same* event, so a single event
// can legitimately cross more than one state boundary in one call
// (spec.md §4.1's "redelivery on transition", invariant P1).
type State uint8

const (
	StatePreHandshake State = iota
	StateHandshake
	StateEstablished
	StateClosing
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePreHandshake:
		return "pre_handshake"
	case StateHandshake:
		return "handshake"
	case StateEstablished:
		return "established"
	case StateClosing:
		return "closing"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// event is the sum type every state handler switches on (spec.md §4.1's
// event list). Only the core's own events are modeled; collaborator
// internals (e.g. a specific TLS message type) are opaque payloads on
// EventPacketReceived / EventHandshakeProgress.
type event uint8

const (
	// eventPacketReceived fires once per dequeued packet; outside
	// closing/draining it fires after the packet's frames have been
	// dispatched.
	eventPacketReceived event = iota
	// eventHandshakeProgress fires after the handshake handler reports
	// forward progress (spec.md §4.1 pre_handshake -> handshake ->
	// established transitions).
	eventHandshakeProgress
	// eventIdleTimeout fires when the idle timer expires.
	eventIdleTimeout
	// eventLocalClose fires when the application requests a close.
	eventLocalClose
	// eventPeerClose fires when a CONNECTION_CLOSE/APPLICATION_CLOSE
	// frame is dispatched (C5).
	eventPeerClose
	// eventClosingTimeout fires when the closing/draining persistence
	// window (3x RTO) elapses.
	eventClosingTimeout
	// eventWriteReady fires on the write-ready timer/signal that drives
	// the packetizer (C9).
	eventWriteReady
)

// eventCtx carries the event-specific payload. Only the fields relevant
// to the current event are populated; zero values elsewhere.
type eventCtx struct {
	packet   *UDPPacket
	closeErr ConnError
}
