package quic

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/qcore/quicendpoint/internal/protocol"
)

// ConnectionIDSet holds a connection's local, peer, and original
// connection IDs plus the FIFO of peer-advertised alternates (spec.md §3
// "Connection-ID", §3 "Alternate-CID queue"). This is component C1.
//
// Receiving the zero-length sentinel CID in a NEW_CONNECTION_ID frame is
// a PROTOCOL_VIOLATION (invariant P3); PushAlternate enforces that.
type ConnectionIDSet struct {
	mu sync.Mutex

	local    protocol.ConnectionID
	peer     protocol.ConnectionID
	original protocol.ConnectionID

	alternates []protocol.ConnectionID
}

// NewConnectionIDSet builds the identity triple an accept/connect path
// assigns at creation (spec.md §3 Lifecycle).
func NewConnectionIDSet(local, peer, original protocol.ConnectionID) *ConnectionIDSet {
	return &ConnectionIDSet{local: local, peer: peer, original: original}
}

func (s *ConnectionIDSet) Local() protocol.ConnectionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local
}

func (s *ConnectionIDSet) Peer() protocol.ConnectionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer
}

func (s *ConnectionIDSet) Original() protocol.ConnectionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.original
}

// SetLocal is used when a migration commits to a new local CID
// (spec.md §4.6).
func (s *ConnectionIDSet) SetLocal(cid protocol.ConnectionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local = cid
}

// SetPeer rotates the active peer CID, used after popping an alternate
// (spec.md §4.6).
func (s *ConnectionIDSet) SetPeer(cid protocol.ConnectionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peer = cid
}

// RerandomizeOriginal is called on RETRY (spec.md §4.5): the original
// CID is replaced and handshake key material is reinitialized from it.
func (s *ConnectionIDSet) RerandomizeOriginal(cid protocol.ConnectionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.original = cid
}

// PushAlternate appends a peer-advertised alternate CID to the FIFO
// queue. It rejects the zero-length sentinel with an error the caller
// maps to PROTOCOL_VIOLATION (spec.md §4.4 NEW_CONNECTION_ID, invariant
// P3).
func (s *ConnectionIDSet) PushAlternate(cid protocol.ConnectionID) error {
	if cid.IsZero() {
		return errZeroConnectionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alternates = append(s.alternates, cid)
	return nil
}

var errZeroConnectionID = fmt.Errorf("connid: zero-length connection ID is not valid as a peer CID")

// HasAlternate reports whether at least one peer alternate is queued.
func (s *ConnectionIDSet) HasAlternate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alternates) > 0
}

// PopAlternate consumes and returns the head of the alternate queue
// (spec.md §4.6's "rotate the peer CID to the queue head (popped)").
func (s *ConnectionIDSet) PopAlternate() (protocol.ConnectionID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.alternates) == 0 {
		return protocol.ConnectionID{}, false
	}
	head := s.alternates[0]
	s.alternates = s.alternates[1:]
	return head, true
}

// DebugTag formats a compact truncated-CID prefix for log lines,
// grounded on QUICNetVConnection.cc's QUICConDebug tag and the teacher's
// connection.go logID field (SPEC_FULL.md C.1).
func (s *ConnectionIDSet) DebugTag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.local.IsZero() {
		return fmt.Sprintf("%08x", s.original.Truncated32())
	}
	return fmt.Sprintf("%08x", s.local.Truncated32())
}

// StatelessResetTokenGenerator derives a per-CID stateless reset token
// from the server identity (SPEC_FULL.md C.3), grounded on
// QUICNetVConnection.cc's QUICStatelessResetTokenGenerator and the
// teacher's stateless_resetter.go (same HMAC-over-CID construction).
type StatelessResetTokenGenerator struct {
	key []byte
}

// NewStatelessResetTokenGenerator derives an HMAC key from the server
// identity string.
func NewStatelessResetTokenGenerator(serverID string) *StatelessResetTokenGenerator {
	sum := sha256.Sum256([]byte(serverID))
	return &StatelessResetTokenGenerator{key: sum[:]}
}

// Generate returns a deterministic 16-byte token for cid: the same CID
// always yields the same token, letting the peer validate a stateless
// reset without us keeping per-connection state.
func (g *StatelessResetTokenGenerator) Generate(cid protocol.ConnectionID) [16]byte {
	mac := hmac.New(sha256.New, g.key)
	mac.Write(cid.Bytes())
	sum := mac.Sum(nil)
	var token [16]byte
	copy(token[:], sum)
	return token
}
