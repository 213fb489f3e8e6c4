package quic

import (
	"net"

	"github.com/qcore/quicendpoint/internal/protocol"
)

// migrationState tracks an in-flight path-validation attempt (spec.md
// §4.6): a migration is first *detected* (a packet arrives bearing a
// destination CID that differs from the current local CID), then
// *validated* via PATH_CHALLENGE/PATH_RESPONSE before the connection
// commits to the new path. Component C10.
type migrationState struct {
	pending   bool
	candidate net.Addr

	// newLocalCID is set only for a peer-triggered (inbound) migration,
	// where commit must adopt it as the new local CID. A self-initiated
	// outbound migration (InitiateMigration) leaves this zero so commit
	// doesn't touch the local CID at all (spec.md §4.6 Initiation).
	newLocalCID protocol.ConnectionID
}

// OnPacketFromAddr is called by the receive path for every successfully
// decrypted packet, before frame dispatch. It detects connection
// migration the way spec.md §4.6 requires: by comparing the packet's
// *destination* CID against the connection's current local CID, not by
// watching the source address. destCID is what the inbound packet
// carried; addr is its source address, cached as the candidate path to
// validate.
func (c *Connection) OnPacketFromAddr(destCID protocol.ConnectionID, addr net.Addr, validator PathValidator, altCID AlternateCIDManager) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPacketFromAddr(destCID, addr, validator, altCID)
}

func (c *Connection) onPacketFromAddr(destCID protocol.ConnectionID, addr net.Addr, validator PathValidator, altCID AlternateCIDManager) {
	if destCID.IsZero() || destCID.Equal(c.connIDs.Local()) {
		return
	}
	if c.migration.pending {
		return
	}
	// No peer alternates advertised yet: nothing to migrate to, so
	// ignore the attempt entirely (spec.md §4.6).
	if !c.connIDs.HasAlternate() {
		return
	}
	if altCID == nil || !altCID.MigrateTo(destCID) {
		return
	}
	if validator == nil || validator.IsValidating() {
		return
	}

	c.migration.pending = true
	c.migration.candidate = addr
	c.migration.newLocalCID = destCID
	validator.StartValidation()
	c.tracer.MigrationStarted(c.connIDs.Local())
	c.timers.ArmAfter(timerPathValidation, c.bestEffortRTO()*3)
}

// InitiateMigration starts a self-initiated outbound migration to a
// freshly popped peer alternate (spec.md §4.6 Initiation), gated on
// Config.ExerciseMigration and only attempted while no frames are still
// outstanding on the current path (AlternateCIDManager.HasOutstandingFrames)
// — migrating out from under in-flight frames would strand their
// retransmissions on an abandoned path.
func (c *Connection) InitiateMigration(validator PathValidator, altCID AlternateCIDManager) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initiateMigration(validator, altCID)
}

func (c *Connection) initiateMigration(validator PathValidator, altCID AlternateCIDManager) bool {
	if !c.cfg.ExerciseMigration {
		return false
	}
	if c.migration.pending || validator == nil || validator.IsValidating() {
		return false
	}
	if altCID != nil && altCID.HasOutstandingFrames(protocol.Encryption1RTT) {
		return false
	}
	if !c.connIDs.HasAlternate() {
		return false
	}

	peerCID, ok := c.connIDs.PopAlternate()
	if !ok {
		return false
	}
	c.connIDs.SetPeer(peerCID)

	c.migration.pending = true
	c.migration.candidate = c.remoteAddr
	c.migration.newLocalCID = protocol.ConnectionID{}
	validator.StartValidation()
	c.tracer.MigrationStarted(c.connIDs.Local())
	c.timers.ArmAfter(timerPathValidation, c.bestEffortRTO()*3)
	return true
}

// CommitMigration is called once the path validator reports the new
// path validated (spec.md §4.6's "migrate_to" commit step): the
// connection's active remote address is swapped in, and — only for a
// peer-triggered migration — the local CID is updated to the
// destination CID the triggering packet carried.
func (c *Connection) CommitMigration(validator PathValidator, altCID AlternateCIDManager) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commitMigration(validator, altCID)
}

func (c *Connection) commitMigration(validator PathValidator, altCID AlternateCIDManager) {
	if !c.migration.pending || validator == nil || !validator.IsValidated() {
		return
	}

	c.remoteAddr = c.migration.candidate
	if !c.migration.newLocalCID.IsZero() {
		c.connIDs.SetLocal(c.migration.newLocalCID)
	}
	c.migration.pending = false
	c.migration.candidate = nil
	c.migration.newLocalCID = protocol.ConnectionID{}
	c.timers.Cancel(timerPathValidation)
	c.tracer.MigrationCompleted(c.connIDs.Local())
}

// OnPathValidationTimeout is called when the path-validation timer
// expires without a PATH_RESPONSE (spec.md §4.6): the candidate path is
// abandoned and the connection continues on its existing path.
func (c *Connection) OnPathValidationTimeout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.migration.pending {
		return
	}
	c.migration.pending = false
	c.migration.candidate = nil
	c.migration.newLocalCID = protocol.ConnectionID{}
	c.tracer.PathValidationTimedOut()
}
