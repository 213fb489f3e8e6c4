package quic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcore/quicendpoint/congestion"
	"github.com/qcore/quicendpoint/internal/mocks"
	"github.com/qcore/quicendpoint/internal/protocol"
)

type fakeConnTable struct {
	erased []protocol.ConnectionID
}

func (f *fakeConnTable) Insert(protocol.ConnectionID, *Connection) {}
func (f *fakeConnTable) Erase(cid protocol.ConnectionID, _ *Connection) {
	f.erased = append(f.erased, cid)
}

func newTestConnection(t *testing.T, hs *mocks.FakeHandshakeHandler, udp *mocks.FakeUDPConn, table *fakeConnTable) *Connection {
	t.Helper()
	local, err := protocol.GenerateConnectionID(8)
	require.NoError(t, err)
	peer, err := protocol.GenerateConnectionID(8)
	require.NoError(t, err)

	return NewConnection(ConnectionParams{
		Perspective:    protocol.PerspectiveServer,
		Config:         &Config{},
		LocalConnID:    local,
		PeerConnID:     peer,
		OriginalConnID: peer,
		Handshake:      hs,
		Streams:        &mocks.FakeStreamManager{},
		PathValidator:  &mocks.FakePathValidator{},
		ACKCreator:     nil,
		Congestion:     congestion.NewFixedWindowController(1<<20, 0),
		UDP:            udp,
		Table:          table,
	})
}

func TestNewConnectionStartsInPreHandshake(t *testing.T) {
	c := newTestConnection(t, &mocks.FakeHandshakeHandler{}, &mocks.FakeUDPConn{}, &fakeConnTable{})
	assert.Equal(t, StatePreHandshake, c.State())
}

func TestHandshakeCompletionMovesToEstablished(t *testing.T) {
	hs := &mocks.FakeHandshakeHandler{}
	c := newTestConnection(t, hs, &mocks.FakeUDPConn{}, &fakeConnTable{})

	hs.Completed = true
	c.mu.Lock()
	c.handleEvent(eventPacketReceived, eventCtx{})
	c.mu.Unlock()

	assert.Equal(t, StateEstablished, c.State())
}

func TestHandshakeProgressMovesToHandshakeState(t *testing.T) {
	hs := &mocks.FakeHandshakeHandler{Level: protocol.EncryptionHandshake}
	c := newTestConnection(t, hs, &mocks.FakeUDPConn{}, &fakeConnTable{})

	c.mu.Lock()
	c.handleEvent(eventPacketReceived, eventCtx{})
	c.mu.Unlock()

	assert.Equal(t, StateHandshake, c.State())
}

func TestIdleTimeoutFromEstablishedGoesToDrainingThenClosed(t *testing.T) {
	hs := &mocks.FakeHandshakeHandler{Completed: true}
	c := newTestConnection(t, hs, &mocks.FakeUDPConn{}, &fakeConnTable{})

	c.mu.Lock()
	c.handleEvent(eventPacketReceived, eventCtx{}) // -> established
	require.Equal(t, StateEstablished, c.state)
	c.handleEvent(eventIdleTimeout, eventCtx{})
	c.mu.Unlock()

	assert.Equal(t, StateDraining, c.State())
	_, ok := c.closeErr.(interface{ Error() string })
	assert.True(t, ok)

	c.OnClosingTimeout()
	assert.Equal(t, StateClosed, c.State())
}

func TestCloseLocalSendsFinalPacketAndErasesFromTable(t *testing.T) {
	hs := &mocks.FakeHandshakeHandler{Completed: true}
	udp := &mocks.FakeUDPConn{}
	table := &fakeConnTable{}
	c := newTestConnection(t, hs, udp, table)

	c.mu.Lock()
	c.handleEvent(eventPacketReceived, eventCtx{}) // -> established
	c.mu.Unlock()

	c.CloseLocal(NewTransportError(NoError, "bye"))
	assert.Equal(t, StateClosing, c.State())
	assert.Len(t, udp.Sent, 1)

	c.OnClosingTimeout()
	assert.Equal(t, StateClosed, c.State())
	require.Len(t, table.erased, 1)
}

func TestRedeliveryCrossesMultipleStatesInOneEvent(t *testing.T) {
	// A handshake that is already complete by the time the very first
	// packet is processed must cross pre_handshake -> handshake ->
	// established within a single handleEvent call (spec.md's
	// redelivery-on-transition pattern, invariant P1).
	hs := &mocks.FakeHandshakeHandler{Completed: true}
	c := newTestConnection(t, hs, &mocks.FakeUDPConn{}, &fakeConnTable{})

	require.Equal(t, StatePreHandshake, c.State())
	c.mu.Lock()
	c.handleEvent(eventPacketReceived, eventCtx{})
	c.mu.Unlock()

	assert.Equal(t, StateEstablished, c.State())
}

func TestClosingWindowTriggersOnEachDoublingWindow(t *testing.T) {
	w := newClosingRecvWindow(1, 4)
	admits := 0
	for i := 0; i < 10; i++ {
		if w.Admit(4) {
			admits++
		}
	}
	// Windows of 1, 2 and 4 fill at packets 1, 3 and 7. The window is then
	// capped at 4, so the next one would fill at packet 11: packets 8-10
	// do not trigger.
	assert.Equal(t, 3, admits)
}

func TestPeerCloseFrameTransitionsToDraining(t *testing.T) {
	hs := &mocks.FakeHandshakeHandler{Completed: true}
	c := newTestConnection(t, hs, &mocks.FakeUDPConn{}, &fakeConnTable{})

	c.mu.Lock()
	c.handleEvent(eventPacketReceived, eventCtx{})
	require.Equal(t, StateEstablished, c.state)
	c.handleEvent(eventPeerClose, eventCtx{closeErr: NewTransportError(NoError, "peer done")})
	c.mu.Unlock()

	assert.Equal(t, StateDraining, c.State())
}

func TestArmClosingTimerUsesDefaultWhenNoLossDetectorConfigured(t *testing.T) {
	c := newTestConnection(t, &mocks.FakeHandshakeHandler{}, &mocks.FakeUDPConn{}, &fakeConnTable{})
	rto := c.bestEffortRTO()
	assert.Equal(t, 3*time.Second, rto)
}
