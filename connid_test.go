package quic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcore/quicendpoint/internal/protocol"
)

func TestConnectionIDSetAlternateQueueIsFIFO(t *testing.T) {
	local, _ := protocol.GenerateConnectionID(8)
	peer, _ := protocol.GenerateConnectionID(8)
	set := NewConnectionIDSet(local, peer, peer)

	a, _ := protocol.GenerateConnectionID(8)
	b, _ := protocol.GenerateConnectionID(8)
	require.NoError(t, set.PushAlternate(a))
	require.NoError(t, set.PushAlternate(b))

	assert.True(t, set.HasAlternate())
	got, ok := set.PopAlternate()
	require.True(t, ok)
	assert.True(t, got.Equal(a))

	got, ok = set.PopAlternate()
	require.True(t, ok)
	assert.True(t, got.Equal(b))

	assert.False(t, set.HasAlternate())
	_, ok = set.PopAlternate()
	assert.False(t, ok)
}

func TestConnectionIDSetRejectsZeroLengthAlternate(t *testing.T) {
	local, _ := protocol.GenerateConnectionID(8)
	set := NewConnectionIDSet(local, local, local)

	err := set.PushAlternate(protocol.ZeroConnectionID)
	assert.Error(t, err)
	assert.False(t, set.HasAlternate())
}

func TestConnectionIDSetSetLocalLeavesPeerUnchanged(t *testing.T) {
	local, _ := protocol.GenerateConnectionID(8)
	peer, _ := protocol.GenerateConnectionID(8)
	set := NewConnectionIDSet(local, peer, peer)

	newLocal, _ := protocol.GenerateConnectionID(8)
	set.SetLocal(newLocal)
	assert.True(t, set.Local().Equal(newLocal))
	assert.True(t, set.Peer().Equal(peer))
}

func TestStatelessResetTokenGeneratorIsDeterministicPerCID(t *testing.T) {
	gen := NewStatelessResetTokenGenerator("server-1")
	cid, _ := protocol.GenerateConnectionID(8)

	t1 := gen.Generate(cid)
	t2 := gen.Generate(cid)
	assert.Equal(t, t1, t2)

	other, _ := protocol.GenerateConnectionID(8)
	t3 := gen.Generate(other)
	assert.NotEqual(t, t1, t3)
}
