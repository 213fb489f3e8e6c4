package flowcontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcore/quicendpoint/internal/protocol"
	"github.com/qcore/quicendpoint/internal/wire"
)

func TestLocalWindowRejectsOffsetBeyondLimit(t *testing.T) {
	w := NewLocalWindow(100)
	require.NoError(t, w.Update(50))
	assert.Equal(t, protocol.ByteCount(50), w.CurrentOffset())

	err := w.Update(150)
	assert.ErrorIs(t, err, ErrFlowControlViolation)
}

func TestLocalWindowGeneratesMaxDataOnceAfterLimitIncrease(t *testing.T) {
	w := NewLocalWindow(100)
	assert.False(t, w.WillGenerateFrame(protocol.Encryption1RTT))

	w.SetLimit(200)
	assert.True(t, w.WillGenerateFrame(protocol.Encryption1RTT))

	f := w.GenerateFrame(protocol.Encryption1RTT, 1500)
	require.NotNil(t, f)
	md, ok := f.(*wire.MaxDataFrame)
	require.True(t, ok)
	assert.Equal(t, protocol.ByteCount(200), md.MaximumData)

	assert.False(t, w.WillGenerateFrame(protocol.Encryption1RTT))
}

func TestLocalWindowLimitIsMonotonic(t *testing.T) {
	w := NewLocalWindow(200)
	w.SetLimit(100)
	assert.Equal(t, protocol.ByteCount(200), w.Limit())
}

func TestRemoteWindowBlocksWhenCreditExhausted(t *testing.T) {
	w := NewRemoteWindow(100)
	require.NoError(t, w.Update(100))
	assert.Equal(t, protocol.ByteCount(0), w.Credit())
	assert.True(t, w.WillGenerateFrame(protocol.Encryption1RTT))

	f := w.GenerateFrame(protocol.Encryption1RTT, 1500)
	require.NotNil(t, f)
	_, ok := f.(*wire.DataBlockedFrame)
	assert.True(t, ok)
}

func TestRemoteWindowSetLimitAdvancesOnly(t *testing.T) {
	w := NewRemoteWindow(100)
	assert.True(t, w.SetLimit(200))
	assert.False(t, w.SetLimit(150))
	assert.Equal(t, protocol.ByteCount(200), w.Limit())
}
