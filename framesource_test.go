package quic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcore/quicendpoint/internal/mocks"
	"github.com/qcore/quicendpoint/internal/protocol"
	"github.com/qcore/quicendpoint/internal/wire"
)

func TestFrameSourceRegistryOrdersCryptoBeforeStreamBeforeAck(t *testing.T) {
	hs := &mocks.FakeHandshakeHandler{PendingCrypto: &wire.CryptoFrame{DataLength: 10}}
	streams := &mocks.FakeStreamManager{PendingFrame: &wire.StreamFrame{DataLength: 10}}

	reg := &frameSourceRegistry{
		crypto:  hs,
		streams: streams,
	}

	frames := reg.collectFrames(protocol.Encryption1RTT, 1000)
	require.Len(t, frames, 2)
	_, isCrypto := frames[0].(*wire.CryptoFrame)
	assert.True(t, isCrypto, "CRYPTO must be collected before STREAM per spec.md's fixed producer order")
	_, isStream := frames[1].(*wire.StreamFrame)
	assert.True(t, isStream)
}

func TestFrameSourceRegistryCapsConsecutiveStreamFrames(t *testing.T) {
	calls := 0
	unlimitedStreams := &countingFrameSource{
		onGenerate: func() wire.Frame {
			calls++
			return &wire.StreamFrame{DataLength: 1}
		},
	}
	reg := &frameSourceRegistry{streams: unlimitedStreams}

	reg.collectFrames(protocol.Encryption1RTT, 100000)
	assert.Equal(t, protocol.MaxConsecutiveStreamFrames, calls)
}

func TestFrameSourceRegistryStopsWhenBudgetExhausted(t *testing.T) {
	hs := &mocks.FakeHandshakeHandler{PendingCrypto: &wire.CryptoFrame{DataLength: 2000}}
	reg := &frameSourceRegistry{crypto: hs}

	frames := reg.collectFrames(protocol.Encryption1RTT, 10)
	assert.Empty(t, frames)
}

// countingFrameSource always has a frame ready, used to probe the
// consecutive-STREAM-frame cap (invariant, spec.md §4.3).
type countingFrameSource struct {
	onGenerate func() wire.Frame
}

func (c *countingFrameSource) WillGenerateFrame(protocol.EncryptionLevel) bool { return true }
func (c *countingFrameSource) GenerateFrame(protocol.EncryptionLevel, protocol.ByteCount) wire.Frame {
	return c.onGenerate()
}
func (c *countingFrameSource) IsProbingFrame() bool { return false }
