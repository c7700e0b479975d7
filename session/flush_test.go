package session

import (
	"github.com/pidato/voice/pcm"
	"github.com/pidato/voice/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestStateOf(t *testing.T) {
	assert.Equal(t, Idle, StateOf(0, 120))
	assert.Equal(t, Buffering, StateOf(1, 120))
	assert.Equal(t, Buffering, StateOf(119, 120))
	assert.Equal(t, Ready, StateOf(120, 120))
	assert.Equal(t, Ready, StateOf(5000, 120))
	assert.Equal(t, "buffering", Buffering.String())
}

func TestMaybePadScenario(t *testing.T) {
	buf := pcm.New(48000)
	require.NoError(t, buf.Append(make([]int16, 100)))

	padded, err := MaybePad(buf, TriggerForce, pool.MinFrameSize)
	require.NoError(t, err)
	assert.Equal(t, 20, padded)
	assert.Equal(t, 120, buf.Len())

	size, ok := pool.Select(buf.Len(), pool.FrameSizes())
	require.True(t, ok)
	assert.Equal(t, 120, size)
	require.NoError(t, buf.Consume(size))
	assert.Equal(t, 0, buf.Len())
}

func TestMaybePadSilenceFollowsAudio(t *testing.T) {
	buf := pcm.New(480)
	require.NoError(t, buf.Append([]int16{3, 4, 5}))
	_, err := MaybePad(buf, TriggerStopped, 8)
	require.NoError(t, err)
	assert.Equal(t, []int16{3, 4, 5, 0, 0, 0, 0, 0}, buf.Samples())
}

func TestMaybePadIdempotent(t *testing.T) {
	buf := pcm.New(48000)
	require.NoError(t, buf.Append(make([]int16, 7)))

	first, err := MaybePad(buf, TriggerForce, 120)
	require.NoError(t, err)
	second, err := MaybePad(buf, TriggerForce, 120)
	require.NoError(t, err)
	assert.Equal(t, 113, first)
	assert.Equal(t, 0, second)
	assert.Equal(t, 120, buf.Len())
}

func TestMaybePadNoop(t *testing.T) {
	tests := []struct {
		name    string
		filled  int
		trigger Trigger
	}{
		{"empty buffer", 0, TriggerForce},
		{"empty buffer stopped", 0, TriggerStopped},
		{"already ready", 120, TriggerForce},
		{"well above min", 3000, TriggerIdle},
		{"no trigger", 50, TriggerNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := pcm.New(48000)
			require.NoError(t, buf.Append(make([]int16, tt.filled)))
			padded, err := MaybePad(buf, tt.trigger, 120)
			require.NoError(t, err)
			assert.Equal(t, 0, padded)
			assert.Equal(t, tt.filled, buf.Len())
		})
	}
}

func TestTriggerString(t *testing.T) {
	assert.Equal(t, "force", TriggerForce.String())
	assert.Equal(t, "stopped", TriggerStopped.String())
	assert.Equal(t, "idle", TriggerIdle.String())
	assert.Equal(t, "none", TriggerNone.String())
}
