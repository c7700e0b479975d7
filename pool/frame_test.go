package pool

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestFrameSizes(t *testing.T) {
	sizes := FrameSizes()
	assert.Equal(t, []int{2880, 1920, 960, 480, 240, 120}, sizes)
	assert.Equal(t, MaxFrameSize, sizes[0])
	assert.Equal(t, MinFrameSize, sizes[len(sizes)-1])
	require.NoError(t, ValidateFrameSizes(sizes))

	// Callers get their own copy.
	sizes[0] = 1
	assert.Equal(t, 2880, FrameSizes()[0])
}

func TestFrameSizesAreExactSampleCounts(t *testing.T) {
	codec := []int{2880, 1920, 960, 480, 240, 120}
	for _, n := range codec {
		assert.True(t, IsFrameSize(n), "%d", n)
	}
	assert.False(t, IsFrameSize(3000))
	require.NoError(t, ValidateFrameSizes(codec))
	assert.Equal(t, 2880, MaxFrameSize)
	assert.Equal(t, 120, MinFrameSize)
	assert.Equal(t, 5760, MaxPacketSamples)
	assert.Equal(t, 5760, MaxPacketBytes)

	size, ok := Select(3000, FrameSizes())
	require.True(t, ok)
	assert.Equal(t, 2880, size)
	assert.Equal(t, 60*time.Millisecond, Duration(FrameSizeOf(60)))
}

func TestFrameSizeOf(t *testing.T) {
	assert.Equal(t, 120, FrameSizeOf(3))
	assert.Equal(t, 960, FrameSizeOf(20))
	assert.Equal(t, 2880, FrameSizeOf(60))
	assert.Equal(t, 0, FrameSizeOf(30))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 2500*time.Microsecond, Duration(120))
	assert.Equal(t, 60*time.Millisecond, Duration(2880))
	assert.Equal(t, time.Second, Duration(SampleRate))
}

func TestValidateFrameSizes(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int
		ok    bool
	}{
		{"default", FrameSizes(), true},
		{"subset", []int{960, 480}, true},
		{"single", []int{120}, true},
		{"empty", nil, false},
		{"ascending", []int{120, 240}, false},
		{"duplicate", []int{960, 960}, false},
		{"not a codec size", []int{1000}, false},
		{"zero", []int{960, 0}, false},
		{"negative", []int{-120}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFrameSizes(tt.sizes)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrUnsupported)
			}
		})
	}
}

func TestSelect(t *testing.T) {
	sizes := FrameSizes()
	tests := []struct {
		filled int
		size   int
		ok     bool
	}{
		{0, 0, false},
		{119, 0, false},
		{120, 120, true},
		{239, 120, true},
		{500, 480, true},
		{959, 480, true},
		{960, 960, true},
		{2879, 1920, true},
		{2880, 2880, true},
		{3000, 2880, true},
		{48000, 2880, true},
	}
	for _, tt := range tests {
		size, ok := Select(tt.filled, sizes)
		assert.Equal(t, tt.ok, ok, "filled=%d", tt.filled)
		assert.Equal(t, tt.size, size, "filled=%d", tt.filled)
	}
}

func TestSelectDeterministic(t *testing.T) {
	sizes := FrameSizes()
	for filled := 0; filled <= 3*MaxFrameSize; filled += 7 {
		a, aok := Select(filled, sizes)
		b, bok := Select(filled, sizes)
		require.Equal(t, aok, bok)
		require.Equal(t, a, b)
		if aok {
			require.LessOrEqual(t, a, filled)
		}
	}
}

func TestSelectRestrictedSet(t *testing.T) {
	sizes := []int{960, 480}
	_, ok := Select(479, sizes)
	assert.False(t, ok)
	size, ok := Select(1919, sizes)
	assert.True(t, ok)
	assert.Equal(t, 960, size)
}
