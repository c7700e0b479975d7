package transcode

import (
	"github.com/pidato/voice/opus"
	"github.com/pidato/voice/pcm"
	"github.com/pidato/voice/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
)

func TestRoundTripSilence(t *testing.T) {
	enc, err := NewEncoder(EncoderOptions{})
	require.NoError(t, err)
	defer enc.Close()
	dec, err := NewDecoder(0)
	require.NoError(t, err)
	defer dec.Close()

	buf := pcm.New(pool.MaxFrameSize)
	for _, size := range pool.FrameSizes() {
		require.NoError(t, buf.Append(make([]int16, size)))

		packet, err := enc.Encode(buf)
		require.NoError(t, err)
		require.NotEmpty(t, packet)
		assert.Equal(t, 0, buf.Len())

		n, err := opus.PacketSamples(packet)
		require.NoError(t, err)
		assert.Equal(t, size, n)

		out, err := dec.Decode(packet)
		require.NoError(t, err)
		require.Len(t, out, size)
		for _, s := range out {
			assert.InDelta(t, 0, s, 64)
		}
	}
}

func TestRoundTrip480FromPacketOnly(t *testing.T) {
	enc, err := NewEncoder(EncoderOptions{Application: AppAudio, Bitrate: 32000, Complexity: 5})
	require.NoError(t, err)
	defer enc.Close()

	buf := pcm.New(4800)
	tone := make([]int16, 480)
	for i := range tone {
		tone[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/pool.SampleRate))
	}
	require.NoError(t, buf.Append(tone))

	packet, err := enc.Encode(buf)
	require.NoError(t, err)
	// Copy out of the encoder scratch before handing to a fresh decoder.
	packet = append([]byte(nil), packet...)

	dec, err := NewDecoder(0)
	require.NoError(t, err)
	defer dec.Close()
	out, err := dec.Decode(packet)
	require.NoError(t, err)
	assert.Len(t, out, 480)
}

func TestRealDecoderRejectsGarbage(t *testing.T) {
	dec, err := NewDecoder(0)
	require.NoError(t, err)
	defer dec.Close()
	_, err = dec.Decode([]byte{})
	assert.ErrorIs(t, err, ErrDecodeFailure)
}
