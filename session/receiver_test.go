package session

import (
	"errors"
	"github.com/pidato/voice/internal/log"
	"github.com/pidato/voice/opus"
	"github.com/pidato/voice/transcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"testing"
)

// tocDecoder returns silence of whatever length the packet's TOC announces.
type tocDecoder struct {
	buf    [2880]int16
	closed bool
}

func (d *tocDecoder) Decode(packet []byte) ([]int16, error) {
	n, err := opus.PacketSamples(packet)
	if err != nil {
		return nil, errors.Join(transcode.ErrDecodeFailure, err)
	}
	return d.buf[:n], nil
}

func (d *tocDecoder) Close() error {
	d.closed = true
	return nil
}

type sink struct {
	chunks []int
	err    error
}

func (s *sink) Enqueue(pcm []int16) error {
	if s.err != nil {
		return s.err
	}
	s.chunks = append(s.chunks, len(pcm))
	return nil
}

func newTestReceiver(dec FrameDecoder, out Playback) *Receiver {
	return NewReceiver(dec, out, ReceiverOptions{Logger: log.Discard()})
}

func TestReceiverDecodesToPlayback(t *testing.T) {
	out := &sink{}
	r := newTestReceiver(&tocDecoder{}, out)

	require.NoError(t, r.OnPacket([]byte{18 << 3, 1}))  // 10ms
	require.NoError(t, r.OnPacket([]byte{3 << 3, 1, 2})) // 60ms
	assert.Equal(t, []int{480, 2880}, out.chunks)

	st := r.Stats()
	assert.Equal(t, uint64(2), st.Packets)
	assert.Equal(t, uint64(3360), st.Samples)
}

func TestReceiverDropsBadPacketAndContinues(t *testing.T) {
	out := &sink{}
	r := newTestReceiver(&tocDecoder{}, out)

	require.NoError(t, r.OnPacket([]byte{16 << 3}))
	err := r.OnPacket(nil)
	assert.ErrorIs(t, err, transcode.ErrDecodeFailure)
	require.NoError(t, r.OnPacket([]byte{16 << 3}))

	assert.Equal(t, []int{120, 120}, out.chunks)
	assert.Equal(t, uint64(1), r.Stats().Dropped)
}

func TestReceiverWrapsForeignDecodeErrors(t *testing.T) {
	dec := decodeFunc(func([]byte) ([]int16, error) { return nil, errors.New("boom") })
	r := newTestReceiver(dec, &sink{})
	assert.ErrorIs(t, r.OnPacket([]byte{1}), transcode.ErrDecodeFailure)
}

func TestReceiverPlaybackError(t *testing.T) {
	full := errors.New("full")
	r := newTestReceiver(&tocDecoder{}, &sink{err: full})
	err := r.OnPacket([]byte{16 << 3})
	assert.ErrorIs(t, err, full)
	assert.NotErrorIs(t, err, transcode.ErrDecodeFailure)
	assert.Equal(t, uint64(1), r.Stats().PlaybackErrors)
}

func TestReceiverClose(t *testing.T) {
	dec := &tocDecoder{}
	r := newTestReceiver(dec, &sink{})
	require.NoError(t, r.Close())
	assert.True(t, dec.closed)
	assert.ErrorIs(t, r.Close(), os.ErrClosed)
	assert.ErrorIs(t, r.OnPacket([]byte{16 << 3}), os.ErrClosed)
}

type decodeFunc func([]byte) ([]int16, error)

func (f decodeFunc) Decode(p []byte) ([]int16, error) { return f(p) }
func (f decodeFunc) Close() error                     { return nil }
