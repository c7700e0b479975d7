package transport

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"os"
	"testing"
	"time"
)

func TestLoopbackCopiesAndOrders(t *testing.T) {
	l := NewLoopback(4, false)

	scratch := []byte{1, 2, 3}
	require.NoError(t, l.Send(scratch))
	scratch[0] = 9
	require.NoError(t, l.Send(scratch[:2]))

	p, err := l.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, p)
	l.Release(p)

	p, err = l.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 2}, p)
}

func TestLoopbackFullDrops(t *testing.T) {
	l := NewLoopback(1, false)
	require.NoError(t, l.Send([]byte{1}))
	assert.ErrorIs(t, l.Send([]byte{2}), ErrQueueFull)
	assert.Equal(t, uint64(1), l.Dropped())
}

func TestLoopbackCloseDrainsThenEOF(t *testing.T) {
	l := NewLoopback(2, false)
	require.NoError(t, l.Send([]byte{1}))
	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Close(), os.ErrClosed)
	assert.ErrorIs(t, l.Send([]byte{2}), os.ErrClosed)

	p, err := l.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, p)

	_, err = l.ReadPacket()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLoopbackBlockingUnblocksOnClose(t *testing.T) {
	l := NewLoopback(1, true)
	require.NoError(t, l.Send([]byte{1}))

	errc := make(chan error, 1)
	go func() { errc <- l.Send([]byte{2}) }()

	select {
	case <-errc:
		t.Fatal("send should block on a full queue")
	case <-time.After(20 * time.Millisecond):
	}
	require.NoError(t, l.Close())
	assert.ErrorIs(t, <-errc, os.ErrClosed)
}
