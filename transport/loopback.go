package transport

import (
	"github.com/pidato/voice/opus"
	"github.com/pidato/voice/pool"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Loopback is an in-process transport. Send copies each packet into a pooled
// buffer and queues it; ReadPacket returns them in order. It satisfies both
// PacketSender and opus.Reader.
type Loopback struct {
	packets chan []byte
	done    chan struct{}
	block   bool

	dropped atomic.Uint64

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

var (
	_ PacketSender  = (*Loopback)(nil)
	_ opus.Reader   = (*Loopback)(nil)
	_ opus.Releaser = (*Loopback)(nil)
)

// NewLoopback queues up to size packets. When block is false a full queue
// drops the packet and Send returns ErrQueueFull.
func NewLoopback(size int, block bool) *Loopback {
	return &Loopback{
		packets: make(chan []byte, size),
		done:    make(chan struct{}),
		block:   block,
	}
}

func (l *Loopback) Send(packet []byte) error {
	c := pool.CopyBytes(packet)

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		pool.PutBytes(c)
		return os.ErrClosed
	}
	if l.block {
		select {
		case l.packets <- c:
			return nil
		case <-l.done:
			pool.PutBytes(c)
			return os.ErrClosed
		}
	}
	select {
	case l.packets <- c:
		return nil
	default:
		pool.PutBytes(c)
		l.dropped.Add(1)
		return ErrQueueFull
	}
}

// ReadPacket blocks for the next packet. Packets queued before Close are
// still delivered, then io.EOF. Hand packets back with Release.
func (l *Loopback) ReadPacket() ([]byte, error) {
	p, ok := <-l.packets
	if !ok {
		return nil, io.EOF
	}
	return p, nil
}

func (l *Loopback) Release(packet []byte) {
	pool.PutBytes(packet)
}

// Dropped counts packets lost to a full queue.
func (l *Loopback) Dropped() uint64 {
	return l.dropped.Load()
}

func (l *Loopback) Close() error {
	err := os.ErrClosed
	l.closeOnce.Do(func() {
		close(l.done)
		l.mu.Lock()
		l.closed = true
		close(l.packets)
		l.mu.Unlock()
		err = nil
	})
	return err
}
