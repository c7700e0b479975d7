// Package pcm holds the sample accumulation buffer that sits between an
// audio producer and the encoder.
package pcm

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrCapacityExceeded = errors.New("pcm: capacity exceeded")
	ErrInsufficientData = errors.New("pcm: insufficient data")
)

// Buffer is a fixed capacity append/consume buffer of 16-bit samples. Data
// always starts at offset 0: Consume shifts the remainder to the front.
// It never grows past the capacity given to New.
type Buffer struct {
	data   []int16
	filled int
	mu     sync.Mutex
}

func New(capacity int) *Buffer {
	if capacity <= 0 {
		panic(fmt.Sprintf("pcm: invalid capacity %d", capacity))
	}
	return &Buffer{data: make([]int16, capacity)}
}

// Append copies samples to the end of the buffer. If they do not all fit
// nothing is written and ErrCapacityExceeded is returned.
func (b *Buffer) Append(samples []int16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.filled+len(samples) > len(b.data) {
		return fmt.Errorf("%w: %d + %d > %d", ErrCapacityExceeded, b.filled, len(samples), len(b.data))
	}
	b.filled += copy(b.data[b.filled:], samples)
	return nil
}

// AppendTruncate writes as many samples as fit and drops the rest.
func (b *Buffer) AppendTruncate(samples []int16) (written int) {
	b.mu.Lock()
	n := copy(b.data[b.filled:], samples)
	b.filled += n
	b.mu.Unlock()
	return n
}

// Pad appends n zero samples.
func (b *Buffer) Pad(n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n < 0 || b.filled+n > len(b.data) {
		return fmt.Errorf("%w: pad %d with %d of %d used", ErrCapacityExceeded, n, b.filled, len(b.data))
	}
	silence := b.data[b.filled : b.filled+n]
	for i := range silence {
		silence[i] = 0
	}
	b.filled += n
	return nil
}

// Consume drops the first n samples.
func (b *Buffer) Consume(n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n < 0 || n > b.filled {
		return fmt.Errorf("%w: consume %d of %d", ErrInsufficientData, n, b.filled)
	}
	copy(b.data, b.data[n:b.filled])
	b.filled -= n
	return nil
}

// Samples returns the filled region. The slice aliases internal storage and
// is only valid until the next mutating call.
func (b *Buffer) Samples() []int16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data[:b.filled]
}

// Len is the filled length.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filled
}

func (b *Buffer) Cap() int {
	return len(b.data)
}

// Available is the number of samples that can still be appended.
func (b *Buffer) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data) - b.filled
}

// Reset discards all buffered samples.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.filled = 0
	b.mu.Unlock()
}
