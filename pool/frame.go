package pool

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnsupported = errors.New("unsupported")
)

// SampleRate and Channels are fixed for the whole pipeline. Every frame size
// below is a sample count at this rate.
const (
	SampleRate = 48000
	Channels   = 1
)

const (
	frameSize48khz2dot5ms int = SampleRate * 25 / 10000
	frameSize48khz5ms     int = SampleRate * 5 / 1000
	frameSize48khz10ms    int = SampleRate * 10 / 1000
	frameSize48khz20ms    int = SampleRate * 20 / 1000
	frameSize48khz40ms    int = SampleRate * 40 / 1000
	frameSize48khz60ms    int = SampleRate * 60 / 1000

	frameSize48khz120ms int = SampleRate * 120 / 1000
)

const (
	MinFrameSize = frameSize48khz2dot5ms
	MaxFrameSize = frameSize48khz60ms

	// MaxPacketSamples is the longest duration a single Opus packet may carry
	// (up to 48 frames, capped at 120ms).
	MaxPacketSamples = frameSize48khz120ms

	// MaxPacketBytes bounds the encoder scratch buffer.
	MaxPacketBytes = MaxFrameSize * 2
)

// FrameSizes returns the supported frame sizes, largest first.
func FrameSizes() []int {
	return []int{
		frameSize48khz60ms,
		frameSize48khz40ms,
		frameSize48khz20ms,
		frameSize48khz10ms,
		frameSize48khz5ms,
		frameSize48khz2dot5ms,
	}
}

// FrameSizeOf maps a packet time in milliseconds to a frame size. 2.5ms is
// written as 3.
func FrameSizeOf(ptime int) int {
	switch ptime {
	case 3:
		return frameSize48khz2dot5ms
	case 5:
		return frameSize48khz5ms
	case 10:
		return frameSize48khz10ms
	case 20:
		return frameSize48khz20ms
	case 40:
		return frameSize48khz40ms
	case 60:
		return frameSize48khz60ms
	}
	return 0
}

func IsFrameSize(samples int) bool {
	switch samples {
	case frameSize48khz2dot5ms,
		frameSize48khz5ms,
		frameSize48khz10ms,
		frameSize48khz20ms,
		frameSize48khz40ms,
		frameSize48khz60ms:
		return true
	}
	return false
}

// Duration of n samples at SampleRate.
func Duration(samples int) time.Duration {
	return time.Duration(samples) * time.Second / SampleRate
}

// ValidateFrameSizes checks that sizes is non-empty, strictly descending and
// made only of frame sizes the codec accepts.
func ValidateFrameSizes(sizes []int) error {
	if len(sizes) == 0 {
		return fmt.Errorf("%w: empty frame size set", ErrUnsupported)
	}
	for i, s := range sizes {
		if !IsFrameSize(s) {
			return fmt.Errorf("%w: frame size %d", ErrUnsupported, s)
		}
		if i > 0 && s >= sizes[i-1] {
			return fmt.Errorf("%w: frame sizes must be strictly descending (%d after %d)", ErrUnsupported, s, sizes[i-1])
		}
	}
	return nil
}

// Select picks the largest frame size that fits in filled samples. sizes must
// be in descending order. ok is false when even the smallest size does not fit.
func Select(filled int, sizes []int) (size int, ok bool) {
	for _, s := range sizes {
		if s <= filled {
			return s, true
		}
	}
	return 0, false
}
