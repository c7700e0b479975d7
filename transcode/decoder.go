package transcode

import (
	"fmt"
	"github.com/pidato/voice/opus"
	"github.com/pidato/voice/pool"
	libopus "gopkg.in/hraban/opus.v2"
	"os"
	"sync"
)

// Decoder reconstructs PCM from self-describing Opus packets. Each call is
// independent of the last as far as framing goes: a bad packet is reported
// and the next one decodes normally.
type Decoder struct {
	decoder     frameDecoder
	frameBuffer []int16

	decoded uint64 // Samples.
	packets uint64
	dropped uint64

	closed bool
	mu     sync.Mutex
}

// NewDecoder sizes its output buffer for maxFrameSize samples. 0 means
// pool.MaxFrameSize.
func NewDecoder(maxFrameSize int) (*Decoder, error) {
	dec, err := libopus.NewDecoder(pool.SampleRate, pool.Channels)
	if err != nil {
		return nil, err
	}
	return newDecoder(dec, maxFrameSize)
}

func newDecoder(dec frameDecoder, maxFrameSize int) (*Decoder, error) {
	if maxFrameSize == 0 {
		maxFrameSize = pool.MaxFrameSize
	}
	if maxFrameSize < pool.MinFrameSize || maxFrameSize > pool.MaxPacketSamples {
		return nil, fmt.Errorf("%w: decode buffer of %d samples", pool.ErrUnsupported, maxFrameSize)
	}
	return &Decoder{
		decoder:     dec,
		frameBuffer: make([]int16, maxFrameSize),
	}, nil
}

// Decode returns the samples carried by packet. The slice aliases an internal
// buffer and is only valid until the next call. Failures wrap
// ErrDecodeFailure.
func (d *Decoder) Decode(packet []byte) ([]int16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, os.ErrClosed
	}
	d.packets++

	samples, err := opus.PacketSamples(packet)
	if err != nil {
		d.dropped++
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	if samples > len(d.frameBuffer) {
		d.dropped++
		return nil, fmt.Errorf("%w: packet of %d samples exceeds buffer of %d", ErrDecodeFailure, samples, len(d.frameBuffer))
	}

	n, err := d.decoder.Decode(packet, d.frameBuffer[:samples])
	if err != nil {
		d.dropped++
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	// Concealment may return fewer samples, never more.
	if n < 0 || n > samples {
		d.dropped++
		return nil, fmt.Errorf("%w: %w: decoded %d of %d samples", ErrDecodeFailure, ErrCorrupted, n, samples)
	}

	d.decoded += uint64(n)
	return d.frameBuffer[:n], nil
}

type DecoderStats struct {
	Packets uint64
	Dropped uint64
	Samples uint64
}

func (d *Decoder) Stats() DecoderStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DecoderStats{
		Packets: d.packets,
		Dropped: d.dropped,
		Samples: d.decoded,
	}
}

// MaxFrameSize is the largest packet duration Decode accepts.
func (d *Decoder) MaxFrameSize() int {
	return len(d.frameBuffer)
}

func (d *Decoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return os.ErrClosed
	}
	d.closed = true
	d.frameBuffer = nil
	return nil
}
