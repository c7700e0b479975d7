package transcode

import (
	"fmt"
	"github.com/pidato/voice/pcm"
	"github.com/pidato/voice/pool"
	libopus "gopkg.in/hraban/opus.v2"
	"os"
	"sync"
)

type EncoderOptions struct {
	// FrameSizes to choose from, largest first. Defaults to pool.FrameSizes().
	FrameSizes  []int
	Application Application
	// Bitrate in bits per second. 0 keeps the codec default.
	Bitrate int
	// Complexity 1-10. 0 keeps the codec default.
	Complexity int
}

// Encoder drains a pcm.Buffer one frame at a time. It picks the largest
// supported frame that the buffered samples can fill. Codec state persists
// across calls for the life of the Encoder.
type Encoder struct {
	frameSizes []int
	encoder    frameEncoder
	buffer     []byte // Scratch. Returned slices alias it.

	seq     uint64
	written uint64 // Samples encoded so far.

	failed error
	closed bool
	mu     sync.Mutex
}

func NewEncoder(opts EncoderOptions) (*Encoder, error) {
	app, err := opts.Application.opus()
	if err != nil {
		return nil, err
	}
	enc, err := libopus.NewEncoder(pool.SampleRate, pool.Channels, app)
	if err != nil {
		return nil, err
	}
	if opts.Bitrate > 0 {
		if err := enc.SetBitrate(opts.Bitrate); err != nil {
			return nil, fmt.Errorf("set bitrate %d: %w", opts.Bitrate, err)
		}
	}
	if opts.Complexity > 0 {
		if err := enc.SetComplexity(opts.Complexity); err != nil {
			return nil, fmt.Errorf("set complexity %d: %w", opts.Complexity, err)
		}
	}
	return newEncoder(enc, opts.FrameSizes)
}

func newEncoder(enc frameEncoder, frameSizes []int) (*Encoder, error) {
	if len(frameSizes) == 0 {
		frameSizes = pool.FrameSizes()
	}
	if err := pool.ValidateFrameSizes(frameSizes); err != nil {
		return nil, err
	}
	sizes := make([]int, len(frameSizes))
	copy(sizes, frameSizes)
	return &Encoder{
		frameSizes: sizes,
		encoder:    enc,
		buffer:     pool.GetBytes(pool.MaxPacketBytes),
	}, nil
}

func (e *Encoder) FrameSizes() []int {
	return e.frameSizes
}

func (e *Encoder) MinFrameSize() int {
	return e.frameSizes[len(e.frameSizes)-1]
}

func (e *Encoder) MaxFrameSize() int {
	return e.frameSizes[0]
}

// Encode compresses the largest frame available in buf and consumes it.
// It returns nil, nil when buf holds less than the minimum frame size. The
// returned bytes are only valid until the next call.
func (e *Encoder) Encode(buf *pcm.Buffer) ([]byte, error) {
	frame, err := e.EncodeFrame(buf)
	return frame.Data, err
}

// EncodeFrame is Encode plus stream position. A zero OpusFrame means no frame
// fit.
func (e *Encoder) EncodeFrame(buf *pcm.Buffer) (OpusFrame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return OpusFrame{}, os.ErrClosed
	}
	if e.failed != nil {
		return OpusFrame{}, e.failed
	}

	size, ok := pool.Select(buf.Len(), e.frameSizes)
	if !ok {
		return OpusFrame{}, nil
	}

	n, err := e.encoder.Encode(buf.Samples()[:size], e.buffer)
	if err != nil {
		e.failed = fmt.Errorf("%w: %v", ErrEncoderFailed, err)
		return OpusFrame{}, fmt.Errorf("%w: %d samples: %v", ErrEncodeFailure, size, err)
	}
	if err := buf.Consume(size); err != nil {
		// Select guarantees size <= Len. Reaching this means someone else is
		// consuming the same buffer.
		e.failed = fmt.Errorf("%w: %v", ErrEncoderFailed, err)
		return OpusFrame{}, err
	}

	frame := OpusFrame{
		Seq:     e.seq,
		Pos:     e.written,
		Samples: uint16(size),
		Data:    e.buffer[:n],
	}
	e.seq++
	e.written += uint64(size)
	return frame, nil
}

// Written is the number of samples encoded so far.
func (e *Encoder) Written() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.written
}

func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return os.ErrClosed
	}
	e.closed = true
	if e.buffer != nil {
		pool.PutBytes(e.buffer)
		e.buffer = nil
	}
	return nil
}
