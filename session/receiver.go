package session

import (
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/pidato/voice/internal/log"
	"github.com/pidato/voice/transcode"
	"log/slog"
	"os"
	"sync"
)

// Playback consumes decoded audio. The slice is only valid for the duration
// of the call; implementations that keep samples must copy them.
type Playback interface {
	Enqueue(pcm []int16) error
}

type PlaybackFunc func(pcm []int16) error

func (f PlaybackFunc) Enqueue(pcm []int16) error {
	return f(pcm)
}

// FrameDecoder is implemented by *transcode.Decoder.
type FrameDecoder interface {
	Decode(packet []byte) ([]int16, error)
	Close() error
}

type ReceiverOptions struct {
	SessionID string
	Logger    *slog.Logger
}

type ReceiverStats struct {
	Packets        uint64
	Dropped        uint64
	Samples        uint64
	PlaybackErrors uint64
}

// Receiver decodes packets from one sender and hands the audio to playback.
// A packet that fails to decode is logged and dropped; the next packet is
// unaffected.
type Receiver struct {
	id     string
	dec    FrameDecoder
	out    Playback
	logger *slog.Logger

	stats  ReceiverStats
	closed bool
	mu     sync.Mutex
}

func NewReceiver(dec FrameDecoder, out Playback, opts ReceiverOptions) *Receiver {
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	return &Receiver{
		id:     opts.SessionID,
		dec:    dec,
		out:    out,
		logger: log.Or(opts.Logger).With("session_id", opts.SessionID, "role", "receiver"),
	}
}

func (r *Receiver) ID() string {
	return r.id
}

// OnPacket decodes one packet. Decode failures are returned wrapped in
// transcode.ErrDecodeFailure so callers can tell them apart and carry on.
func (r *Receiver) OnPacket(packet []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return os.ErrClosed
	}
	r.stats.Packets++

	samples, err := r.dec.Decode(packet)
	if err != nil {
		r.stats.Dropped++
		r.logger.Warn("dropping packet", "bytes", len(packet), "err", err)
		if !errors.Is(err, transcode.ErrDecodeFailure) {
			err = fmt.Errorf("%w: %v", transcode.ErrDecodeFailure, err)
		}
		return err
	}
	r.stats.Samples += uint64(len(samples))

	if err := r.out.Enqueue(samples); err != nil {
		r.stats.PlaybackErrors++
		return fmt.Errorf("playback: %w", err)
	}
	return nil
}

func (r *Receiver) Stats() ReceiverStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Receiver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return os.ErrClosed
	}
	r.closed = true
	r.logger.Info("receiver closed",
		"packets", r.stats.Packets,
		"dropped", r.stats.Dropped,
		"samples", r.stats.Samples,
	)
	return r.dec.Close()
}
