// Package session drives sending and receiving voice sessions: a Sender
// turns producer bursts into encoded frames on each tick, a Receiver turns
// packets back into PCM for playback.
package session

import (
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/pidato/voice/internal/log"
	"github.com/pidato/voice/pcm"
	"github.com/pidato/voice/pool"
	"github.com/pidato/voice/transcode"
	"github.com/pidato/voice/transport"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

var (
	ErrNotRunning = errors.New("session: not running")
)

// State of a session's lifecycle.
type State uint8

const (
	Stopped State = iota
	Running
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// FrameEncoder is implemented by *transcode.Encoder.
type FrameEncoder interface {
	EncodeFrame(buf *pcm.Buffer) (transcode.OpusFrame, error)
	MinFrameSize() int
	MaxFrameSize() int
	FrameSizes() []int
	// Written is the number of samples encoded over the encoder's life.
	Written() uint64
	Close() error
}

type SenderOptions struct {
	// Capacity of the sample buffer. Defaults to one second.
	Capacity int
	// QueueSize is how many producer chunks may wait for the next tick.
	QueueSize int
	// IdleFlushTicks pads a partial frame after this many ticks without
	// input. 0 disables.
	IdleFlushTicks int
	SessionID      string
	Logger         *slog.Logger
}

type SenderStats struct {
	Frames       uint64
	Samples      uint64 // Encoded, padding included.
	Bytes        uint64
	Padded       uint64 // Silence samples added by flushes.
	Overflow     uint64 // Samples dropped because the buffer was full.
	QueueDropped uint64 // Chunks dropped because the hand-off queue was full.
	SendErrors   uint64
}

// Sender owns one sending session. OnSamplesReady may be called from any
// goroutine; it only enqueues. Start, Stop, Tick and Flush are meant for the
// driver goroutine and are serialized internally.
type Sender struct {
	id     string
	enc    FrameEncoder
	out    transport.PacketSender
	buf    *pcm.Buffer
	queue  chan []int16
	logger *slog.Logger

	idleFlushTicks int
	idleTicks      int

	running      atomic.Bool
	flush        atomic.Bool
	queueDropped atomic.Uint64

	state State
	err   error
	stats SenderStats
	mu    sync.Mutex
}

func NewSender(enc FrameEncoder, out transport.PacketSender, opts SenderOptions) (*Sender, error) {
	if opts.Capacity == 0 {
		opts.Capacity = pool.SampleRate
	}
	if opts.Capacity < enc.MaxFrameSize() {
		return nil, fmt.Errorf("%w: capacity %d below max frame size %d", pool.ErrUnsupported, opts.Capacity, enc.MaxFrameSize())
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	return &Sender{
		id:             opts.SessionID,
		enc:            enc,
		out:            out,
		buf:            pcm.New(opts.Capacity),
		queue:          make(chan []int16, opts.QueueSize),
		idleFlushTicks: opts.IdleFlushTicks,
		logger:         log.Or(opts.Logger).With("session_id", opts.SessionID, "role", "sender"),
	}, nil
}

func (s *Sender) ID() string {
	return s.id
}

func (s *Sender) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Running:
		return nil
	case Failed:
		return s.err
	case Closed:
		return os.ErrClosed
	}
	s.state = Running
	s.running.Store(true)
	s.logger.Info("sender started",
		"capacity", s.buf.Cap(),
		"frame_sizes", s.enc.FrameSizes(),
	)
	return nil
}

// OnSamplesReady hands a capture burst to the session. The chunk is copied;
// the caller may reuse it immediately. Nothing blocks: if the queue is full
// the burst is dropped.
func (s *Sender) OnSamplesReady(chunk []int16) {
	if len(chunk) == 0 || !s.running.Load() {
		return
	}
	c := pool.Chunks.Get(len(chunk))
	copy(c, chunk)
	select {
	case s.queue <- c:
	default:
		pool.Chunks.Release(c)
		if s.queueDropped.Add(1) == 1 {
			s.logger.Warn("hand-off queue full, dropping capture chunks", "samples", len(chunk))
		}
	}
}

// Flush arms a forced flush for the next tick.
func (s *Sender) Flush() {
	s.flush.Store(true)
}

// Tick moves queued input into the buffer, applies the flush policy and
// encodes every frame that fits. An encode failure is fatal: the session
// moves to Failed and the error is returned from then on.
func (s *Sender) Tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Failed:
		return s.err
	case Running:
	default:
		return ErrNotRunning
	}

	received, err := s.drain()
	if err != nil {
		return err
	}
	if err := s.encodeAll(); err != nil {
		return err
	}

	trigger := TriggerNone
	if s.flush.Swap(false) {
		trigger = TriggerForce
	} else if s.idleFlushTicks > 0 {
		s.idleTicks++
		if received > 0 || s.BufferState() != Buffering {
			s.idleTicks = 0
		}
		if s.idleTicks >= s.idleFlushTicks {
			trigger = TriggerIdle
			s.idleTicks = 0
		}
	}
	if trigger == TriggerNone {
		return nil
	}
	if err := s.pad(trigger); err != nil {
		return err
	}
	return s.encodeAll()
}

// Stop flushes whatever is buffered, padding a trailing partial frame, then
// releases the encoder. A stopped Sender cannot be restarted. Stopping a
// Failed session only releases it.
func (s *Sender) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	switch s.state {
	case Closed:
		return os.ErrClosed
	case Running:
		if _, err = s.drain(); err == nil {
			err = s.encodeAll()
		}
		if err == nil {
			if err = s.pad(TriggerStopped); err == nil {
				err = s.encodeAll()
			}
		}
	}
	s.running.Store(false)
	s.buf.Reset()
	s.discardQueue()
	if cerr := s.enc.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close encoder: %w", cerr)
	}
	s.state = Closed
	s.stats.QueueDropped = s.queueDropped.Load()
	s.logger.Info("sender stopped",
		"frames", s.stats.Frames,
		"samples", s.stats.Samples,
		"bytes", s.stats.Bytes,
		"padded", s.stats.Padded,
		"overflow", s.stats.Overflow,
		"queue_dropped", s.stats.QueueDropped,
		"written", s.enc.Written(),
	)
	return err
}

func (s *Sender) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BufferState reports where the sample buffer sits relative to the minimum
// frame size.
func (s *Sender) BufferState() BufferState {
	return StateOf(s.buf.Len(), s.enc.MinFrameSize())
}

// Buffered is the number of samples waiting for a frame.
func (s *Sender) Buffered() int {
	return s.buf.Len()
}

func (s *Sender) Stats() SenderStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.QueueDropped = s.queueDropped.Load()
	return st
}

// drain moves queued chunks into the buffer. A chunk that does not fit
// triggers an encode first so a backlog only overflows what the encoder
// cannot take.
func (s *Sender) drain() (received int, err error) {
	for {
		select {
		case c := <-s.queue:
			if len(c) > s.buf.Available() {
				if err := s.encodeAll(); err != nil {
					pool.Chunks.Release(c)
					return received, err
				}
			}
			n := s.buf.AppendTruncate(c)
			if n < len(c) {
				s.stats.Overflow += uint64(len(c) - n)
				s.logger.Warn("sample buffer full, dropping newest samples",
					"dropped", len(c)-n,
					"capacity", s.buf.Cap(),
				)
			}
			received += len(c)
			pool.Chunks.Release(c)
		default:
			return received, nil
		}
	}
}

func (s *Sender) discardQueue() {
	for {
		select {
		case c := <-s.queue:
			pool.Chunks.Release(c)
		default:
			return
		}
	}
}

func (s *Sender) pad(trigger Trigger) error {
	padded, err := MaybePad(s.buf, trigger, s.enc.MinFrameSize())
	if err != nil {
		return err
	}
	if padded > 0 {
		s.stats.Padded += uint64(padded)
		s.logger.Debug("padded partial frame", "trigger", trigger.String(), "padded", padded)
	}
	return nil
}

func (s *Sender) encodeAll() error {
	for {
		frame, err := s.enc.EncodeFrame(s.buf)
		if err != nil {
			s.state = Failed
			s.err = err
			s.running.Store(false)
			s.logger.Error("encode failed, session unusable", "err", err)
			return err
		}
		if frame.Samples == 0 {
			return nil
		}
		s.stats.Frames++
		s.stats.Samples += uint64(frame.Samples)
		s.stats.Bytes += uint64(len(frame.Data))
		if err := s.out.Send(frame.Data); err != nil {
			s.stats.SendErrors++
			s.logger.Debug("send failed", "seq", frame.Seq, "frame_size", frame.Samples, "err", err)
		}
	}
}
