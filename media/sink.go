package media

import (
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pidato/voice/pool"
	"os"
	"sync"
)

// WAVSink writes played-back audio to a mono 16-bit wav file.
type WAVSink struct {
	f       *os.File
	enc     *wav.Encoder
	buf     *audio.IntBuffer
	samples int
	mu      sync.Mutex
}

func CreateWAV(path string) (*WAVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &WAVSink{
		f:   f,
		enc: wav.NewEncoder(f, pool.SampleRate, 16, pool.Channels, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: pool.Channels, SampleRate: pool.SampleRate},
			SourceBitDepth: 16,
		},
	}, nil
}

func (s *WAVSink) Enqueue(pcm []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.buf.Data[:0]
	for _, v := range pcm {
		data = append(data, int(v))
	}
	s.buf.Data = data
	s.samples += len(pcm)
	return s.enc.Write(s.buf)
}

// Samples written so far.
func (s *WAVSink) Samples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}

func (s *WAVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Close(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
