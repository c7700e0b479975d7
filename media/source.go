package media

import (
	"math/rand"
)

// Bursts replays samples in chunks of pseudo-random length, the way a
// capture device hands them over.
type Bursts struct {
	samples  []int16
	pos      int
	min, max int
	rnd      *rand.Rand
}

func NewBursts(samples []int16, min, max int, seed int64) *Bursts {
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	return &Bursts{
		samples: samples,
		min:     min,
		max:     max,
		rnd:     rand.New(rand.NewSource(seed)),
	}
}

// Next returns the next chunk, or nil once everything has been replayed.
func (b *Bursts) Next() []int16 {
	if b.pos >= len(b.samples) {
		return nil
	}
	n := b.min + b.rnd.Intn(b.max-b.min+1)
	end := b.pos + n
	if end > len(b.samples) {
		end = len(b.samples)
	}
	chunk := b.samples[b.pos:end]
	b.pos = end
	return chunk
}

func (b *Bursts) Remaining() int {
	return len(b.samples) - b.pos
}
