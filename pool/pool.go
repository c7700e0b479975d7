package pool

import (
	"github.com/gobwas/pool/pbytes"
	"sync"
)

// PCM recycles sample chunks of varying length. Chunks handed back with a
// capacity below MinCap are dropped.
type PCM struct {
	MinCap int
	pool   sync.Pool
}

// Chunks is shared by capture hand-off queues.
var Chunks = &PCM{MinCap: MaxFrameSize}

func (p *PCM) Get(n int) []int16 {
	if v := p.pool.Get(); v != nil {
		b := v.([]int16)
		if cap(b) >= n {
			return b[:n]
		}
	}
	c := n
	if c < p.MinCap {
		c = p.MinCap
	}
	return make([]int16, n, c)
}

func (p *PCM) Release(pcm []int16) {
	if cap(pcm) < p.MinCap {
		return
	}
	p.pool.Put(pcm[:0])
}

// GetBytes returns a pooled byte slice of length n.
func GetBytes(n int) []byte {
	return pbytes.GetLen(n)
}

func PutBytes(b []byte) {
	pbytes.Put(b)
}

// CopyBytes returns a pooled copy of b. Release it with PutBytes.
func CopyBytes(b []byte) []byte {
	c := pbytes.GetLen(len(b))
	copy(c, b)
	return c
}
