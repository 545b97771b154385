// Package rng isolates every random decision the games make (board shuffles,
// stimulus delays, question operands) behind a seedable Source.
package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Source yields uniform random values.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n). n must be positive.
	IntN(n int) int
}

// PCG is a seeded math/rand/v2 source safe for concurrent use.
type PCG struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewPCG builds a PCG source from seed. Equal seeds give equal sequences.
func NewPCG(seed uint64) *PCG {
	return &PCG{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// New returns a PCG source seeded from seed, or from crypto/rand when seed is 0.
func New(seed uint64) *PCG {
	if seed == 0 {
		seed = NewSeed()
	}
	return NewPCG(seed)
}

// NewSeed reads a seed from crypto/rand.
func NewSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// crypto/rand.Read does not fail on supported platforms.
		panic(err)
	}
	return binary.LittleEndian.Uint64(b[:])
}

func (p *PCG) Float64() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.Float64()
}

func (p *PCG) IntN(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.IntN(n)
}

// Sequence replays a fixed list of floats, wrapping around at the end.
// Tests use it to pin exact shuffles and delays.
type Sequence struct {
	mu     sync.Mutex
	floats []float64
	pos    int
}

// NewSequence returns a Sequence over floats. Values should lie in [0, 1).
func NewSequence(floats ...float64) *Sequence {
	if len(floats) == 0 {
		floats = []float64{0}
	}
	return &Sequence{floats: floats}
}

func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.floats[s.pos%len(s.floats)]
	s.pos++
	return f
}

func (s *Sequence) IntN(n int) int {
	return scale(s.Float64(), n)
}

// scale maps f in [0, 1) to [0, n), clamping rounding at the top edge.
func scale(f float64, n int) int {
	i := int(f * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Shuffle performs an unbiased Fisher-Yates shuffle of n elements.
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		swap(i, j)
	}
}

// Between returns an integer in [lo, hi].
func Between(src Source, lo, hi int) int {
	return lo + src.IntN(hi-lo+1)
}
