// apps/go-server/internal/rng/rng.go
//
// Seedable random source shared by the round picker and the imagery resolver.
// math/rand/v2 generators are not safe for concurrent use, so Source serializes
// access with a mutex; tests build one from a fixed seed for deterministic picks.

package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Rand is the subset of math/rand/v2 used by the game.
type Rand interface {
	IntN(n int) int
}

// Source is a concurrency-safe PCG generator.
type Source struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a deterministic source for the given seed.
func New(seed uint64) *Source {
	return &Source{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandom returns a source seeded from crypto/rand.
func NewRandom() *Source {
	var b [8]byte
	_, _ = crand.Read(b[:])
	return New(binary.LittleEndian.Uint64(b[:]))
}

// IntN returns a uniform value in [0, n). It panics if n <= 0.
func (s *Source) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}
