package service

import (
	"math/rand/v2"
	"sync"
)

// Shuffler produces uniform random permutations of [0, n).
type Shuffler interface {
	Perm(n int) []int
}

type randomShuffler struct{}

// NewRandomShuffler draws from the process wide source, so every call yields an independent order.
func NewRandomShuffler() Shuffler {
	return randomShuffler{}
}

func (randomShuffler) Perm(n int) []int {
	return rand.Perm(n)
}

type seededShuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededShuffler returns a deterministic Shuffler.
func NewSeededShuffler(seed uint64) Shuffler {
	return &seededShuffler{rng: rand.New(rand.NewPCG(seed, seed))}
}

func (s *seededShuffler) Perm(n int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Perm(n)
}
