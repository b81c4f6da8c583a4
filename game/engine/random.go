package engine

import (
	"math/rand/v2"
	"sync"
)

// Source supplies uniform random integers in [0, n) to the shuffler
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n)
}

// DefaultSource returns a Source backed by the process-wide generator. It is safe for
// concurrent use.
func DefaultSource() Source {
	return globalSource{}
}

// NewSeededSource returns a deterministic Source. It is not safe for concurrent use.
func NewSeededSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type lockedSource struct {
	mu  sync.Mutex
	src Source
}

// NewLockedSource wraps src so it can be shared by engines on different goroutines
func NewLockedSource(src Source) Source {
	return &lockedSource{src: src}
}

func (l *lockedSource) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}
