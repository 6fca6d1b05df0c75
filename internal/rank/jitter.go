package rank

import (
	"math/rand"
	"sync"
)

// JitterSource supplies the bounded random term mixed into dataset scores.
// Isolating the draw behind an interface keeps the rest of the formula pure:
// production uses a seeded math/rand source, tests inject a fixed value and
// assert on ordering and bounds only.
type JitterSource interface {
	// Jitter returns a value in [0, MaxJitter).
	Jitter() float64
}

type randomJitter struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomJitter returns the production jitter source, seeded from seed.
// Safe for concurrent use.
func NewRandomJitter(seed int64) JitterSource {
	return &randomJitter{rnd: rand.New(rand.NewSource(seed))}
}

func (j *randomJitter) Jitter() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rnd.Float64() * MaxJitter
}

// FixedJitter always returns its value. Test helper: a zero FixedJitter makes
// DatasetScore fully deterministic.
type FixedJitter float64

func (f FixedJitter) Jitter() float64 { return float64(f) }
