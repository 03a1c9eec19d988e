package classifier

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Fake guesses a confidence uniformly in [0, 100) and compares it to the threshold.
type Fake struct {
	// rng draws the confidences.
	rng *rand.Rand
	// mu protects rng.
	mu sync.Mutex
}

// NewFake returns a fake classifier. A zero seed picks one from the clock.
func NewFake(seed uint64) *Fake {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // Not used for security.
	}

	return &Fake{
		rng: rand.New(rand.NewPCG(seed, seed>>1|1)), //nolint:gosec // Not used for security.
	}
}

// ContainsCat ignores the image and reports a random verdict.
func (f *Fake) ContainsCat(_ context.Context, _ []byte, confidenceThreshold float32) (bool, error) {
	f.mu.Lock()
	confidence := f.rng.Float32() * 100
	f.mu.Unlock()

	return confidence >= confidenceThreshold, nil
}
