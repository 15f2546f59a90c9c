// Package pacing provides jittered delays between externally observable
// actions. Fixed intervals between searches, clicks and submissions form a
// detectable timing signature; the jitter randomizes timing only and never
// affects ordering or correctness.
package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Sleeper produces randomized delays around a base duration. Safe for
// concurrent use: one Sleeper is shared by all orchestrator workers.
type Sleeper struct {
	frac float64
	mu   sync.Mutex
	rng  *rand.Rand
}

// New creates a Sleeper with the given jitter fraction. frac 0.4 means a
// 2s base becomes 1.2s-2.8s. Fractions outside [0, 1) fall back to 0.
func New(frac float64) *Sleeper {
	if frac < 0 || frac >= 1 {
		frac = 0
	}
	return &Sleeper{
		frac: frac,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Jitter returns base scaled by a random factor in [1-frac, 1+frac].
func (s *Sleeper) Jitter(base time.Duration) time.Duration {
	if base <= 0 || s.frac == 0 {
		return base
	}
	s.mu.Lock()
	f := s.rng.Float64()
	s.mu.Unlock()
	factor := 1 + (f*2-1)*s.frac
	return time.Duration(float64(base) * factor)
}

// Sleep blocks for a jittered duration around base, or until ctx is done.
func (s *Sleeper) Sleep(ctx context.Context, base time.Duration) error {
	d := s.Jitter(base)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
