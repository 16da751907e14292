package sequence

import (
	"math/rand/v2"
	"time"
)

// WarmupFunc draws the warm-up period for a given seed. The draw must be
// a pure function of the seed: the same seed always yields the same
// period, while successive poll ticks vary the timing race to race.
type WarmupFunc func(seed uint64) time.Duration

// NewWarmupDraw returns a drawer producing whole-second periods
// uniformly distributed in [min, max).
func NewWarmupDraw(min, max time.Duration) WarmupFunc {
	span := uint64((max - min) / time.Second)

	return func(seed uint64) time.Duration {
		if span == 0 {
			return min
		}

		r := rand.New(rand.NewPCG(seed, seed))

		return min + time.Duration(r.Uint64N(span))*time.Second
	}
}
