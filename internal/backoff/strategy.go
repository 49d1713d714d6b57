// Package backoff centralizes retry delay calculation for the client.
package backoff

import (
	"math/rand"
	"time"
)

// Strategy computes the delay to wait before retry attempt n (0-based).
type Strategy interface {
	Calculate(attempt int, initial, max time.Duration, multiplier float64, jitterCap time.Duration) time.Duration
}

// ExponentialJitterStrategy grows the delay geometrically, caps it at max,
// then adds uniform random jitter in [0, jitterCap) to desynchronize
// concurrent clients retrying against the same endpoint.
type ExponentialJitterStrategy struct{}

// Calculate returns min(initial * multiplier^attempt, max) plus bounded jitter.
func (ExponentialJitterStrategy) Calculate(attempt int, initial, max time.Duration, multiplier float64, jitterCap time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if multiplier <= 0 {
		multiplier = 1
	}

	delay := float64(initial)
	for i := 0; i < attempt; i++ {
		delay *= multiplier
		if max > 0 && delay >= float64(max) {
			delay = float64(max)
			break
		}
	}
	if max > 0 && delay > float64(max) {
		delay = float64(max)
	}

	d := time.Duration(delay)
	if jitterCap > 0 {
		d += time.Duration(rand.Int63n(int64(jitterCap)))
	}
	return d
}

// ConstantStrategy always returns the initial delay. Useful in tests and for
// callers that want predictable pacing.
type ConstantStrategy struct{}

func (ConstantStrategy) Calculate(_ int, initial, _ time.Duration, _ float64, _ time.Duration) time.Duration {
	return initial
}
