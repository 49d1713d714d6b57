package backoff

import "time"

// Calculator provides backoff calculation through a configurable strategy.
type Calculator struct {
	strategy Strategy
}

// NewCalculator creates a calculator using the given strategy.
func NewCalculator(strategy Strategy) *Calculator {
	return &Calculator{strategy: strategy}
}

// NewExponentialJitterCalculator returns a calculator for the default
// exponential-with-jitter policy.
func NewExponentialJitterCalculator() *Calculator {
	return NewCalculator(ExponentialJitterStrategy{})
}

// Calculate computes the delay before the given retry attempt.
func (c *Calculator) Calculate(attempt int, initial, max time.Duration, multiplier float64, jitterCap time.Duration) time.Duration {
	return c.strategy.Calculate(attempt, initial, max, multiplier, jitterCap)
}

// SetStrategy swaps the strategy at runtime.
func (c *Calculator) SetStrategy(strategy Strategy) {
	c.strategy = strategy
}
