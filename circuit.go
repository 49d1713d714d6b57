package agentui

import (
	"sync/atomic"
	"time"
)

// CircuitState is the breaker position.
type CircuitState int64

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

// CircuitBreakerConfig tunes the breaker. Zero fields get defaults.
type CircuitBreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	SuccessThreshold int
}

// CircuitBreaker fails calls fast while the backend is unhealthy. Lock-free;
// safe for concurrent use.
type CircuitBreaker struct {
	config      CircuitBreakerConfig
	state       atomic.Int64
	failures    atomic.Int64
	successes   atomic.Int64
	lastFailure atomic.Int64
}

// NewCircuitBreaker creates a breaker, applying defaults for zero config
// fields (5 failures to open, 60s recovery, 2 successes to close).
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 2
	}
	return &CircuitBreaker{config: config}
}

// Allow reports whether a call may proceed, transitioning open to
// half-open after the recovery timeout.
func (cb *CircuitBreaker) Allow() bool {
	now := time.Now().UnixNano()
	switch CircuitState(cb.state.Load()) {
	case StateClosed:
		return true
	case StateOpen:
		if now-cb.lastFailure.Load() >= int64(cb.config.RecoveryTimeout) {
			if cb.state.CompareAndSwap(int64(StateOpen), int64(StateHalfOpen)) {
				cb.successes.Store(0)
				return true
			}
		}
		return false
	case StateHalfOpen:
		return true
	default:
		return false
	}
}

// RecordFailure notes a failed call; enough failures open the circuit, and
// any failure while half-open reopens it.
func (cb *CircuitBreaker) RecordFailure() {
	cb.lastFailure.Store(time.Now().UnixNano())

	switch CircuitState(cb.state.Load()) {
	case StateClosed:
		if cb.failures.Add(1) >= int64(cb.config.FailureThreshold) {
			cb.state.Store(int64(StateOpen))
		}
	case StateHalfOpen:
		cb.state.Store(int64(StateOpen))
		cb.successes.Store(0)
	}
}

// RecordSuccess notes a successful call; enough successes while half-open
// close the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	if CircuitState(cb.state.Load()) != StateHalfOpen {
		return
	}
	if cb.successes.Add(1) >= int64(cb.config.SuccessThreshold) {
		cb.state.Store(int64(StateClosed))
		cb.failures.Store(0)
		cb.successes.Store(0)
	}
}

// State returns the current breaker position.
func (cb *CircuitBreaker) State() CircuitState {
	return CircuitState(cb.state.Load())
}
