package agentui

import (
	"net/http"
	"sync/atomic"
	"time"
)

// RetryCondition decides whether a settled attempt should be retried.
// Either status or err is set, never both; cancellation and timeouts are
// classified before this is consulted.
type RetryCondition func(status int, err error) bool

// DefaultRetryCondition retries transport failures and 429/5xx responses.
// Every other non-2xx status is terminal.
func DefaultRetryCondition(status int, err error) bool {
	if err != nil {
		return true
	}
	return retryableStatus(status)
}

// RetryConfig overrides the client's retry parameters for one request.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// RequestConfig carries per-request options. A nil config means GET with
// client defaults; coalescing is on unless SkipDeduplication is set.
type RequestConfig struct {
	Method  string
	Headers map[string]string
	Body    []byte

	// SkipDeduplication opts this request out of in-flight coalescing.
	SkipDeduplication bool

	// Retry overrides the client retry parameters when non-nil.
	Retry *RetryConfig

	// Timeout bounds each attempt. Zero uses the client default.
	Timeout time.Duration
}

func (cfg *RequestConfig) method() string {
	if cfg == nil || cfg.Method == "" {
		return http.MethodGet
	}
	return cfg.Method
}

func (cfg *RequestConfig) body() []byte {
	if cfg == nil {
		return nil
	}
	return cfg.Body
}

func (cfg *RequestConfig) deduplicate() bool {
	return cfg == nil || !cfg.SkipDeduplication
}

// Counters is a snapshot of cumulative request accounting.
type Counters struct {
	Total        uint64
	Deduplicated uint64
	Retried      uint64
	Failed       uint64
	Cancelled    uint64
}

// counterSet is the live atomic backing for Counters.
type counterSet struct {
	total        atomic.Uint64
	deduplicated atomic.Uint64
	retried      atomic.Uint64
	failed       atomic.Uint64
	cancelled    atomic.Uint64
}

func (c *counterSet) snapshot() Counters {
	return Counters{
		Total:        c.total.Load(),
		Deduplicated: c.deduplicated.Load(),
		Retried:      c.retried.Load(),
		Failed:       c.failed.Load(),
		Cancelled:    c.cancelled.Load(),
	}
}

// Option configures a Client at construction time.
type Option func(*Client)
