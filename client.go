package agentui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Abdssamie/agent-ui-sub001/internal/backoff"
)

// Client is a resilient workflow API client. It layers retries with
// exponential backoff, in-flight request coalescing, explicit cancellation,
// timeouts, optional rate limiting and circuit breaking, plus metrics and
// debug logging around the standard net/http client. Safe for concurrent
// use; construct one per backend and pass it by reference.
type Client struct {
	httpClient        *http.Client
	maxRetries        int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
	jitterCap         time.Duration
	timeout           time.Duration
	retryCondition    RetryCondition
	backoff           *backoff.Calculator
	rateLimiter       *RateLimiter
	circuitBreaker    *CircuitBreaker
	inflight          *inflightTracker
	metrics           *MetricsCollector
	debug             *DebugConfig
	logger            Logger
	counters          counterSet
	validationError   error
}

// New constructs a Client from functional options. Construction performs a
// best-effort validation; check IsValid / ValidationError.
func New(options ...Option) *Client {
	client := &Client{
		httpClient:        &http.Client{},
		maxRetries:        3,
		initialBackoff:    100 * time.Millisecond,
		maxBackoff:        10 * time.Second,
		backoffMultiplier: 2.0,
		jitterCap:         time.Second,
		timeout:           30 * time.Second,
		retryCondition:    DefaultRetryCondition,
		backoff:           backoff.NewExponentialJitterCalculator(),
		inflight:          newInflightTracker(),
		debug:             DefaultDebugConfig(),
	}

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}
	return client
}

// Get performs a GET with client defaults and full reliability handling.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	return c.Request(ctx, rawURL, nil)
}

// Post performs a POST with a JSON body.
func (c *Client) Post(ctx context.Context, rawURL string, body []byte) ([]byte, error) {
	return c.Request(ctx, rawURL, &RequestConfig{
		Method:  http.MethodPost,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	})
}

// Request executes a call with retry, coalescing, timeout and cancellation
// handling and returns the response body. Coalesced callers share one
// underlying invocation and receive the identical outcome. On retry
// exhaustion the error carries the last HTTP status and error body.
func (c *Client) Request(ctx context.Context, rawURL string, cfg *RequestConfig) ([]byte, error) {
	c.counters.total.Add(1)

	method := cfg.method()
	endpoint := endpointFromURL(rawURL)

	var requestID string
	if c.debugEnabled() && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}
	if c.debugEnabled() && c.debug.LogRequests && c.logger != nil {
		c.logger.Debug("starting request", "requestID", requestID, "method", method, "url", rawURL)
	}
	if c.metrics != nil {
		c.metrics.RecordRequestStart(method, endpoint)
		defer c.metrics.RecordRequestEnd(method, endpoint)
	}

	start := time.Now()
	reqCtx, cancel := context.WithCancelCause(ctx)

	if cfg.deduplicate() {
		key := RequestKey(method, rawURL, cfg.body())
		entry, owner := c.inflight.getOrCreate(key, cancel)
		if !owner {
			// Attach to the live call; our cancel handle is unused.
			cancel(nil)
			c.counters.deduplicated.Add(1)
			if c.metrics != nil {
				c.metrics.RecordDeduplicationHit(method, endpoint)
			}
			if c.debugEnabled() && c.debug.LogDeduplication && c.logger != nil {
				c.logger.Debug("coalesced onto in-flight request", "requestID", requestID, "key", key)
			}
			return entry.Wait(ctx)
		}

		body, err := c.doRetry(reqCtx, method, rawURL, cfg, requestID, endpoint)
		err = c.settle(method, endpoint, start, err)
		c.inflight.complete(entry, body, err)
		cancel(nil)
		return body, err
	}

	defer cancel(nil)
	body, err := c.doRetry(reqCtx, method, rawURL, cfg, requestID, endpoint)
	return body, c.settle(method, endpoint, start, err)
}

// settle finalizes accounting for a finished owner call.
func (c *Client) settle(method, endpoint string, start time.Time, err error) error {
	if c.metrics != nil {
		status := 0
		var clientErr *ClientError
		if errors.As(err, &clientErr) {
			status = clientErr.StatusCode
		} else if err == nil {
			status = http.StatusOK
		}
		c.metrics.RecordRequest(method, endpoint, status, time.Since(start))
	}
	if err == nil {
		return nil
	}

	var clientErr *ClientError
	if errors.As(err, &clientErr) && clientErr.Type == ErrorTypeCancelled {
		c.counters.cancelled.Add(1)
		if c.metrics != nil {
			c.metrics.RecordCancellation()
		}
	} else {
		c.counters.failed.Add(1)
	}
	if c.metrics != nil {
		if errors.As(err, &clientErr) {
			c.metrics.RecordError(clientErr.Type, method, endpoint)
		}
	}
	return err
}

// doRetry runs the attempt loop. Delay before retry n is
// min(initial * multiplier^n, max) plus bounded random jitter; the wait is
// context-aware so cancellation aborts it.
func (c *Client) doRetry(ctx context.Context, method, rawURL string, cfg *RequestConfig, requestID, endpoint string) ([]byte, error) {
	maxRetries := c.maxRetries
	initial := c.initialBackoff
	maxDelay := c.maxBackoff
	multiplier := c.backoffMultiplier
	if cfg != nil && cfg.Retry != nil {
		maxRetries = cfg.Retry.MaxRetries
		if cfg.Retry.InitialDelay > 0 {
			initial = cfg.Retry.InitialDelay
		}
		if cfg.Retry.MaxDelay > 0 {
			maxDelay = cfg.Retry.MaxDelay
		}
		if cfg.Retry.Multiplier > 0 {
			multiplier = cfg.Retry.Multiplier
		}
	}
	timeout := c.timeout
	if cfg != nil && cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if c.rateLimiter != nil && !c.rateLimiter.Allow() {
			return nil, &ClientError{
				Type: ErrorTypeRateLimit, Message: "rate limit exceeded",
				Cause: ErrRateLimited, Method: method, URL: rawURL,
				Attempt: attempt, MaxRetries: maxRetries, Timestamp: time.Now(),
			}
		}
		if c.circuitBreaker != nil && !c.circuitBreaker.Allow() {
			return nil, &ClientError{
				Type: ErrorTypeCircuit, Message: "circuit breaker is open",
				Cause: ErrCircuitOpen, Method: method, URL: rawURL,
				Attempt: attempt, MaxRetries: maxRetries, Timestamp: time.Now(),
			}
		}

		if attempt > 0 {
			c.counters.retried.Add(1)
			if c.metrics != nil {
				c.metrics.RecordRetry(method, endpoint, attempt)
			}
			if c.debugEnabled() && c.debug.LogRetries && c.logger != nil {
				c.logger.Info("retry attempt", "requestID", requestID, "attempt", attempt, "maxRetries", maxRetries)
			}
		}

		body, status, err := c.attempt(ctx, method, rawURL, cfg, timeout)

		if c.circuitBreaker != nil {
			if err != nil || status >= 500 {
				c.circuitBreaker.RecordFailure()
			} else {
				c.circuitBreaker.RecordSuccess()
			}
		}

		var retryable bool
		switch {
		case err != nil && ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled):
			// Explicit cancellation: terminal, never retried.
			cause := context.Cause(ctx)
			return nil, &ClientError{
				Type: ErrorTypeCancelled, Message: "request cancelled",
				Cause: cause, Method: method, URL: rawURL,
				Attempt: attempt, MaxRetries: maxRetries, Timestamp: time.Now(),
			}
		case err != nil && errors.Is(err, context.DeadlineExceeded):
			lastErr = &ClientError{
				Type: ErrorTypeTimeout, Message: "attempt timed out",
				Cause: err, Method: method, URL: rawURL,
				Attempt: attempt, MaxRetries: maxRetries, Timestamp: time.Now(),
			}
			retryable = true
		case err != nil:
			lastErr = &ClientError{
				Type: ErrorTypeNetwork, Message: "network request failed",
				Cause: err, Method: method, URL: rawURL,
				Attempt: attempt, MaxRetries: maxRetries, Timestamp: time.Now(),
			}
			retryable = c.retryCondition(0, err)
		case status >= 200 && status < 300:
			return body, nil
		default:
			lastErr = &ClientError{
				Type: ErrorTypeHTTP, Message: errorMessageFromBody(status, body),
				StatusCode: status, Body: body, Method: method, URL: rawURL,
				Attempt: attempt, MaxRetries: maxRetries, Timestamp: time.Now(),
			}
			retryable = c.retryCondition(status, nil)
		}

		if !retryable || attempt >= maxRetries {
			return nil, lastErr
		}

		delay := c.backoff.Calculate(attempt, initial, maxDelay, multiplier, c.jitterCap)
		if c.debugEnabled() && c.debug.LogRetries && c.logger != nil {
			c.logger.Info("scheduling retry", "requestID", requestID, "attempt", attempt+1, "backoff", delay)
		}
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, &ClientError{
					Type: ErrorTypeCancelled, Message: "request cancelled",
					Cause: context.Cause(ctx), Method: method, URL: rawURL,
					Attempt: attempt, MaxRetries: maxRetries, Timestamp: time.Now(),
				}
			}
			return nil, lastErr
		}
	}
}

// attempt issues one HTTP call under a per-attempt timeout and drains the
// body.
func (c *Client) attempt(ctx context.Context, method, rawURL string, cfg *RequestConfig, timeout time.Duration) ([]byte, int, error) {
	attemptCtx := ctx
	cancelAttempt := func() {}
	if timeout > 0 {
		attemptCtx, cancelAttempt = context.WithTimeout(ctx, timeout)
	}
	defer cancelAttempt()

	var bodyReader io.Reader
	if len(cfg.body()) > 0 {
		bodyReader = bytes.NewReader(cfg.body())
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, rawURL, bodyReader)
	if err != nil {
		return nil, 0, err
	}
	if cfg != nil {
		for k, v := range cfg.Headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, resp.StatusCode, readErr
	}
	return body, resp.StatusCode, nil
}

// RequestJSON performs Request and decodes the body into T.
func RequestJSON[T any](ctx context.Context, c *Client, rawURL string, cfg *RequestConfig) (T, error) {
	var out T
	body, err := c.Request(ctx, rawURL, cfg)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, &ClientError{
			Type: ErrorTypeDecode, Message: "decoding response body",
			Cause: err, URL: rawURL, Timestamp: time.Now(),
		}
	}
	return out, nil
}

// Cancel aborts the in-flight request registered under key (see
// RequestKey). The abort reaches every coalesced caller attached to it;
// there is no per-caller detachment. It reports whether a live request was
// found.
func (c *Client) Cancel(key string) bool {
	return c.inflight.cancelKey(key, ErrRequestCancelled)
}

// CancelAll aborts every in-flight request and returns how many were live.
func (c *Client) CancelAll() int {
	return c.inflight.cancelAll(ErrRequestCancelled)
}

// PendingRequests returns the number of live in-flight entries.
func (c *Client) PendingRequests() int {
	return c.inflight.len()
}

// SweepPending aborts and evicts in-flight entries older than maxAge,
// returning the number swept.
func (c *Client) SweepPending(maxAge time.Duration) int {
	return c.inflight.sweep(maxAge, ErrRequestCancelled)
}

// Counters returns cumulative request accounting.
func (c *Client) Counters() Counters {
	return c.counters.snapshot()
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the construction-time validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

func (c *Client) debugEnabled() bool {
	return c.debug != nil && c.debug.Enabled
}

func endpointFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	host := u.Host
	path := u.Path
	if path == "" {
		path = "/"
	}
	return host + path
}
