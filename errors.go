package agentui

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Error type tags carried by ClientError.
const (
	ErrorTypeNetwork    = "Network"
	ErrorTypeHTTP       = "HTTP"
	ErrorTypeTimeout    = "Timeout"
	ErrorTypeCancelled  = "Cancelled"
	ErrorTypeDecode     = "Decode"
	ErrorTypeRateLimit  = "RateLimit"
	ErrorTypeCircuit    = "CircuitOpen"
	ErrorTypeValidation = "Validation"
)

// Sentinel errors for common failure scenarios
var (
	// ErrRequestCancelled is the cause attached to explicitly cancelled calls.
	ErrRequestCancelled = errors.New("agentui: request cancelled")

	// ErrCircuitOpen is returned while the circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("agentui: circuit open")

	// ErrRateLimited is returned when the local rate limiter denies a call.
	ErrRateLimited = errors.New("agentui: rate limited")
)

// ClientError is the error type surfaced by the request client. For HTTP
// failures it carries the last observed status and raw error body.
type ClientError struct {
	Type       string
	Message    string
	Cause      error
	StatusCode int
	Body       []byte
	Method     string
	URL        string
	Attempt    int
	MaxRetries int
	Timestamp  time.Time
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (attempt %d/%d)", msg, e.Attempt, e.MaxRetries)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches ClientErrors by type tag, so
// errors.Is(err, &ClientError{Type: ErrorTypeTimeout}) works.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*ClientError); ok {
		return e.Type == t.Type
	}
	return false
}

// IsTransient reports whether err represents a failure that might succeed
// on retry: transport errors, timeouts, 429 and 5xx responses. Explicit
// cancellation and other 4xx responses are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrCircuitOpen) {
		return true
	}

	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		switch clientErr.Type {
		case ErrorTypeNetwork, ErrorTypeTimeout:
			return true
		case ErrorTypeHTTP:
			return retryableStatus(clientErr.StatusCode)
		default:
			return false
		}
	}
	return false
}

// retryableStatus implements the retry classification: 429 and 5xx are
// retryable, every other non-2xx status is terminal.
func retryableStatus(code int) bool {
	return code == 429 || code >= 500
}

// errorMessageFromBody extracts a human-readable message from a JSON error
// body ({"detail": ...} or {"message": ...}), falling back to a generic
// status description.
func errorMessageFromBody(status int, body []byte) string {
	if len(body) > 0 {
		var payload struct {
			Detail  string `json:"detail"`
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			if msg := firstNonEmpty(payload.Detail, payload.Message, payload.Error); msg != "" {
				return msg
			}
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}
