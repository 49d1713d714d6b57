package agentui

import (
	"errors"
	"strings"
	"testing"
)

func TestClientErrorMessage(t *testing.T) {
	err := &ClientError{
		Type:       ErrorTypeHTTP,
		Message:    "backend down",
		StatusCode: 503,
		Attempt:    2,
		MaxRetries: 3,
	}

	msg := err.Error()
	for _, want := range []string{"HTTP", "backend down", "status 503", "attempt 2/3"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %q in %q", want, msg)
		}
	}
}

func TestClientErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ClientError{Type: ErrorTypeNetwork, Message: "request failed", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("Expected cause to unwrap")
	}
}

func TestClientErrorIsByType(t *testing.T) {
	err := &ClientError{Type: ErrorTypeTimeout, Message: "deadline exceeded"}

	if !errors.Is(err, &ClientError{Type: ErrorTypeTimeout}) {
		t.Error("Expected type-tag match")
	}
	if errors.Is(err, &ClientError{Type: ErrorTypeNetwork}) {
		t.Error("Expected type-tag mismatch")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network", &ClientError{Type: ErrorTypeNetwork}, true},
		{"timeout", &ClientError{Type: ErrorTypeTimeout}, true},
		{"http 500", &ClientError{Type: ErrorTypeHTTP, StatusCode: 500}, true},
		{"http 429", &ClientError{Type: ErrorTypeHTTP, StatusCode: 429}, true},
		{"http 404", &ClientError{Type: ErrorTypeHTTP, StatusCode: 404}, false},
		{"cancelled", &ClientError{Type: ErrorTypeCancelled}, false},
		{"rate limited", ErrRateLimited, true},
		{"circuit open", ErrCircuitOpen, true},
		{"plain error", errors.New("whatever"), false},
	}
	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.want {
			t.Errorf("%s: IsTransient = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestErrorMessageFromBody(t *testing.T) {
	if got := errorMessageFromBody(404, []byte(`{"detail":"no such run"}`)); got != "no such run" {
		t.Errorf("detail key: got %q", got)
	}
	if got := errorMessageFromBody(500, []byte(`{"message":"oops"}`)); got != "oops" {
		t.Errorf("message key: got %q", got)
	}
	if got := errorMessageFromBody(500, []byte(`{"error":"bad"}`)); got != "bad" {
		t.Errorf("error key: got %q", got)
	}
	if got := errorMessageFromBody(502, []byte("<html>")); got != "request failed with status 502" {
		t.Errorf("non-JSON body fallback: got %q", got)
	}
	if got := errorMessageFromBody(503, nil); got != "request failed with status 503" {
		t.Errorf("empty body fallback: got %q", got)
	}
}
