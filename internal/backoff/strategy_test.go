package backoff

import (
	"testing"
	"time"
)

func TestExponentialGrowth(t *testing.T) {
	s := ExponentialJitterStrategy{}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
	}
	for _, tt := range tests {
		got := s.Calculate(tt.attempt, 100*time.Millisecond, 10*time.Second, 2.0, 0)
		if got != tt.want {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestExponentialCappedAtMax(t *testing.T) {
	s := ExponentialJitterStrategy{}
	got := s.Calculate(20, 100*time.Millisecond, time.Second, 2.0, 0)
	if got != time.Second {
		t.Errorf("Expected cap at max delay, got %v", got)
	}
}

func TestJitterBounded(t *testing.T) {
	s := ExponentialJitterStrategy{}
	base := 100 * time.Millisecond
	jitter := 50 * time.Millisecond

	for i := 0; i < 100; i++ {
		got := s.Calculate(0, base, time.Second, 2.0, jitter)
		if got < base || got >= base+jitter {
			t.Fatalf("Jittered delay %v outside [%v, %v)", got, base, base+jitter)
		}
	}
}

func TestNegativeAttemptClamped(t *testing.T) {
	s := ExponentialJitterStrategy{}
	if got := s.Calculate(-3, 100*time.Millisecond, time.Second, 2.0, 0); got != 100*time.Millisecond {
		t.Errorf("Expected initial delay for negative attempt, got %v", got)
	}
}

func TestConstantStrategy(t *testing.T) {
	s := ConstantStrategy{}
	for attempt := 0; attempt < 5; attempt++ {
		if got := s.Calculate(attempt, 50*time.Millisecond, time.Second, 2.0, time.Second); got != 50*time.Millisecond {
			t.Errorf("attempt %d: expected constant delay, got %v", attempt, got)
		}
	}
}
