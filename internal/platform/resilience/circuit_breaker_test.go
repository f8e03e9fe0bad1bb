package resilience

import (
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
)

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: 5 * time.Second, HalfOpenProbes: 1})

	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	feedDown := crerr.New("feed returned 503")
	for i := 0; i < 2; i++ {
		if err := b.Call(func() error { return feedDown }, nil); !crerr.Is(err, feedDown) {
			t.Fatalf("expected upstream error, got %v", err)
		}
	}
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	called := false
	if err := b.Call(func() error { called = true; return nil }, nil); !crerr.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}
	if called {
		t.Fatalf("open breaker must not call upstream")
	}

	now = now.Add(6 * time.Second)
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", state)
	}
	if err := b.Call(func() error { return nil }, nil); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful probe, got %s", state)
	}
}

func TestCircuitBreaker_IgnoresNonFailures(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{Enabled: true, FailureThreshold: 1})
	notFound := crerr.New("team has no schedule")

	_ = b.Call(func() error { return notFound }, func(err error) bool { return !crerr.Is(err, notFound) })
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed when error is not an upstream failure, got %s", state)
	}
}

func TestCircuitBreaker_Disabled(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{Enabled: false, FailureThreshold: 1})
	b.RecordFailure()
	b.RecordFailure()
	if err := b.Allow(); err != nil {
		t.Fatalf("disabled breaker must allow, got %v", err)
	}
}
