package resilience

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: 5 * time.Second, HalfOpenMaxReq: 1})

	now := time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	var transitions []string
	b.onStateChange = func(from, to CircuitState) {
		transitions = append(transitions, string(from)+"->"+string(to))
	}

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	now = now.Add(6 * time.Second)
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open once the window elapsed, got %s", state)
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second concurrent probe to be rejected, got %v", err)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open probe, got %s", state)
	}

	want := []string{"closed->open", "open->half_open", "half_open->closed"}
	if fmt.Sprint(transitions) != fmt.Sprint(want) {
		t.Fatalf("unexpected transitions: got=%v want=%v", transitions, want)
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second, HalfOpenMaxReq: 1})
	now := time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	b.RecordFailure()
	now = now.Add(2 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe, got %v", err)
	}
	b.RecordFailure()
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("failed probe must reopen the breaker, got %v", err)
	}
}

func TestGuard_CountsOnlyMarkedErrors(t *testing.T) {
	transient := errors.New("transient")
	var opened bool
	g := NewGuard(CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute, HalfOpenMaxReq: 1}, IsMarked(transient)).
		OnStateChange(func(_, to CircuitState) { opened = to == CircuitStateOpen })

	g.Record(errors.New("bad request"))
	if state := g.State(); state != CircuitStateClosed {
		t.Fatalf("non-transient error must not open the breaker, got %s", state)
	}

	g.Record(fmt.Errorf("%w: upstream 503", transient))
	if err := g.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open breaker after transient failure, got %v", err)
	}
	if !opened {
		t.Fatalf("expected state change callback on open")
	}
}

func TestGuard_DisabledAlwaysAllows(t *testing.T) {
	g := NewGuard(CircuitBreakerConfig{Enabled: false, FailureThreshold: 1}, nil)
	g.Record(errors.New("boom"))
	if err := g.Allow(); err != nil {
		t.Fatalf("disabled guard must allow, got %v", err)
	}
	if state := g.State(); state != CircuitStateClosed {
		t.Fatalf("disabled guard reports closed, got %s", state)
	}
}

func TestNormalizeCircuitBreakerConfig(t *testing.T) {
	got := NormalizeCircuitBreakerConfig(CircuitBreakerConfig{Enabled: true})
	want := DefaultCircuitBreakerConfig()
	if got.FailureThreshold != want.FailureThreshold || got.OpenTimeout != want.OpenTimeout || got.HalfOpenMaxReq != want.HalfOpenMaxReq {
		t.Fatalf("unexpected normalized config: %+v", got)
	}
}
