package resilience

import "errors"

// Guard couples a breaker with the rule deciding which errors count as upstream failures.
type Guard struct {
	breaker   *CircuitBreaker
	enabled   bool
	isFailure func(error) bool
}

// NewGuard builds a guard from config. A nil classifier counts every error as a failure.
func NewGuard(cfg CircuitBreakerConfig, isFailure func(error) bool) *Guard {
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}
	return &Guard{
		breaker:   NewCircuitBreaker(cfg),
		enabled:   cfg.Enabled,
		isFailure: isFailure,
	}
}

// OnStateChange registers fn for breaker transitions. Call it before the guard is shared.
func (g *Guard) OnStateChange(fn StateChangeFunc) *Guard {
	if g != nil {
		g.breaker.onStateChange = fn
	}
	return g
}

func (g *Guard) Allow() error {
	if g == nil || !g.enabled {
		return nil
	}
	return g.breaker.Allow()
}

func (g *Guard) Record(err error) {
	if g == nil || !g.enabled {
		return
	}
	if err != nil && g.isFailure(err) {
		g.breaker.RecordFailure()
		return
	}
	g.breaker.RecordSuccess()
}

func (g *Guard) State() CircuitState {
	if g == nil || !g.enabled {
		return CircuitStateClosed
	}
	return g.breaker.State()
}

// IsMarked reports whether err wraps marker.
func IsMarked(marker error) func(error) bool {
	return func(err error) bool {
		return errors.Is(err, marker)
	}
}
