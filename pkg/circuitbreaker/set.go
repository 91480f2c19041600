package circuitbreaker

import (
	"sync"
	"time"
)

// Set manages one circuit breaker per named resource, created lazily with a
// shared configuration. It is safe for concurrent use: multiple sessions may
// hit the same knowledge source at once.
type Set struct {
	failureThreshold uint32
	successThreshold uint32
	timeout          time.Duration

	mu       sync.Mutex
	breakers map[string]CircuitBreaker
}

// NewSet creates a Set whose breakers all share the given thresholds.
func NewSet(failureThreshold, successThreshold uint32, timeout time.Duration) *Set {
	return &Set{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		breakers:         make(map[string]CircuitBreaker),
	}
}

// For returns the breaker for name, creating it in the Closed state on first use.
func (s *Set) For(name string) CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, ok := s.breakers[name]
	if !ok {
		cb = New(s.failureThreshold, s.successThreshold, s.timeout)
		s.breakers[name] = cb
	}
	return cb
}

// States snapshots the current state of every known breaker.
func (s *Set) States() map[string]State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]State, len(s.breakers))
	for name, cb := range s.breakers {
		out[name] = cb.State()
	}
	return out
}
