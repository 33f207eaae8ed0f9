package outbox

import (
	"sync"
	"time"
)

// CircuitBreaker stops the relay from hammering an unavailable broker.
// After threshold consecutive failures it opens for cooldown, then lets one
// attempt through.
type CircuitBreaker struct {
	mu  sync.Mutex
	now func() time.Time

	threshold int
	cooldown  time.Duration

	failures  int
	openUntil time.Time
	isOpen    bool
}

func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allow reports whether an attempt may proceed. An expired open circuit
// moves to half-open: the next failure reopens it immediately.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if !cb.isOpen {
		return true
	}
	if cb.now().Before(cb.openUntil) {
		return false
	}
	cb.isOpen = false
	cb.failures = cb.threshold - 1
	return true
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.isOpen = false
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	if cb.failures >= cb.threshold {
		cb.isOpen = true
		cb.openUntil = cb.now().Add(cb.cooldown)
	}
}

func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.isOpen
}
