// Package memory keeps audit events in process for tests and the memory backend.
package memory

import (
	"context"
	"slices"
	"sync"

	id "blueprints/pkg/domain"
	audit "blueprints/pkg/platform/audit"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	events   []audit.Event
	capacity int
}

type Option func(*InMemoryStore)

// WithCapacity keeps at most n events, dropping the oldest first. n <= 0
// means unbounded.
func WithCapacity(n int) Option {
	return func(s *InMemoryStore) {
		s.capacity = n
	}
}

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if s.capacity > 0 && len(s.events) > s.capacity {
		n := copy(s.events, s.events[len(s.events)-s.capacity:])
		clear(s.events[n:])
		s.events = s.events[:n]
	}
	return nil
}

// ListByRequest returns events for one request in append order.
func (s *InMemoryStore) ListByRequest(_ context.Context, requestID id.RequestID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, 0)
	for _, e := range s.events {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
