package request

import (
	"context"
	"slices"
	"sync"

	"blueprints/internal/requests/models"
	id "blueprints/pkg/domain"
	"blueprints/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded request store. Every read and write works on
// clones, so callers never alias stored state.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.Request
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.RequestID]*models.Request)}
}

func (s *InMemory) Create(_ context.Context, r *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[r.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.requests[r.ID] = r.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.RequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemory) ListByRequestor(_ context.Context, requestor id.UserID, includeClosed bool) ([]*models.Request, error) {
	return s.filter(func(r *models.Request) bool {
		return r.Requestor == requestor && (includeClosed || !r.IsClosed())
	}), nil
}

func (s *InMemory) ListByOwners(_ context.Context, characters []id.CharacterID, corporations []id.CorporationID, includeClosed bool) ([]*models.Request, error) {
	return s.filter(func(r *models.Request) bool {
		return ownedBy(r.Owner, characters, corporations) && (includeClosed || !r.IsClosed())
	}), nil
}

// CompareAndSwap applies fn to a copy of the request and stores it when the
// stored version still equals expectedVersion. The lock is held across the
// check, fn and the write.
func (s *InMemory) CompareAndSwap(_ context.Context, requestID id.RequestID, expectedVersion int64, fn func(*models.Request) error) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return nil, sentinel.ErrConflict
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.requests[requestID] = next
	return next.Clone(), nil
}

func (s *InMemory) Ping(context.Context) error { return nil }

func (s *InMemory) filter(keep func(*models.Request) bool) []*models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Request, 0)
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

func ownedBy(o models.Owner, characters []id.CharacterID, corporations []id.CorporationID) bool {
	switch o.Kind {
	case models.OwnerCharacter:
		return slices.Contains(characters, id.CharacterID(o.ID))
	case models.OwnerCorporation:
		return slices.Contains(corporations, id.CorporationID(o.ID))
	}
	return false
}
