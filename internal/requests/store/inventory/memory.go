// Package inventory stores registered blueprint owners and their blueprints.
package inventory

import (
	"context"
	"slices"
	"sync"

	"blueprints/internal/requests/models"
	id "blueprints/pkg/domain"
	"blueprints/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded inventory store.
type InMemory struct {
	mu         sync.RWMutex
	owners     map[models.OwnerKey]*models.RegisteredOwner
	blueprints map[id.BlueprintID]*models.Blueprint
}

func NewInMemory() *InMemory {
	return &InMemory{
		owners:     make(map[models.OwnerKey]*models.RegisteredOwner),
		blueprints: make(map[id.BlueprintID]*models.Blueprint),
	}
}

// SaveOwner inserts or replaces the owner registration.
func (s *InMemory) SaveOwner(_ context.Context, o *models.RegisteredOwner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *o
	s.owners[o.Key()] = &c
	return nil
}

func (s *InMemory) FindOwner(_ context.Context, key models.OwnerKey) (*models.RegisteredOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.owners[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (s *InMemory) ListOwnersAddedBy(_ context.Context, user id.UserID) ([]*models.RegisteredOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.RegisteredOwner, 0)
	for _, o := range s.owners {
		if o.AddedBy == user {
			c := *o
			out = append(out, &c)
		}
	}
	return out, nil
}

// DeleteOwner removes the owner and every blueprint it holds.
func (s *InMemory) DeleteOwner(_ context.Context, key models.OwnerKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owners[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.owners, key)
	s.dropBlueprints(key)
	return nil
}

// ReplaceBlueprints swaps the owner's whole inventory for bps.
func (s *InMemory) ReplaceBlueprints(_ context.Context, key models.OwnerKey, bps []*models.Blueprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owners[key]; !ok {
		return sentinel.ErrNotFound
	}
	s.dropBlueprints(key)
	for _, b := range bps {
		s.blueprints[b.ID] = b.Clone()
	}
	return nil
}

func (s *InMemory) FindBlueprint(_ context.Context, bpID id.BlueprintID) (*models.Blueprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blueprints[bpID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.withOwner(b), nil
}

func (s *InMemory) ListBlueprintsByCorporations(_ context.Context, corporations []id.CorporationID) ([]*models.Blueprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Blueprint, 0)
	for _, b := range s.blueprints {
		c := s.withOwner(b)
		if slices.Contains(corporations, c.CorporationID) {
			out = append(out, c)
		}
	}
	return out, nil
}

// withOwner clones b with the owner's current name and corporation.
func (s *InMemory) withOwner(b *models.Blueprint) *models.Blueprint {
	c := b.Clone()
	if o, ok := s.owners[models.OwnerKey{Kind: b.Owner.Kind, ID: b.Owner.ID}]; ok {
		c.Owner.Name = o.Owner.Name
		c.CorporationID = o.CorporationID
	}
	return c
}

func (s *InMemory) dropBlueprints(key models.OwnerKey) {
	for bpID, b := range s.blueprints {
		if b.Owner.Kind == key.Kind && b.Owner.ID == key.ID {
			delete(s.blueprints, bpID)
		}
	}
}
