//go:build integration

package request_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"blueprints/internal/requests/models"
	"blueprints/internal/requests/store/request"
	id "blueprints/pkg/domain"
	"blueprints/pkg/platform/sentinel"
	"blueprints/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *request.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = request.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestRoundTripAndIndexes() {
	ctx := context.Background()
	bob := id.UserID(uuid.New())
	r := newIntegrationRequest(s.T(), bob, models.Owner{Kind: models.OwnerCorporation, ID: 98000001, Name: "Acme"})
	s.Require().NoError(s.store.Create(ctx, r))
	s.ErrorIs(s.store.Create(ctx, r), sentinel.ErrAlreadyUsed)

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.ID, found.ID)
	s.Equal(r.Owner, found.Owner)

	byRequestor, err := s.store.ListByRequestor(ctx, bob, false)
	s.Require().NoError(err)
	s.Len(byRequestor, 1)

	byOwner, err := s.store.ListByOwners(ctx, nil, []id.CorporationID{98000001}, false)
	s.Require().NoError(err)
	s.Len(byOwner, 1)

	_, err = s.store.FindByID(ctx, id.NewRequestID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestWatchConflict verifies WATCH aborts surface as sentinel.ErrConflict
// and exactly one writer commits.
func (s *RedisStoreSuite) TestWatchConflict() {
	ctx := context.Background()
	r := newIntegrationRequest(s.T(), id.UserID(uuid.New()), models.Owner{Kind: models.OwnerCharacter, ID: 90000001, Name: "Alice"})
	s.Require().NoError(s.store.Create(ctx, r))

	const goroutines = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.CompareAndSwap(ctx, r.ID, 1, claimBy(id.UserID(uuid.New())))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), found.Version)
	s.Len(found.History, 2)
}
