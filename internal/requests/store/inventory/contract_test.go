package inventory_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"blueprints/internal/requests/models"
	id "blueprints/pkg/domain"
	"blueprints/pkg/platform/sentinel"
)

// inventoryStore is the behavior every backend shares.
type inventoryStore interface {
	SaveOwner(ctx context.Context, o *models.RegisteredOwner) error
	FindOwner(ctx context.Context, key models.OwnerKey) (*models.RegisteredOwner, error)
	ListOwnersAddedBy(ctx context.Context, user id.UserID) ([]*models.RegisteredOwner, error)
	DeleteOwner(ctx context.Context, key models.OwnerKey) error
	ReplaceBlueprints(ctx context.Context, key models.OwnerKey, bps []*models.Blueprint) error
	FindBlueprint(ctx context.Context, bpID id.BlueprintID) (*models.Blueprint, error)
	ListBlueprintsByCorporations(ctx context.Context, corporations []id.CorporationID) ([]*models.Blueprint, error)
}

const (
	corpA id.CorporationID = 98000001
	corpB id.CorporationID = 98000002
)

var (
	testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Truncate(time.Microsecond)
	alice   = id.UserID(uuid.MustParse("aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"))
	erin    = id.UserID(uuid.MustParse("eeeeeeee-eeee-4eee-8eee-eeeeeeeeeeee"))
)

// InventoryContractSuite is embedded by one suite per backend. reset must
// return an empty store.
type InventoryContractSuite struct {
	suite.Suite
	reset func() inventoryStore
	store inventoryStore
	ctx   context.Context
}

func (s *InventoryContractSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.reset()
}

func corporationOwner(corp id.CorporationID, name string, addedBy id.UserID) *models.RegisteredOwner {
	return &models.RegisteredOwner{
		Owner:         models.Owner{Kind: models.OwnerCorporation, ID: int64(corp), Name: name},
		CorporationID: corp,
		SyncCharacter: 90000001,
		AddedBy:       addedBy,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
}

func characterOwner(char id.CharacterID, corp id.CorporationID, addedBy id.UserID) *models.RegisteredOwner {
	return &models.RegisteredOwner{
		Owner:         models.Owner{Kind: models.OwnerCharacter, ID: int64(char), Name: "Alice"},
		CorporationID: corp,
		SyncCharacter: char,
		AddedBy:       addedBy,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
}

func inventoryOf(o *models.RegisteredOwner, typeNames ...string) []*models.Blueprint {
	items := make([]models.BlueprintImport, len(typeNames))
	for i, name := range typeNames {
		items[i] = models.BlueprintImport{
			TypeID:             int64(690 + i),
			TypeName:           name,
			Runs:               -1,
			MaterialEfficiency: 10,
			TimeEfficiency:     20,
			LocationID:         60003760,
			LocationName:       "Jita IV - Moon 4",
			LocationFlag:       "Hangar",
			Quantity:           -1,
		}
	}
	return models.StackBlueprints(o, items)
}

func (s *InventoryContractSuite) TestOwners() {
	corp := corporationOwner(corpA, "Acme Corp", alice)
	s.Require().NoError(s.store.SaveOwner(s.ctx, corp))

	found, err := s.store.FindOwner(s.ctx, corp.Key())
	s.Require().NoError(err)
	s.Equal(corp.Owner, found.Owner)
	s.Equal(alice, found.AddedBy)

	_, err = s.store.FindOwner(s.ctx, models.OwnerKey{Kind: models.OwnerCorporation, ID: int64(corpB)})
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Run("re-registering hands the owner over", func() {
		again := corporationOwner(corpA, "Acme Corp", erin)
		s.Require().NoError(s.store.SaveOwner(s.ctx, again))

		mine, err := s.store.ListOwnersAddedBy(s.ctx, alice)
		s.Require().NoError(err)
		s.Empty(mine)
		theirs, err := s.store.ListOwnersAddedBy(s.ctx, erin)
		s.Require().NoError(err)
		s.Len(theirs, 1)
	})
}

func (s *InventoryContractSuite) TestReplaceAndList() {
	corp := corporationOwner(corpA, "Acme Corp", alice)
	personal := characterOwner(90000001, corpB, alice)
	s.Require().NoError(s.store.SaveOwner(s.ctx, corp))
	s.Require().NoError(s.store.SaveOwner(s.ctx, personal))

	first := inventoryOf(corp, "Rifter Blueprint", "Drake Blueprint")
	s.Require().NoError(s.store.ReplaceBlueprints(s.ctx, corp.Key(), first))
	s.Require().NoError(s.store.ReplaceBlueprints(s.ctx, personal.Key(), inventoryOf(personal, "Merlin Blueprint")))

	listed, err := s.store.ListBlueprintsByCorporations(s.ctx, []id.CorporationID{corpA})
	s.Require().NoError(err)
	s.Len(listed, 2)
	for _, b := range listed {
		s.Equal(corpA, b.CorporationID)
		s.Equal("Acme Corp", b.Owner.Name)
	}

	both, err := s.store.ListBlueprintsByCorporations(s.ctx, []id.CorporationID{corpA, corpB})
	s.Require().NoError(err)
	s.Len(both, 3)

	none, err := s.store.ListBlueprintsByCorporations(s.ctx, nil)
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)

	s.Run("replacing drops the previous inventory", func() {
		second := inventoryOf(corp, "Thorax Blueprint")
		s.Require().NoError(s.store.ReplaceBlueprints(s.ctx, corp.Key(), second))

		_, err := s.store.FindBlueprint(s.ctx, first[0].ID)
		s.ErrorIs(err, sentinel.ErrNotFound)

		found, err := s.store.FindBlueprint(s.ctx, second[0].ID)
		s.Require().NoError(err)
		s.Equal("Thorax Blueprint", found.TypeName)
		s.True(found.IsOriginal())
		s.Equal(corpA, found.CorporationID)
	})

	s.Run("unknown owner", func() {
		err := s.store.ReplaceBlueprints(s.ctx, models.OwnerKey{Kind: models.OwnerCharacter, ID: 1}, nil)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InventoryContractSuite) TestDeleteOwnerCascades() {
	corp := corporationOwner(corpA, "Acme Corp", alice)
	s.Require().NoError(s.store.SaveOwner(s.ctx, corp))
	bps := inventoryOf(corp, "Rifter Blueprint")
	s.Require().NoError(s.store.ReplaceBlueprints(s.ctx, corp.Key(), bps))

	s.Require().NoError(s.store.DeleteOwner(s.ctx, corp.Key()))

	_, err := s.store.FindOwner(s.ctx, corp.Key())
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindBlueprint(s.ctx, bps[0].ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	listed, err := s.store.ListBlueprintsByCorporations(s.ctx, []id.CorporationID{corpA})
	s.Require().NoError(err)
	s.Empty(listed)
	owners, err := s.store.ListOwnersAddedBy(s.ctx, alice)
	s.Require().NoError(err)
	s.Empty(owners)

	s.ErrorIs(s.store.DeleteOwner(s.ctx, corp.Key()), sentinel.ErrNotFound)
}

func (s *InventoryContractSuite) TestCorporationMoveFollowsOwner() {
	personal := characterOwner(90000001, corpA, alice)
	s.Require().NoError(s.store.SaveOwner(s.ctx, personal))
	s.Require().NoError(s.store.ReplaceBlueprints(s.ctx, personal.Key(), inventoryOf(personal, "Rifter Blueprint")))

	moved := characterOwner(90000001, corpB, alice)
	s.Require().NoError(s.store.SaveOwner(s.ctx, moved))

	old, err := s.store.ListBlueprintsByCorporations(s.ctx, []id.CorporationID{corpA})
	s.Require().NoError(err)
	s.Empty(old)
	current, err := s.store.ListBlueprintsByCorporations(s.ctx, []id.CorporationID{corpB})
	s.Require().NoError(err)
	s.Len(current, 1)
}
