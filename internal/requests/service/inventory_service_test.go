package service

import (
	"context"
	"time"

	"blueprints/internal/requests/models"
	id "blueprints/pkg/domain"
	dErrors "blueprints/pkg/domain-errors"
	"blueprints/pkg/requestcontext"
)

const corpB id.CorporationID = 98000002

func (s *ServiceSuite) TestRegisterOwner() {
	s.Run("registers a character", func() {
		erin := dave
		erin.Permissions = append(erin.Permissions, models.PermAddBlueprintOwner)
		o, err := s.service.RegisterOwner(s.ctx, erin, &models.RegisterOwnerRequest{
			Kind: "character", CharacterID: int64(daveChar), CorporationID: int64(corpA), Name: "Dave",
		})
		s.Require().NoError(err)
		s.Equal(models.Owner{Kind: models.OwnerCharacter, ID: int64(daveChar), Name: "Dave"}, o.Owner)
		s.Equal(corpA, o.CorporationID)
		s.Equal(dave.UserID, o.AddedBy)
		s.Equal(t0, o.CreatedAt)

		stored, err := s.inventory.FindOwner(s.ctx, o.Key())
		s.Require().NoError(err)
		s.Equal(o.Owner, stored.Owner)
	})

	s.Run("re-registering keeps the creation time", func() {
		later := requestcontext.WithTime(context.Background(), t0.Add(time.Hour))
		o, err := s.service.RegisterOwner(later, alice, &models.RegisterOwnerRequest{
			Kind: "corporation", CharacterID: int64(aliceChar), CorporationID: int64(corpA), Name: "Acme Corporation",
		})
		s.Require().NoError(err)
		s.Equal(t0, o.CreatedAt)
		s.Equal(t0.Add(time.Hour), o.UpdatedAt)
		s.Equal("Acme Corporation", o.Owner.Name)
	})

	s.Run("refusals", func() {
		cases := []struct {
			name   string
			viewer models.Viewer
			cmd    models.RegisterOwnerRequest
			code   dErrors.Code
		}{
			{
				name:   "missing permission",
				viewer: dave,
				cmd:    models.RegisterOwnerRequest{Kind: "character", CharacterID: int64(daveChar), CorporationID: int64(corpA), Name: "Dave"},
				code:   dErrors.CodeForbidden,
			},
			{
				name:   "somebody else's character",
				viewer: alice,
				cmd:    models.RegisterOwnerRequest{Kind: "character", CharacterID: int64(daveChar), CorporationID: int64(corpA), Name: "Dave"},
				code:   dErrors.CodeForbidden,
			},
			{
				name:   "corporation the viewer is not in",
				viewer: alice,
				cmd:    models.RegisterOwnerRequest{Kind: "character", CharacterID: int64(aliceChar), CorporationID: int64(corpB), Name: "Alice"},
				code:   dErrors.CodeForbidden,
			},
			{
				name: "corporation the viewer does not manage",
				viewer: func() models.Viewer {
					v := alice
					v.ManagedCorporations = nil
					return v
				}(),
				cmd:  models.RegisterOwnerRequest{Kind: "corporation", CharacterID: int64(aliceChar), CorporationID: int64(corpA), Name: "Acme"},
				code: dErrors.CodeForbidden,
			},
			{
				name:   "unknown kind",
				viewer: alice,
				cmd:    models.RegisterOwnerRequest{Kind: "alliance", CharacterID: int64(aliceChar), CorporationID: int64(corpA), Name: "Alice"},
				code:   dErrors.CodeValidation,
			},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				cmd := tc.cmd
				_, err := s.service.RegisterOwner(s.ctx, tc.viewer, &cmd)
				s.requireCode(err, tc.code)
			})
		}
	})
}

func (s *ServiceSuite) TestImportAndListBlueprints() {
	acmeKey := models.OwnerKey{Kind: models.OwnerCorporation, ID: int64(corpA)}
	n, err := s.service.ImportBlueprints(s.ctx, alice, acmeKey, &models.ImportBlueprintsRequest{
		Blueprints: []models.BlueprintImport{
			{TypeID: 691, TypeName: "Rifter Blueprint", Runs: -1, MaterialEfficiency: 10, TimeEfficiency: 20, LocationID: 60003760, LocationName: jitaMoon4, LocationFlag: "Hangar", Quantity: -1},
			{TypeID: 691, TypeName: "Rifter Blueprint", Runs: -1, MaterialEfficiency: 10, TimeEfficiency: 20, LocationID: 60003760, LocationName: jitaMoon4, LocationFlag: "Hangar", Quantity: -1},
			{TypeID: 24698, TypeName: "Drake Blueprint", Runs: 10, LocationID: 60008494, LocationName: amarrPlant, LocationFlag: "Hangar", Quantity: 2},
		},
	})
	s.Require().NoError(err)
	s.Equal(2, n)

	s.Run("members see stacked rows", func() {
		rows, err := s.service.ListBlueprints(s.ctx, bob)
		s.Require().NoError(err)
		s.Require().Len(rows, 2)
		s.Equal("Drake Blueprint", rows[0].TypeName)
		s.Equal(amarrPlant, rows[0].GroupKey)
		s.Equal("bpc", rows[0].IconVariant)
		s.Equal("Rifter Blueprint", rows[1].TypeName)
		s.Equal(2, rows[1].Quantity)
		s.True(rows[1].IsOriginal)
		s.True(rows[1].Requestable)
	})

	s.Run("owners see their own rows as not requestable", func() {
		rows, err := s.service.ListBlueprints(s.ctx, alice)
		s.Require().NoError(err)
		s.Require().Len(rows, 2)
		for _, r := range rows {
			s.False(r.Requestable)
		}
	})

	s.Run("outsiders see nothing", func() {
		rows, err := s.service.ListBlueprints(s.ctx, carol)
		s.Require().NoError(err)
		s.NotNil(rows)
		s.Empty(rows)
	})

	s.Run("a listed row can be requested", func() {
		rows, err := s.service.ListBlueprints(s.ctx, bob)
		s.Require().NoError(err)
		row, err := s.service.Create(s.ctx, bob, &models.CreateRequest{BlueprintID: rows[1].BlueprintID.String()})
		s.Require().NoError(err)
		s.Equal("Rifter Blueprint", row.TypeName)
		s.Equal("Acme Corp", row.OwnerName)
	})

	s.Run("import replaces the inventory", func() {
		n, err := s.service.ImportBlueprints(s.ctx, alice, acmeKey, &models.ImportBlueprintsRequest{})
		s.Require().NoError(err)
		s.Zero(n)
		rows, err := s.service.ListBlueprints(s.ctx, bob)
		s.Require().NoError(err)
		s.Empty(rows)
	})

	s.Run("only the registering user may import", func() {
		v := dave
		_, err := s.service.ImportBlueprints(s.ctx, v, acmeKey, &models.ImportBlueprintsRequest{})
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("validates items", func() {
		_, err := s.service.ImportBlueprints(s.ctx, alice, acmeKey, &models.ImportBlueprintsRequest{
			Blueprints: []models.BlueprintImport{{TypeID: 691, TypeName: "Rifter Blueprint", TimeEfficiency: 7}},
		})
		s.requireCode(err, dErrors.CodeValidation)
	})
}

func (s *ServiceSuite) TestListAndRemoveOwners() {
	owners, err := s.service.ListOwners(s.ctx, alice)
	s.Require().NoError(err)
	s.Require().Len(owners, 2)
	s.Equal(models.OwnerCharacter, owners[0].Owner.Kind)
	s.Equal(models.OwnerCorporation, owners[1].Owner.Kind)

	mine, err := s.service.ListOwners(s.ctx, bob)
	s.Require().NoError(err)
	s.Empty(mine)

	request := s.create(s.corporationBlueprint("Drake Blueprint", jitaMoon4))
	acmeKey := models.OwnerKey{Kind: models.OwnerCorporation, ID: int64(corpA)}

	s.Run("somebody else's owner is not found", func() {
		err := s.service.RemoveOwner(s.ctx, bob, acmeKey)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("removal drops the inventory but not the requests", func() {
		s.Require().NoError(s.service.RemoveOwner(s.ctx, alice, acmeKey))

		rows, err := s.service.ListBlueprints(s.ctx, bob)
		s.Require().NoError(err)
		s.Empty(rows)

		row, err := s.service.Get(s.ctx, bob, request.RequestID)
		s.Require().NoError(err)
		s.Equal("Drake Blueprint", row.TypeName)

		err = s.service.RemoveOwner(s.ctx, alice, acmeKey)
		s.requireCode(err, dErrors.CodeNotFound)
	})
}
