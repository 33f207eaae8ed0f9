package handler

import (
	"net/http"
	"time"

	"go.uber.org/mock/gomock"

	"blueprints/internal/requests/models"
	id "blueprints/pkg/domain"
	dErrors "blueprints/pkg/domain-errors"
	"blueprints/pkg/testutil"
)

var acmeKey = models.OwnerKey{Kind: models.OwnerCorporation, ID: 98000001}

func (s *RequestsHandlerSuite) TestListBlueprints() {
	bpID := id.NewBlueprintID()
	s.expectViewer()
	s.service.EXPECT().ListBlueprints(gomock.Any(), member).Return([]models.BlueprintRow{{
		BlueprintID: bpID,
		TypeID:      691,
		TypeName:    "Rifter Blueprint",
		IconVariant: "bpo",
		IsOriginal:  true,
		Quantity:    2,
		OwnerName:   "Acme Corp",
		OwnerKind:   models.OwnerCorporation,
		GroupKey:    "Jita IV - Moon 4",
		Requestable: true,
	}}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/blueprints", nil)
	req.Header.Set("Authorization", bearer)
	rr := testutil.DoRequest(s.router, req)

	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	resp := testutil.UnmarshalResponse[BlueprintListResponse](s.T(), rr)
	s.Require().Len(resp.Rows, 1)
	s.Equal(bpID, resp.Rows[0].BlueprintID)
	s.Equal(2, resp.Rows[0].Quantity)
}

func (s *RequestsHandlerSuite) TestOwners() {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	acme := &models.RegisteredOwner{
		Owner:         models.Owner{Kind: models.OwnerCorporation, ID: 98000001, Name: "Acme Corp"},
		CorporationID: 98000001,
		SyncCharacter: 90000001,
		AddedBy:       memberID,
		CreatedAt:     at,
		UpdatedAt:     at,
	}

	s.Run("list", func() {
		s.expectViewer()
		s.service.EXPECT().ListOwners(gomock.Any(), member).Return([]*models.RegisteredOwner{acme}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/owners", nil)
		req.Header.Set("Authorization", bearer)
		rr := testutil.DoRequest(s.router, req)

		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
		resp := testutil.UnmarshalResponse[OwnersResponse](s.T(), rr)
		s.Require().Len(resp.Owners, 1)
		s.Equal(acme.Owner, resp.Owners[0].Owner)
	})

	s.Run("register", func() {
		s.expectViewer()
		s.service.EXPECT().
			RegisterOwner(gomock.Any(), member, gomock.Any()).
			DoAndReturn(func(_ any, _ models.Viewer, cmd *models.RegisterOwnerRequest) (*models.RegisteredOwner, error) {
				s.Equal("corporation", cmd.Kind)
				s.Equal("Acme Corp", cmd.Name)
				return acme, nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/owners", map[string]any{
			"kind":           "corporation",
			"character_id":   90000001,
			"corporation_id": 98000001,
			"name":           " Acme Corp ",
		})
		req.Header.Set("Authorization", bearer)
		rr := testutil.DoRequest(s.router, req)

		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
		s.Equal(acme.CorporationID, testutil.UnmarshalResponse[models.RegisteredOwner](s.T(), rr).CorporationID)
	})

	s.Run("register refuses an unknown kind before the service", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/owners", map[string]any{
			"kind":           "alliance",
			"character_id":   90000001,
			"corporation_id": 98000001,
			"name":           "Goons",
		})
		req.Header.Set("Authorization", bearer)
		rr := testutil.DoRequest(s.router, req)
		body := testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
		s.Contains(body.ErrorDescription, "kind")
	})

	s.Run("remove", func() {
		s.expectViewer()
		s.service.EXPECT().RemoveOwner(gomock.Any(), member, acmeKey).Return(nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodDelete, "/owners/corporation/98000001", nil)
		req.Header.Set("Authorization", bearer)
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusNoContent, rr.Code, rr.Body.String())
	})

	s.Run("remove someone else's owner", func() {
		s.expectViewer()
		s.service.EXPECT().RemoveOwner(gomock.Any(), member, acmeKey).
			Return(dErrors.New(dErrors.CodeNotFound, "owner not found"))

		req := testutil.NewJSONRequest(s.T(), http.MethodDelete, "/owners/corporation/98000001", nil)
		req.Header.Set("Authorization", bearer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.Run("malformed owner kind", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodDelete, "/owners/alliance/99000001", nil)
		req.Header.Set("Authorization", bearer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})
}

func (s *RequestsHandlerSuite) TestImportBlueprints() {
	path := "/owners/corporation/98000001/blueprints"

	s.Run("replaces the inventory", func() {
		s.expectViewer()
		s.service.EXPECT().
			ImportBlueprints(gomock.Any(), member, acmeKey, gomock.Any()).
			DoAndReturn(func(_ any, _ models.Viewer, _ models.OwnerKey, cmd *models.ImportBlueprintsRequest) (int, error) {
				s.Require().Len(cmd.Blueprints, 2)
				s.Equal("Rifter Blueprint", cmd.Blueprints[0].TypeName)
				return 1, nil
			})

		item := map[string]any{
			"type_id": 691, "type_name": " Rifter Blueprint", "runs": -1,
			"material_efficiency": 10, "time_efficiency": 20,
			"location_id": 60003760, "location_name": "Jita IV - Moon 4", "location_flag": "Hangar", "quantity": -1,
		}
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, path, map[string]any{"blueprints": []any{item, item}})
		req.Header.Set("Authorization", bearer)
		rr := testutil.DoRequest(s.router, req)

		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
		s.Equal(1, testutil.UnmarshalResponse[ImportResponse](s.T(), rr).Entries)
	})

	s.Run("invalid item never reaches the service", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, path, map[string]any{"blueprints": []any{
			map[string]any{"type_id": 691, "type_name": "Rifter Blueprint", "material_efficiency": 11},
		}})
		req.Header.Set("Authorization", bearer)
		rr := testutil.DoRequest(s.router, req)
		body := testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
		s.Contains(body.ErrorDescription, "material_efficiency")
	})
}
