package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"blueprints/internal/requests/models"
	dErrors "blueprints/pkg/domain-errors"
	"blueprints/pkg/platform/sentinel"
	"blueprints/pkg/requestcontext"
)

// RegisterOwner lists one of the viewer's characters, or a corporation the
// viewer manages, as a blueprint owner. Registering an owner again updates
// it and hands it over to the viewer.
func (s *Service) RegisterOwner(ctx context.Context, viewer models.Viewer, cmd *models.RegisterOwnerRequest) (*models.RegisteredOwner, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.RegisterOwner")
	var err error
	defer func() { endSpan(span, err) }()

	if err = requireAccess(viewer); err != nil {
		return nil, err
	}
	if !viewer.Can(models.PermAddBlueprintOwner) {
		err = dErrors.New(dErrors.CodeForbidden, "missing permission to add blueprint owners")
		return nil, err
	}
	if err = cmd.Validate(); err != nil {
		return nil, err
	}
	owner := cmd.Owner()
	if err = checkRegistration(viewer, cmd, owner); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("owner.key", models.OwnerKey{Kind: owner.Kind, ID: owner.ID}.String()))

	now := requestcontext.Now(ctx)
	registered := &models.RegisteredOwner{
		Owner:         owner,
		CorporationID: cmd.Corporation(),
		SyncCharacter: cmd.Character(),
		AddedBy:       viewer.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	var previous *models.RegisteredOwner
	previous, err = s.inventory.FindOwner(ctx, registered.Key())
	switch {
	case err == nil:
		registered.CreatedAt = previous.CreatedAt
	case errors.Is(err, sentinel.ErrNotFound):
		err = nil
	default:
		err = wrapStoreErr(err, "owner", "load owner")
		return nil, err
	}
	if err = s.inventory.SaveOwner(ctx, registered); err != nil {
		err = wrapStoreErr(err, "owner", "save owner")
		s.logger.ErrorContext(ctx, "failed to register owner",
			"user_id", viewer.UserID.String(),
			"owner", registered.Key().String(),
			"error", err,
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "blueprint owner registered",
		"user_id", viewer.UserID.String(),
		"owner", registered.Key().String(),
		"corporation_id", registered.CorporationID.String(),
		"replaced", previous != nil,
	)
	return registered, nil
}

func checkRegistration(viewer models.Viewer, cmd *models.RegisterOwnerRequest, owner models.Owner) error {
	if !viewer.HasCharacter(cmd.Character()) {
		return dErrors.New(dErrors.CodeForbidden, "character does not belong to you")
	}
	if !viewer.InCorporation(cmd.Corporation()) {
		return dErrors.New(dErrors.CodeForbidden, "character is not in that corporation")
	}
	if owner.Kind == models.OwnerCorporation && !viewer.Manages(cmd.Corporation()) {
		return dErrors.New(dErrors.CodeForbidden, "only delegates can register a corporation")
	}
	return nil
}

// RemoveOwner unregisters an owner the viewer registered and drops its
// inventory. Requests already made against it keep their snapshot.
func (s *Service) RemoveOwner(ctx context.Context, viewer models.Viewer, key models.OwnerKey) error {
	ctx, span := s.tracer.Start(ctx, "inventory.RemoveOwner", trace.WithAttributes(
		attribute.String("owner.key", key.String()),
	))
	var err error
	defer func() { endSpan(span, err) }()

	if _, err = s.ownedBy(ctx, viewer, key); err != nil {
		return err
	}
	if err = s.inventory.DeleteOwner(ctx, key); err != nil {
		err = wrapStoreErr(err, "owner", "remove owner")
		return err
	}
	s.logger.InfoContext(ctx, "blueprint owner removed",
		"user_id", viewer.UserID.String(),
		"owner", key.String(),
	)
	return nil
}

// ListOwners returns the owners the viewer registered.
func (s *Service) ListOwners(ctx context.Context, viewer models.Viewer) ([]*models.RegisteredOwner, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.ListOwners")
	var err error
	defer func() { endSpan(span, err) }()

	if err = requireAccess(viewer); err != nil {
		return nil, err
	}
	var owners []*models.RegisteredOwner
	if owners, err = s.inventory.ListOwnersAddedBy(ctx, viewer.UserID); err != nil {
		err = wrapStoreErr(err, "owner", "list owners")
		return nil, err
	}
	models.SortOwners(owners)
	return owners, nil
}

// ImportBlueprints replaces the inventory of an owner the viewer registered.
// Every import assigns fresh blueprint ids. It returns the number of stacked
// entries stored.
func (s *Service) ImportBlueprints(ctx context.Context, viewer models.Viewer, key models.OwnerKey, cmd *models.ImportBlueprintsRequest) (int, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.ImportBlueprints", trace.WithAttributes(
		attribute.String("owner.key", key.String()),
	))
	var err error
	defer func() { endSpan(span, err) }()

	var owner *models.RegisteredOwner
	if owner, err = s.ownedBy(ctx, viewer, key); err != nil {
		return 0, err
	}
	if err = cmd.Validate(); err != nil {
		return 0, err
	}
	bps := models.StackBlueprints(owner, cmd.Blueprints)
	owner.UpdatedAt = requestcontext.Now(ctx)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.inventory.SaveOwner(txCtx, owner); err != nil {
			return wrapStoreErr(err, "owner", "touch owner")
		}
		if err := s.inventory.ReplaceBlueprints(txCtx, key, bps); err != nil {
			return wrapStoreErr(err, "owner", "import blueprints")
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to import blueprints",
			"user_id", viewer.UserID.String(),
			"owner", key.String(),
			"error", err,
		)
		return 0, err
	}

	span.SetAttributes(attribute.Int("inventory.entries", len(bps)))
	s.logger.InfoContext(ctx, "blueprints imported",
		"user_id", viewer.UserID.String(),
		"owner", key.String(),
		"items", len(cmd.Blueprints),
		"entries", len(bps),
	)
	return len(bps), nil
}

// ListBlueprints returns the inventory rows of every owner in the viewer's
// corporations, sorted for a grouping grid.
func (s *Service) ListBlueprints(ctx context.Context, viewer models.Viewer) ([]models.BlueprintRow, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.ListBlueprints")
	var err error
	defer func() { endSpan(span, err) }()

	if err = requireAccess(viewer); err != nil {
		return nil, err
	}
	var bps []*models.Blueprint
	if bps, err = s.inventory.ListBlueprintsByCorporations(ctx, viewer.CorporationIDs); err != nil {
		err = wrapStoreErr(err, "blueprint", "list blueprints")
		return nil, err
	}
	rows := make([]models.BlueprintRow, 0, len(bps))
	for _, b := range bps {
		if !models.CanSeeBlueprint(b, viewer) {
			continue
		}
		rows = append(rows, models.ProjectBlueprint(b, viewer))
	}
	models.SortBlueprintRows(rows)
	span.SetAttributes(attribute.Int("inventory.rows", len(rows)))
	return rows, nil
}

// ownedBy loads an owner the viewer registered. Owners registered by
// somebody else are reported as not found.
func (s *Service) ownedBy(ctx context.Context, viewer models.Viewer, key models.OwnerKey) (*models.RegisteredOwner, error) {
	if err := requireAccess(viewer); err != nil {
		return nil, err
	}
	owner, err := s.inventory.FindOwner(ctx, key)
	if err != nil {
		return nil, wrapStoreErr(err, "owner", "load owner")
	}
	if owner.AddedBy != viewer.UserID {
		return nil, dErrors.New(dErrors.CodeNotFound, "owner not found")
	}
	return owner, nil
}
