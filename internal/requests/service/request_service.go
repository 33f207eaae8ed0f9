package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	requestmetrics "blueprints/internal/requests/metrics"
	"blueprints/internal/requests/models"
	id "blueprints/pkg/domain"
	dErrors "blueprints/pkg/domain-errors"
	"blueprints/pkg/requestcontext"
)

// TransitionCommand is one lifecycle command from a viewer.
type TransitionCommand struct {
	RequestID id.RequestID
	Action    models.Action
	// ExpectedVersion, when set, is the version the client rendered. A
	// mismatch is reported as a concurrent modification.
	ExpectedVersion *int64
}

// Create stores a new OPEN request for one inventory entry on behalf of
// viewer. The blueprint snapshot and the owner are taken from the entry.
func (s *Service) Create(ctx context.Context, viewer models.Viewer, cmd *models.CreateRequest) (models.Row, error) {
	ctx, span := s.tracer.Start(ctx, "requests.Create")
	var err error
	defer func() { endSpan(span, err) }()

	if err = requireAccess(viewer); err != nil {
		return models.Row{}, err
	}
	if !viewer.Can(models.PermRequestBlueprints) {
		err = dErrors.New(dErrors.CodeForbidden, "missing permission to request blueprints")
		return models.Row{}, err
	}
	if err = cmd.Validate(); err != nil {
		return models.Row{}, err
	}
	var bp *models.Blueprint
	if bp, err = s.inventory.FindBlueprint(ctx, cmd.Blueprint()); err != nil {
		err = wrapStoreErr(err, "blueprint", "load blueprint")
		return models.Row{}, err
	}
	if !models.CanSeeBlueprint(bp, viewer) {
		err = dErrors.New(dErrors.CodeNotFound, "blueprint not found")
		return models.Row{}, err
	}
	if viewer.ControlsOwner(bp.Owner) {
		err = dErrors.New(dErrors.CodeForbidden, "cannot request a blueprint you own")
		return models.Row{}, err
	}
	if err = cmd.CheckRuns(bp); err != nil {
		return models.Row{}, err
	}
	span.SetAttributes(attribute.String("blueprint.id", bp.ID.String()))

	var created *models.Request
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := models.NewRequest(id.NewRequestID(), bp.Ref(), cmd.RequestedRuns,
			viewer.UserID, viewer.Name, bp.Owner, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.requests.Create(txCtx, r); err != nil {
			return wrapStoreErr(err, "request", "create request")
		}
		if err := s.emitChange(txCtx, r); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create request",
			"user_id", viewer.UserID.String(),
			"blueprint_id", bp.ID.String(),
			"error", err,
		)
		return models.Row{}, err
	}

	span.SetAttributes(attribute.String("request.id", created.ID.String()))
	if s.metrics != nil {
		s.metrics.IncrementRequestCreated()
	}
	s.logger.InfoContext(ctx, "request created",
		"request_id", created.ID.String(),
		"user_id", viewer.UserID.String(),
		"owner_kind", string(bp.Owner.Kind),
		"owner_id", bp.Owner.ID,
	)
	return models.Project(created, viewer), nil
}

// ApplyTransition runs one lifecycle command. The policy is evaluated
// against the state read inside the compare-and-swap, so a command can never
// be applied to a state other than the one it was checked against.
//
// Errors: CodeForbidden (no basic access), CodeUnknownAction, CodeNotFound (missing or invisible to viewer),
// CodeAlreadyTerminal, CodeForbidden, CodeInvalidTransition,
// CodeConcurrentModification (retryable).
func (s *Service) ApplyTransition(ctx context.Context, viewer models.Viewer, cmd TransitionCommand) (models.Row, error) {
	ctx, span := s.tracer.Start(ctx, "requests.ApplyTransition", trace.WithAttributes(
		attribute.String("request.id", cmd.RequestID.String()),
		attribute.String("request.action", string(cmd.Action)),
	))
	var err error
	defer func() { endSpan(span, err) }()

	var updated *models.Request
	updated, err = s.applyTransition(ctx, viewer, cmd)
	s.observeTransition(cmd.Action, err)
	if err != nil {
		s.logger.WarnContext(ctx, "transition refused",
			"request_id", cmd.RequestID.String(),
			"action", string(cmd.Action),
			"user_id", viewer.UserID.String(),
			"code", string(dErrors.CodeOf(err)),
		)
		return models.Row{}, err
	}

	s.logger.InfoContext(ctx, "transition applied",
		"request_id", updated.ID.String(),
		"action", string(cmd.Action),
		"status", string(updated.Status),
		"version", updated.Version,
		"user_id", viewer.UserID.String(),
	)
	return models.Project(updated, viewer), nil
}

func (s *Service) applyTransition(ctx context.Context, viewer models.Viewer, cmd TransitionCommand) (*models.Request, error) {
	if err := requireAccess(viewer); err != nil {
		return nil, err
	}
	if !cmd.Action.IsCommand() {
		return nil, dErrors.New(dErrors.CodeUnknownAction, "unknown action")
	}
	current, err := s.load(ctx, viewer, cmd.RequestID)
	if err != nil {
		return nil, err
	}
	// A closed request reports already_terminal whatever version the client
	// rendered; reloading would not help.
	if cmd.ExpectedVersion != nil && !current.Status.IsTerminal() && *cmd.ExpectedVersion != current.Version {
		return nil, dErrors.New(dErrors.CodeConcurrentModification, "request was modified concurrently, reload and retry")
	}

	now := requestcontext.Now(ctx)
	var updated *models.Request
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.requests.CompareAndSwap(txCtx, cmd.RequestID, current.Version, func(r *models.Request) error {
			to, err := models.Decide(r, viewer, cmd.Action)
			if err != nil {
				return err
			}
			r.ApplyTransition(to, cmd.Action, viewer.UserID, now)
			return nil
		})
		if err != nil {
			return wrapStoreErr(err, "request", "apply transition")
		}
		if err := s.emitChange(txCtx, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		if isPolicyRejection(err) {
			s.emitRejected(ctx, cmd.RequestID, viewer.UserID, cmd.Action, err, now)
		}
		return nil, err
	}
	return updated, nil
}

// ListRequests returns the viewer's rows for role, sorted for a grouping grid.
// Closed requests are included only when includeClosed is set.
func (s *Service) ListRequests(ctx context.Context, viewer models.Viewer, role models.Role, includeClosed bool) ([]models.Row, error) {
	ctx, span := s.tracer.Start(ctx, "requests.ListRequests", trace.WithAttributes(
		attribute.String("request.role", string(role)),
	))
	var err error
	defer func() { endSpan(span, err) }()
	start := time.Now()

	if err = requireAccess(viewer); err != nil {
		return nil, err
	}
	var (
		candidates []*models.Request
		side       models.Side
	)
	switch role {
	case models.RoleRequestor:
		side = models.SideRequestor
		candidates, err = s.requests.ListByRequestor(ctx, viewer.UserID, includeClosed)
	case models.RoleOwner:
		side = models.SideOwner
		candidates, err = s.requests.ListByOwners(ctx, viewer.CharacterIDs, viewer.ManagedCorporations, includeClosed)
	default:
		err = dErrors.New(dErrors.CodeValidation, "role must be owner or requestor")
		return nil, err
	}
	if err != nil {
		err = wrapStoreErr(err, "request", "list requests")
		return nil, err
	}

	rows := make([]models.Row, 0, len(candidates))
	for _, r := range candidates {
		if !models.SidesOf(r, viewer).Has(side) {
			continue
		}
		rows = append(rows, models.Project(r, viewer))
	}
	models.SortRows(rows)

	if s.metrics != nil {
		s.metrics.ObserveListRequests(string(role), start)
	}
	span.SetAttributes(attribute.Int("request.rows", len(rows)))
	return rows, nil
}

// Get returns the row for one request. Requests the viewer is unrelated to
// are reported as not found.
func (s *Service) Get(ctx context.Context, viewer models.Viewer, requestID id.RequestID) (models.Row, error) {
	ctx, span := s.tracer.Start(ctx, "requests.Get", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
	))
	var err error
	defer func() { endSpan(span, err) }()

	var r *models.Request
	if r, err = s.load(ctx, viewer, requestID); err != nil {
		return models.Row{}, err
	}
	return models.Project(r, viewer), nil
}

// History returns the status changes of one request, oldest first.
func (s *Service) History(ctx context.Context, viewer models.Viewer, requestID id.RequestID) ([]models.StatusChange, error) {
	ctx, span := s.tracer.Start(ctx, "requests.History", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
	))
	var err error
	defer func() { endSpan(span, err) }()

	var r *models.Request
	if r, err = s.load(ctx, viewer, requestID); err != nil {
		return nil, err
	}
	return r.History, nil
}

// PendingCount is the number of open requests the viewer can claim plus the
// in-progress requests the viewer is fulfilling.
func (s *Service) PendingCount(ctx context.Context, viewer models.Viewer) (int, error) {
	ctx, span := s.tracer.Start(ctx, "requests.PendingCount")
	var err error
	defer func() { endSpan(span, err) }()

	if err = requireAccess(viewer); err != nil {
		return 0, err
	}
	var candidates []*models.Request
	candidates, err = s.requests.ListByOwners(ctx, viewer.CharacterIDs, viewer.ManagedCorporations, false)
	if err != nil {
		err = wrapStoreErr(err, "request", "count pending requests")
		return 0, err
	}
	n := 0
	for _, r := range candidates {
		if !models.SidesOf(r, viewer).Has(models.SideOwner) {
			continue
		}
		switch r.Status {
		case models.StatusOpen:
			n++
		case models.StatusInProgress:
			if r.FulfillingUser != nil && *r.FulfillingUser == viewer.UserID {
				n++
			}
		}
	}
	span.SetAttributes(attribute.Int("request.pending", n))
	return n, nil
}

func (s *Service) load(ctx context.Context, viewer models.Viewer, requestID id.RequestID) (*models.Request, error) {
	if err := requireAccess(viewer); err != nil {
		return nil, err
	}
	r, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapStoreErr(err, "request", "load request")
	}
	if !models.CanView(r, viewer) {
		return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
	}
	return r, nil
}

// requireAccess gates every operation on basic_access.
func requireAccess(viewer models.Viewer) error {
	if !viewer.HasAccess() {
		return dErrors.New(dErrors.CodeForbidden, "missing basic access")
	}
	return nil
}

func isPolicyRejection(err error) bool {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeForbidden, dErrors.CodeAlreadyTerminal, dErrors.CodeInvalidTransition:
		return true
	}
	return false
}

func (s *Service) observeTransition(action models.Action, err error) {
	if s.metrics == nil {
		return
	}
	result := requestmetrics.ResultApplied
	switch {
	case err == nil:
	case dErrors.HasCode(err, dErrors.CodeConcurrentModification):
		result = requestmetrics.ResultConflict
	case dErrors.HasCode(err, dErrors.CodeInternal), dErrors.HasCode(err, dErrors.CodeTimeout):
		result = requestmetrics.ResultError
	default:
		result = requestmetrics.ResultRejected
	}
	label := string(action)
	if !action.IsCommand() {
		label = "unknown"
	}
	s.metrics.IncrementTransition(label, result)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
