// Package service orchestrates blueprint requests and the inventories they
// are made against: owner registration, blueprint imports, request creation,
// lifecycle commands and the grid queries. Every command re-checks the policy against
// the stored state and commits through a compare-and-swap.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	requestmetrics "blueprints/internal/requests/metrics"
	"blueprints/internal/requests/models"
	id "blueprints/pkg/domain"
	dErrors "blueprints/pkg/domain-errors"
	"blueprints/pkg/platform/audit"
	"blueprints/pkg/platform/sentinel"
	txcontext "blueprints/pkg/platform/tx"
)

const tracerName = "blueprints/internal/requests/service"

// RequestStore is implemented by the memory, postgres and redis stores.
type RequestStore interface {
	Create(ctx context.Context, r *models.Request) error
	FindByID(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	ListByRequestor(ctx context.Context, requestor id.UserID, includeClosed bool) ([]*models.Request, error)
	ListByOwners(ctx context.Context, characters []id.CharacterID, corporations []id.CorporationID, includeClosed bool) ([]*models.Request, error)
	// CompareAndSwap applies fn to a copy of the request and persists it only
	// if the stored version still equals expectedVersion. It returns
	// sentinel.ErrConflict when another writer got there first and leaves
	// the request untouched when fn fails.
	CompareAndSwap(ctx context.Context, requestID id.RequestID, expectedVersion int64, fn func(*models.Request) error) (*models.Request, error)
}

// InventoryStore is implemented by the memory, postgres and redis inventory
// stores.
type InventoryStore interface {
	SaveOwner(ctx context.Context, o *models.RegisteredOwner) error
	FindOwner(ctx context.Context, key models.OwnerKey) (*models.RegisteredOwner, error)
	ListOwnersAddedBy(ctx context.Context, user id.UserID) ([]*models.RegisteredOwner, error)
	// DeleteOwner removes the owner together with its blueprints.
	DeleteOwner(ctx context.Context, key models.OwnerKey) error
	// ReplaceBlueprints swaps the whole inventory of a registered owner.
	ReplaceBlueprints(ctx context.Context, key models.OwnerKey, bps []*models.Blueprint) error
	FindBlueprint(ctx context.Context, bpID id.BlueprintID) (*models.Blueprint, error)
	ListBlueprintsByCorporations(ctx context.Context, corporations []id.CorporationID) ([]*models.Blueprint, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is safe for concurrent use.
type Service struct {
	requests       RequestStore
	inventory      InventoryStore
	tx             txcontext.Runner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	rejections     AuditPublisher
	metrics        *requestmetrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditPublisher emits an audit event for every committed command. The
// publisher is called inside the unit of work.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithRejectionPublisher sends transition_rejected events somewhere other
// than the audit publisher, typically an asynchronous one. Rejections are
// best effort and never part of a unit of work.
func WithRejectionPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.rejections = publisher
	}
}

func WithMetrics(m *requestmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTx sets the unit-of-work runner. Defaults to txcontext.Passthrough.
func WithTx(runner txcontext.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(requests RequestStore, inventory InventoryStore, opts ...Option) *Service {
	s := &Service{
		requests:  requests,
		inventory: inventory,
		tx:        txcontext.Passthrough{},
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// wrapStoreErr maps store sentinels to coded errors about subject ("request",
// "owner", "blueprint"). Coded errors pass through.
func wrapStoreErr(err error, subject, action string) error {
	var de *dErrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, subject+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConcurrentModification, subject+" was modified concurrently, reload and retry")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, subject+" already exists")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "timed out while trying to "+action)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
	}
}
