package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"blueprints/internal/platform/metrics"
	"blueprints/internal/platform/middleware"
	"blueprints/internal/requests/models"
	"blueprints/internal/requests/service"
	id "blueprints/pkg/domain"
	dErrors "blueprints/pkg/domain-errors"
	"blueprints/pkg/platform/httputil"
	"blueprints/pkg/requestcontext"
)

// Service defines the request and inventory operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, viewer models.Viewer, cmd *models.CreateRequest) (models.Row, error)
	ApplyTransition(ctx context.Context, viewer models.Viewer, cmd service.TransitionCommand) (models.Row, error)
	ListRequests(ctx context.Context, viewer models.Viewer, role models.Role, includeClosed bool) ([]models.Row, error)
	Get(ctx context.Context, viewer models.Viewer, requestID id.RequestID) (models.Row, error)
	History(ctx context.Context, viewer models.Viewer, requestID id.RequestID) ([]models.StatusChange, error)
	PendingCount(ctx context.Context, viewer models.Viewer) (int, error)

	ListBlueprints(ctx context.Context, viewer models.Viewer) ([]models.BlueprintRow, error)
	ListOwners(ctx context.Context, viewer models.Viewer) ([]*models.RegisteredOwner, error)
	RegisterOwner(ctx context.Context, viewer models.Viewer, cmd *models.RegisterOwnerRequest) (*models.RegisteredOwner, error)
	RemoveOwner(ctx context.Context, viewer models.Viewer, key models.OwnerKey) error
	ImportBlueprints(ctx context.Context, viewer models.Viewer, key models.OwnerKey, cmd *models.ImportBlueprintsRequest) (int, error)
}

// ViewerResolver turns the authenticated principal into a viewer with
// resolved permissions.
type ViewerResolver interface {
	ResolveViewer(ctx context.Context, p requestcontext.Principal) (models.Viewer, error)
}

// Handler serves the blueprint request and inventory endpoints.
type Handler struct {
	logger       *slog.Logger
	requests     Service
	viewers      ViewerResolver
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
	timeout      time.Duration
}

type Option func(*Handler)

// WithTimeout bounds each request's context. Defaults to 30s.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// New creates a new requests Handler.
func New(
	requests Service,
	viewers ViewerResolver,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	opts ...Option,
) *Handler {
	h := &Handler{
		logger:       logger,
		requests:     requests,
		viewers:      viewers,
		metrics:      metrics,
		jwtValidator: jwtValidator,
		timeout:      30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the request and inventory routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	requestsRouter := chi.NewRouter()
	requestsRouter.Use(middleware.Recovery(h.logger))
	requestsRouter.Use(middleware.RequestID)
	requestsRouter.Use(middleware.Logger(h.logger))
	requestsRouter.Use(middleware.Timeout(h.timeout))
	requestsRouter.Use(middleware.ContentTypeJSON)
	requestsRouter.Use(middleware.LatencyMiddleware(h.metrics))
	requestsRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	requestsRouter.Get("/requests", h.handleListRequests)
	requestsRouter.Post("/requests", h.handleCreateRequest)
	requestsRouter.Get("/requests/pending-count", h.handlePendingCount)
	requestsRouter.Get("/requests/{id}", h.handleGetRequest)
	requestsRouter.Get("/requests/{id}/history", h.handleGetHistory)
	requestsRouter.Post("/requests/{id}/transitions", h.handleTransition)

	requestsRouter.Get("/blueprints", h.handleListBlueprints)
	requestsRouter.Get("/owners", h.handleListOwners)
	requestsRouter.Post("/owners", h.handleRegisterOwner)
	requestsRouter.Delete("/owners/{kind}/{ownerID}", h.handleRemoveOwner)
	requestsRouter.Put("/owners/{kind}/{ownerID}/blueprints", h.handleImportBlueprints)

	r.Mount("/", requestsRouter)
}

// handleListRequests serves GET /requests?role=owner|requestor[&include_closed=true].
func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	role, err := models.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid role",
			"request_id", requestID,
			"role", r.URL.Query().Get("role"),
		)
		httputil.WriteError(w, err)
		return
	}
	includeClosed := false
	if raw := r.URL.Query().Get("include_closed"); raw != "" {
		includeClosed, err = strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "include_closed must be a boolean"))
			return
		}
	}

	viewer, ok := h.resolveViewer(w, r)
	if !ok {
		return
	}
	rows, err := h.requests.ListRequests(ctx, viewer, role, includeClosed)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Rows: rows})
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	cmd, ok := httputil.DecodeAndPrepare[models.CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	viewer, ok := h.resolveViewer(w, r)
	if !ok {
		return
	}
	row, err := h.requests.Create(ctx, viewer, cmd)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, row)
}

func (h *Handler) handlePendingCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, ok := h.resolveViewer(w, r)
	if !ok {
		return
	}
	n, err := h.requests.PendingCount(ctx, viewer)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to count pending requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PendingCountResponse{Count: n})
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID, ok := h.requestIDParam(w, r)
	if !ok {
		return
	}
	viewer, ok := h.resolveViewer(w, r)
	if !ok {
		return
	}
	row, err := h.requests.Get(ctx, viewer, reqID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, row)
}

func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID, ok := h.requestIDParam(w, r)
	if !ok {
		return
	}
	viewer, ok := h.resolveViewer(w, r)
	if !ok {
		return
	}
	history, err := h.requests.History(ctx, viewer, reqID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get request history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{RequestID: reqID, History: history})
}

// handleTransition serves POST /requests/{id}/transitions. The response is
// the committed row, so the grid can redraw without another read.
func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	reqID, ok := h.requestIDParam(w, r)
	if !ok {
		return
	}
	body, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	viewer, ok := h.resolveViewer(w, r)
	if !ok {
		return
	}
	row, err := h.requests.ApplyTransition(ctx, viewer, service.TransitionCommand{
		RequestID:       reqID,
		Action:          models.Action(body.Action),
		ExpectedVersion: body.ExpectedVersion,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "transition failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, row)
}

func (h *Handler) resolveViewer(w http.ResponseWriter, r *http.Request) (models.Viewer, bool) {
	ctx := r.Context()
	viewer, err := h.viewers.ResolveViewer(ctx, requestcontext.Identity(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to resolve viewer",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return models.Viewer{}, false
	}
	return viewer, true
}

func (h *Handler) requestIDParam(w http.ResponseWriter, r *http.Request) (id.RequestID, bool) {
	reqID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.RequestID{}, false
	}
	return reqID, true
}

// writeServiceError logs at error level only for failures the client did not cause.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal || code == dErrors.CodeTimeout {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"code", string(code),
		)
	}
	httputil.WriteError(w, err)
}
