package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"blueprints/internal/requests/models"
	"blueprints/pkg/platform/httputil"
	"blueprints/pkg/requestcontext"
)

// handleListBlueprints serves GET /blueprints, the inventory of every owner in
// the viewer's corporations.
func (h *Handler) handleListBlueprints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, ok := h.resolveViewer(w, r)
	if !ok {
		return
	}
	rows, err := h.requests.ListBlueprints(ctx, viewer)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list blueprints", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BlueprintListResponse{Rows: rows})
}

func (h *Handler) handleListOwners(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, ok := h.resolveViewer(w, r)
	if !ok {
		return
	}
	owners, err := h.requests.ListOwners(ctx, viewer)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list owners", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OwnersResponse{Owners: owners})
}

func (h *Handler) handleRegisterOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	cmd, ok := httputil.DecodeAndPrepare[models.RegisterOwnerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	viewer, ok := h.resolveViewer(w, r)
	if !ok {
		return
	}
	owner, err := h.requests.RegisterOwner(ctx, viewer, cmd)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to register owner", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, owner)
}

func (h *Handler) handleRemoveOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, ok := h.ownerKeyParam(w, r)
	if !ok {
		return
	}
	viewer, ok := h.resolveViewer(w, r)
	if !ok {
		return
	}
	if err := h.requests.RemoveOwner(ctx, viewer, key); err != nil {
		h.writeServiceError(ctx, w, "failed to remove owner", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportBlueprints serves PUT /owners/{kind}/{ownerID}/blueprints. The
// body replaces the owner's whole inventory.
func (h *Handler) handleImportBlueprints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	key, ok := h.ownerKeyParam(w, r)
	if !ok {
		return
	}
	cmd, ok := httputil.DecodeAndPrepare[models.ImportBlueprintsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	viewer, ok := h.resolveViewer(w, r)
	if !ok {
		return
	}
	n, err := h.requests.ImportBlueprints(ctx, viewer, key, cmd)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to import blueprints", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ImportResponse{Entries: n})
}

func (h *Handler) ownerKeyParam(w http.ResponseWriter, r *http.Request) (models.OwnerKey, bool) {
	key, err := models.ParseOwnerKey(chi.URLParam(r, "kind"), chi.URLParam(r, "ownerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return models.OwnerKey{}, false
	}
	return key, true
}
