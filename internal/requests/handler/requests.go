package handler

import (
	"blueprints/internal/requests/models"
	id "blueprints/pkg/domain"
)

// TransitionRequest is the body of POST /requests/{id}/transitions.
type TransitionRequest struct {
	Action string `json:"action"`
	// ExpectedVersion is the row version the client rendered, if it tracks one.
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

// Validate rejects anything but the four command actions.
func (t *TransitionRequest) Validate() error {
	_, err := models.ParseAction(t.Action)
	return err
}

type ListResponse struct {
	Rows []models.Row `json:"rows"`
}

type PendingCountResponse struct {
	Count int `json:"count"`
}

type HistoryResponse struct {
	RequestID id.RequestID          `json:"request_id"`
	History   []models.StatusChange `json:"history"`
}

type BlueprintListResponse struct {
	Rows []models.BlueprintRow `json:"rows"`
}

type OwnersResponse struct {
	Owners []*models.RegisteredOwner `json:"owners"`
}

// ImportResponse reports how many stacked entries replaced the inventory.
type ImportResponse struct {
	Entries int `json:"entries"`
}
