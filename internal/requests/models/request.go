package models

import (
	"slices"
	"time"

	id "blueprints/pkg/domain"
	dErrors "blueprints/pkg/domain-errors"
)

// OwnerKind distinguishes personal from corporation blueprints.
type OwnerKind string

const (
	OwnerCharacter   OwnerKind = "character"
	OwnerCorporation OwnerKind = "corporation"
)

func (k OwnerKind) IsValid() bool {
	return k == OwnerCharacter || k == OwnerCorporation
}

// Owner is the character or corporation holding the blueprint.
// ID is a character id or a corporation id depending on Kind.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   int64     `json:"id"`
	Name string    `json:"name"`
}

// BlueprintRef is the blueprint snapshot taken when the request was made.
type BlueprintRef struct {
	TypeID             id.TypeID     `json:"type_id"`
	TypeName           string        `json:"type_name"`
	IsOriginal         bool          `json:"is_original"`
	Runs               int           `json:"runs"`
	MaterialEfficiency int           `json:"material_efficiency"`
	TimeEfficiency     int           `json:"time_efficiency"`
	LocationID         id.LocationID `json:"location_id"`
	LocationName       string        `json:"location_name"`
}

// StatusChange is one audit entry. From is empty for the creation entry.
type StatusChange struct {
	From   Status    `json:"from,omitempty"`
	To     Status    `json:"to"`
	Action Action    `json:"action"`
	Actor  id.UserID `json:"actor"`
	At     time.Time `json:"at"`
}

// Request is the aggregate root for one blueprint request.
//
// Invariants:
//   - Status is one of the four lifecycle states
//   - Terminal requests accept no transition
//   - Version increases by one on every committed transition
//   - History is append-only and its timestamps never decrease
//   - FulfillingUser is set while IN_PROGRESS and after FULFILLED, and
//     cleared by reopen and cancel
type Request struct {
	ID             id.RequestID   `json:"id"`
	Blueprint      BlueprintRef   `json:"blueprint"`
	RequestedRuns  int            `json:"requested_runs"`
	Requestor      id.UserID      `json:"requestor"`
	RequestorName  string         `json:"requestor_name"`
	Owner          Owner          `json:"owner"`
	Status         Status         `json:"status"`
	FulfillingUser *id.UserID     `json:"fulfilling_user,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ClosedAt       *time.Time     `json:"closed_at,omitempty"`
	Version        int64          `json:"version"`
	History        []StatusChange `json:"history"`
}

// NewRequest builds an OPEN request with its creation history entry.
func NewRequest(requestID id.RequestID, bp BlueprintRef, requestedRuns int, requestor id.UserID, requestorName string, owner Owner, now time.Time) (*Request, error) {
	if requestID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "request id is required")
	}
	if requestor.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "requestor is required")
	}
	if !owner.Kind.IsValid() || owner.ID <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "owner is invalid")
	}
	return &Request{
		ID:            requestID,
		Blueprint:     bp,
		RequestedRuns: requestedRuns,
		Requestor:     requestor,
		RequestorName: requestorName,
		Owner:         owner,
		Status:        StatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
		History: []StatusChange{{
			To:     StatusOpen,
			Action: ActionCreate,
			Actor:  requestor,
			At:     now,
		}},
	}, nil
}

// IsClosed reports whether the request reached a terminal state.
func (r *Request) IsClosed() bool {
	return r.Status.IsTerminal()
}

// ApplyTransition moves the request to the status returned by Transition.
// Call Decide first; ApplyTransition trusts its inputs.
func (r *Request) ApplyTransition(to Status, action Action, actor id.UserID, now time.Time) {
	at := now
	if n := len(r.History); n > 0 && at.Before(r.History[n-1].At) {
		at = r.History[n-1].At
	}
	r.History = append(r.History, StatusChange{
		From:   r.Status,
		To:     to,
		Action: action,
		Actor:  actor,
		At:     at,
	})

	switch action {
	case ActionClaim, ActionFulfill:
		a := actor
		r.FulfillingUser = &a
	case ActionReopen, ActionCancel:
		r.FulfillingUser = nil
	}
	if to.IsTerminal() {
		r.ClosedAt = &at
	}
	r.Status = to
	r.UpdatedAt = at
	r.Version++
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	if r.FulfillingUser != nil {
		u := *r.FulfillingUser
		c.FulfillingUser = &u
	}
	if r.ClosedAt != nil {
		t := *r.ClosedAt
		c.ClosedAt = &t
	}
	c.History = slices.Clone(r.History)
	return &c
}
