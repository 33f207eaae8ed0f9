package models

import (
	"cmp"
	"slices"
	"time"

	id "blueprints/pkg/domain"
	dErrors "blueprints/pkg/domain-errors"
)

// UnknownGroup is the group key shown when the location is hidden or missing.
const UnknownGroup = "(Unknown)"

// Role selects which side of the relationship a listing is for.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleRequestor Role = "requestor"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleRequestor:
		return Role(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "role must be owner or requestor")
}

// Row is one grid row. Rows are flat so a grouping grid can bind them directly.
type Row struct {
	RequestID          id.RequestID `json:"request_id"`
	TypeID             id.TypeID    `json:"type_id"`
	TypeName           string       `json:"type_name"`
	IconVariant        string       `json:"icon_variant"`
	IsOriginal         bool         `json:"is_original"`
	MaterialEfficiency int          `json:"material_efficiency"`
	TimeEfficiency     int          `json:"time_efficiency"`
	Runs               int          `json:"runs"`
	RequestedRuns      int          `json:"requested_runs"`
	RequestorName      string       `json:"requestor_name"`
	OwnerName          string       `json:"owner_name"`
	OwnerKind          OwnerKind    `json:"owner_kind"`
	GroupKey           string       `json:"group_key"`
	Status             Status       `json:"status"`
	StatusLabel        string       `json:"status_label"`
	AllowedActions     []Action     `json:"allowed_actions"`
	Version            int64        `json:"version"`
	CreatedAt          time.Time    `json:"created_at"`
}

// Project builds the row v sees for r. The group key is the location name, or
// UnknownGroup when v may not see locations or the location is unknown.
func Project(r *Request, v Viewer) Row {
	group := UnknownGroup
	if v.Can(PermViewLocations) && r.Blueprint.LocationName != "" {
		group = r.Blueprint.LocationName
	}
	icon := "bpc"
	if r.Blueprint.IsOriginal {
		icon = "bpo"
	}
	return Row{
		RequestID:          r.ID,
		TypeID:             r.Blueprint.TypeID,
		TypeName:           r.Blueprint.TypeName,
		IconVariant:        icon,
		IsOriginal:         r.Blueprint.IsOriginal,
		MaterialEfficiency: r.Blueprint.MaterialEfficiency,
		TimeEfficiency:     r.Blueprint.TimeEfficiency,
		Runs:               r.Blueprint.Runs,
		RequestedRuns:      r.RequestedRuns,
		RequestorName:      r.RequestorName,
		OwnerName:          r.Owner.Name,
		OwnerKind:          r.Owner.Kind,
		GroupKey:           group,
		Status:             r.Status,
		StatusLabel:        r.Status.Label(),
		AllowedActions:     AllowedActions(r, v),
		Version:            r.Version,
		CreatedAt:          r.CreatedAt,
	}
}

// SortRows orders rows by group key, type name, creation time and id. It must
// run after Project so the order always matches the emitted group key.
func SortRows(rows []Row) {
	slices.SortFunc(rows, compareRows)
}

func compareRows(a, b Row) int {
	return cmp.Or(
		cmp.Compare(a.GroupKey, b.GroupKey),
		cmp.Compare(a.TypeName, b.TypeName),
		a.CreatedAt.Compare(b.CreatedAt),
		cmp.Compare(a.RequestID.String(), b.RequestID.String()),
	)
}
