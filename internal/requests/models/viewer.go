package models

import (
	"slices"

	id "blueprints/pkg/domain"
)

// Permission is an application permission resolved by the authz component.
type Permission string

const (
	PermBasicAccess       Permission = "basic_access"
	PermRequestBlueprints Permission = "request_blueprints"
	PermManageRequests    Permission = "manage_requests"
	PermViewLocations     Permission = "view_locations"
	PermAddBlueprintOwner Permission = "add_blueprint_owner"
)

// Viewer is the acting member: who they are, what they own in game, and what
// they are allowed to do. Build it with authz.Resolver; tests build it directly.
type Viewer struct {
	UserID         id.UserID
	Name           string
	CharacterIDs   []id.CharacterID
	CorporationIDs []id.CorporationID
	// Permissions granted globally.
	Permissions []Permission
	// ManagedCorporations are the corporations this viewer is a delegate for.
	// Always a subset of CorporationIDs.
	ManagedCorporations []id.CorporationID
}

func (v Viewer) Can(p Permission) bool {
	return slices.Contains(v.Permissions, p)
}

func (v Viewer) HasCharacter(c id.CharacterID) bool {
	return slices.Contains(v.CharacterIDs, c)
}

func (v Viewer) Manages(corp id.CorporationID) bool {
	return slices.Contains(v.ManagedCorporations, corp)
}

func (v Viewer) InCorporation(corp id.CorporationID) bool {
	return slices.Contains(v.CorporationIDs, corp)
}

// HasAccess reports whether the viewer may use the application at all.
func (v Viewer) HasAccess() bool {
	return v.Can(PermBasicAccess)
}

// ControlsOwner reports whether the viewer acts for owner: the owner is one of
// the viewer's characters, or a corporation the viewer is a delegate for.
func (v Viewer) ControlsOwner(o Owner) bool {
	switch o.Kind {
	case OwnerCharacter:
		return v.HasCharacter(id.CharacterID(o.ID))
	case OwnerCorporation:
		return v.Manages(id.CorporationID(o.ID))
	}
	return false
}

// ActsForOwner reports whether the viewer may work requests addressed to
// owner. Personal blueprints need manage_requests on top of holding the
// character; corporation blueprints need the viewer to be a delegate, which
// already implies manage_requests in that corporation.
func (v Viewer) ActsForOwner(o Owner) bool {
	switch o.Kind {
	case OwnerCharacter:
		return v.Can(PermManageRequests) && v.HasCharacter(id.CharacterID(o.ID))
	case OwnerCorporation:
		return v.Manages(id.CorporationID(o.ID))
	}
	return false
}
