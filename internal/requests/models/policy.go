package models

import (
	dErrors "blueprints/pkg/domain-errors"
)

// SidesOf returns every side the viewer holds on r. SideNone means the viewer
// is a third party and must not learn that r exists. Holding the blueprint
// without the permission to manage requests does not make the viewer the
// owner side.
func SidesOf(r *Request, v Viewer) Side {
	s := SideNone
	if v.ActsForOwner(r.Owner) {
		s |= SideOwner
	}
	if !v.UserID.IsNil() && r.Requestor == v.UserID {
		s |= SideRequestor
	}
	return s
}

// AllowedActions lists what v may do with r. Empty for third parties;
// otherwise view followed by every table action matching r's status and one
// of v's sides.
func AllowedActions(r *Request, v Viewer) []Action {
	sides := SidesOf(r, v)
	if sides == SideNone {
		return []Action{}
	}
	actions := []Action{ActionView}
	for _, rule := range transitionTable {
		if rule.From == r.Status && rule.Actors.Has(sides) {
			actions = append(actions, rule.Action)
		}
	}
	return actions
}

// Decide re-validates a command against the current state of r and returns
// the target status. Checks run in a fixed order so each failure has one code:
//
//  1. unknown action          CodeUnknownAction
//  2. viewer is a third party CodeNotFound
//  3. request is closed       CodeAlreadyTerminal
//  4. side not allowed        CodeForbidden
//  5. pair not in the table   CodeInvalidTransition
func Decide(r *Request, v Viewer, action Action) (Status, error) {
	if !action.IsCommand() {
		return "", dErrors.New(dErrors.CodeUnknownAction, "unknown action")
	}
	sides := SidesOf(r, v)
	if sides == SideNone {
		return "", dErrors.New(dErrors.CodeNotFound, "request not found")
	}
	if r.Status.IsTerminal() {
		return "", dErrors.New(dErrors.CodeAlreadyTerminal, "request is already closed")
	}
	if !actorsFor(action).Has(sides) {
		return "", dErrors.New(dErrors.CodeForbidden, "not allowed to "+string(action)+" this request")
	}
	return Transition(r.Status, action)
}

// CanView reports whether r is visible to v at all.
func CanView(r *Request, v Viewer) bool {
	return SidesOf(r, v) != SideNone
}
