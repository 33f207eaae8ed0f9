package models

import (
	dErrors "blueprints/pkg/domain-errors"
)

// Status is the lifecycle state of a request. The wire form is the two-letter code.
type Status string

const (
	StatusOpen       Status = "OP"
	StatusInProgress Status = "IP"
	StatusFulfilled  Status = "FL"
	StatusCancelled  Status = "CL"
)

var statusLabels = map[Status]string{
	StatusOpen:       "Open",
	StatusInProgress: "In Progress",
	StatusFulfilled:  "Fulfilled",
	StatusCancelled:  "Cancelled",
}

// ParseStatus validates a stored or submitted status code.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid request status")
	}
	return st, nil
}

func (s Status) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsTerminal reports whether no further transition is accepted.
func (s Status) IsTerminal() bool {
	return s == StatusFulfilled || s == StatusCancelled
}

// Label is the human readable status shown in the grid.
func (s Status) Label() string {
	return statusLabels[s]
}

func (s Status) String() string { return string(s) }

// Action names a user intent on a request.
type Action string

const (
	ActionClaim   Action = "claim"
	ActionReopen  Action = "reopen"
	ActionCancel  Action = "cancel"
	ActionFulfill Action = "fulfill"

	// ActionView is granted to every related viewer. It is never a command.
	ActionView Action = "view"
	// ActionCreate only appears in history as the first entry.
	ActionCreate Action = "create"
)

// ParseAction accepts the four command actions and nothing else.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.IsCommand() {
		return "", dErrors.New(dErrors.CodeUnknownAction, "unknown action")
	}
	return a, nil
}

// IsCommand reports whether a is a state-changing action.
func (a Action) IsCommand() bool {
	switch a {
	case ActionClaim, ActionReopen, ActionCancel, ActionFulfill:
		return true
	}
	return false
}

func (a Action) String() string { return string(a) }

// Side is the relationship between a viewer and a request. A viewer can hold
// both sides at once.
type Side uint8

const (
	SideNone      Side = 0
	SideOwner     Side = 1 << 0
	SideRequestor Side = 1 << 1
)

func (s Side) Has(other Side) bool { return s&other != 0 }

// transitionRule is one row of the lifecycle table.
type transitionRule struct {
	From   Status
	Action Action
	To     Status
	Actors Side
}

// transitionTable is the full lifecycle. Order fixes the order of allowed actions.
var transitionTable = []transitionRule{
	{From: StatusOpen, Action: ActionClaim, To: StatusInProgress, Actors: SideOwner},
	{From: StatusInProgress, Action: ActionReopen, To: StatusOpen, Actors: SideOwner},
	{From: StatusInProgress, Action: ActionFulfill, To: StatusFulfilled, Actors: SideOwner},
	{From: StatusOpen, Action: ActionCancel, To: StatusCancelled, Actors: SideOwner | SideRequestor},
	{From: StatusInProgress, Action: ActionCancel, To: StatusCancelled, Actors: SideOwner | SideRequestor},
}

func lookupRule(from Status, action Action) (transitionRule, bool) {
	for _, r := range transitionTable {
		if r.From == from && r.Action == action {
			return r, true
		}
	}
	return transitionRule{}, false
}

// actorsFor returns the sides allowed to perform action from any source state.
func actorsFor(action Action) Side {
	var s Side
	for _, r := range transitionTable {
		if r.Action == action {
			s |= r.Actors
		}
	}
	return s
}

// Transition is the pure lifecycle function. It ignores who is acting.
//
// Errors: CodeUnknownAction for non-command actions, CodeAlreadyTerminal when
// from is FULFILLED or CANCELLED, CodeInvalidTransition for any other pair
// missing from the table.
func Transition(from Status, action Action) (Status, error) {
	if !action.IsCommand() {
		return "", dErrors.New(dErrors.CodeUnknownAction, "unknown action")
	}
	if from.IsTerminal() {
		return "", dErrors.New(dErrors.CodeAlreadyTerminal, "request is already closed")
	}
	rule, ok := lookupRule(from, action)
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidTransition, "cannot "+string(action)+" a request that is "+from.Label())
	}
	return rule.To, nil
}
