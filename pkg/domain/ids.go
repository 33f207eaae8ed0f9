// Package domain holds the typed identifiers shared across modules.
//
// UUID-backed identifiers are minted by this service (requests, users, audit
// events, inventory entries). Game identifiers (characters, corporations,
// item types, locations) are positive integers assigned upstream and only
// validated here.
//
// Usage: parse at trust boundaries (handlers, token claims); direct casting
// bypasses validation and is reserved for stores reading trusted rows.
package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	dErrors "blueprints/pkg/domain-errors"
)

type (
	// RequestID identifies a blueprint request.
	RequestID uuid.UUID
	// UserID identifies an authenticated member account.
	UserID uuid.UUID
	// EventID identifies an audit event.
	EventID uuid.UUID
	// BlueprintID identifies one inventory entry of a registered owner.
	BlueprintID uuid.UUID
)

type (
	// CharacterID is an in-game character identifier.
	CharacterID int64
	// CorporationID is an in-game corporation identifier.
	CorporationID int64
	// TypeID is an in-game item type identifier.
	TypeID int64
	// LocationID is an in-game station or structure identifier.
	LocationID int64
)

func (id RequestID) String() string { return uuid.UUID(id).String() }
func (id RequestID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id EventID) String() string   { return uuid.UUID(id).String() }
func (id EventID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id BlueprintID) String() string { return uuid.UUID(id).String() }
func (id BlueprintID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed UUIDs serialize as plain strings in JSON bodies.
func (id RequestID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id UserID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id EventID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id BlueprintID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *RequestID) UnmarshalText(b []byte) error {
	parsed, err := ParseRequestID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *EventID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "event ID")
	if err != nil {
		return err
	}
	*id = EventID(u)
	return nil
}

func (id *BlueprintID) UnmarshalText(b []byte) error {
	parsed, err := ParseBlueprintID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id CharacterID) String() string   { return strconv.FormatInt(int64(id), 10) }
func (id CorporationID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id TypeID) String() string        { return strconv.FormatInt(int64(id), 10) }
func (id LocationID) String() string    { return strconv.FormatInt(int64(id), 10) }

// NewRequestID mints a fresh request identifier.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

// NewBlueprintID mints a fresh inventory entry identifier.
func NewBlueprintID() BlueprintID { return BlueprintID(uuid.New()) }

// NewEventID mints a fresh audit event identifier.
func NewEventID() EventID { return EventID(uuid.New()) }

// ParseRequestID parses a request identifier from external input.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request ID")
	return RequestID(u), err
}

// ParseUserID parses a user identifier from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

func ParseBlueprintID(s string) (BlueprintID, error) {
	u, err := parseUUID(s, "blueprint ID")
	return BlueprintID(u), err
}

// ParseCharacterID parses a positive character identifier.
func ParseCharacterID(s string) (CharacterID, error) {
	n, err := parsePositive(s, "character ID")
	return CharacterID(n), err
}

// ParseCorporationID parses a positive corporation identifier.
func ParseCorporationID(s string) (CorporationID, error) {
	n, err := parsePositive(s, "corporation ID")
	return CorporationID(n), err
}

// parseUUID rejects empty, malformed and nil UUIDs with CodeInvalidInput.
func parseUUID(s, label string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}

func parsePositive(s, label string) (int64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return n, nil
}
