package audit

import (
	"context"
	"time"

	id "blueprints/pkg/domain"
)

// EventCategory decides routing and retention downstream of the outbox.
type EventCategory string

const (
	// CategoryLifecycle covers committed request state changes.
	CategoryLifecycle EventCategory = "lifecycle"
	// CategorySecurity covers refused commands worth alerting on.
	CategorySecurity EventCategory = "security"
)

type AuditEvent string

const (
	EventRequestCreated   AuditEvent = "request_created"
	EventRequestClaimed   AuditEvent = "request_claimed"
	EventRequestReopened  AuditEvent = "request_reopened"
	EventRequestCancelled AuditEvent = "request_cancelled"
	EventRequestFulfilled AuditEvent = "request_fulfilled"

	// EventTransitionRejected records a refused command. Concurrency
	// conflicts are not recorded; the caller simply retries.
	EventTransitionRejected AuditEvent = "transition_rejected"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRequestCreated:     CategoryLifecycle,
	EventRequestClaimed:     CategoryLifecycle,
	EventRequestReopened:    CategoryLifecycle,
	EventRequestCancelled:   CategoryLifecycle,
	EventRequestFulfilled:   CategoryLifecycle,
	EventTransitionRejected: CategorySecurity,
}

// Category returns the category for e. Unknown events are lifecycle.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryLifecycle
}

// Event is emitted by the request service. It stays transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	ID        id.EventID    `json:"id"`
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    AuditEvent    `json:"action"`
	// ActorID is the member who issued the command.
	ActorID   id.UserID    `json:"actor_id"`
	RequestID id.RequestID `json:"request_id"`
	From      string       `json:"from,omitempty"`
	To        string       `json:"to,omitempty"`
	Version   int64        `json:"version,omitempty"`
	// Command and Reason describe a rejected command: the action that was
	// attempted and the error code it failed with.
	Command       string `json:"command,omitempty"`
	Reason        string `json:"reason,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
