// Package outbox relays committed audit events from the outbox table to a
// message broker. Delivery is at-least-once: an entry is marked published
// only after the broker acknowledged it.
package outbox

import (
	"context"
	"time"
)

// Entry is one unpublished outbox row.
type Entry struct {
	ID        string
	Key       string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// Source reads pending entries and acknowledges published ones.
type Source interface {
	FetchPending(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, ids []string) error
}

// Publisher delivers a batch to the broker. It returns only after every
// entry was acknowledged or an error occurred.
type Publisher interface {
	Publish(ctx context.Context, entries []Entry) error
}
