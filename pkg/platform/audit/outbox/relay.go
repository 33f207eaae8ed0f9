package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Relay polls the source and forwards batches to the publisher.
type Relay struct {
	source    Source
	publisher Publisher
	breaker   *CircuitBreaker
	metrics   *Metrics
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

func WithBreaker(cb *CircuitBreaker) Option {
	return func(r *Relay) { r.breaker = cb }
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func NewRelay(source Source, publisher Publisher, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		publisher: publisher,
		breaker:   NewCircuitBreaker(5, 30*time.Second),
		logger:    slog.Default(),
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled. Batch failures are logged and retried
// on the next tick; Run itself only returns on cancellation.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "outbox relay started", "interval", r.interval, "batch_size", r.batchSize)
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "outbox relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "outbox relay batch failed", "error", err)
			}
		}
	}
}

// RelayOnce forwards a single batch and returns how many entries were
// published. A batch is skipped while the breaker is open.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	if !r.breaker.Allow() {
		return 0, nil
	}
	entries, err := r.source.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch pending: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := r.publisher.Publish(ctx, entries); err != nil {
		r.breaker.RecordFailure()
		r.observeFailure()
		return 0, fmt.Errorf("publish batch: %w", err)
	}
	r.breaker.RecordSuccess()
	r.observeBreaker()

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := r.source.MarkPublished(ctx, ids); err != nil {
		// Entries are republished next tick; consumers dedupe on event id.
		return 0, fmt.Errorf("mark published: %w", err)
	}
	if r.metrics != nil {
		r.metrics.Published.Add(float64(len(entries)))
	}
	return len(entries), nil
}

func (r *Relay) observeFailure() {
	if r.metrics == nil {
		return
	}
	r.metrics.PublishFailures.Inc()
	r.observeBreaker()
}

func (r *Relay) observeBreaker() {
	if r.metrics == nil {
		return
	}
	state := 0.0
	if r.breaker.IsOpen() {
		state = 1
	}
	r.metrics.CircuitBreakerState.Set(state)
}
