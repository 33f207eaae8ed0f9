package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"blueprints/internal/platform/config"
	"blueprints/internal/platform/httpserver"
	"blueprints/internal/platform/kafka"
	"blueprints/internal/platform/postgres"
	"blueprints/internal/platform/redis"
	"blueprints/internal/requests/service"
	"blueprints/internal/requests/store/inventory"
	"blueprints/internal/requests/store/request"
	"blueprints/pkg/platform/audit"
	"blueprints/pkg/platform/audit/outbox"
	auditmemory "blueprints/pkg/platform/audit/store/memory"
	auditpostgres "blueprints/pkg/platform/audit/store/postgres"
	"blueprints/pkg/platform/tx"
)

// backend is everything the service needs from the selected store backend.
type backend struct {
	requests  service.RequestStore
	inventory service.InventoryStore
	runner    tx.Runner
	audit    audit.Store
	checks   []httpserver.ReadinessCheck
	// relay is nil unless the outbox is drained to kafka.
	relay   *outbox.Relay
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer, migrate bool) (*backend, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return openPostgres(ctx, cfg, logger, reg, migrate)
	case config.BackendRedis:
		return openRedis(ctx, cfg, logger)
	default:
		logger.WarnContext(ctx, "using in-memory store, data is lost on restart")
		store := request.NewInMemory()
		return &backend{
			requests:  store,
			inventory: inventory.NewInMemory(),
			runner:    tx.Passthrough{},
			audit:     auditmemory.NewInMemoryStore(auditmemory.WithCapacity(cfg.Audit.MemoryCapacity)),
			checks:    []httpserver.ReadinessCheck{{Name: "store", Check: store.Ping}},
		}, nil
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer, migrate bool) (*backend, error) {
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			closeDB(db, logger)
			return nil, err
		}
	}
	store := request.NewPostgres(db)
	auditStore := auditpostgres.New(db)
	b := &backend{
		requests:  store,
		inventory: inventory.NewPostgres(db),
		runner:    tx.NewSQLRunner(db, cfg.Postgres.TxTimeout),
		audit:     auditStore,
		checks:    []httpserver.ReadinessCheck{{Name: "postgres", Check: store.Ping}},
		closers:   []func(){func() { closeDB(db, logger) }},
	}
	if len(cfg.Kafka.Brokers) == 0 {
		logger.InfoContext(ctx, "KAFKA_BROKERS not set, audit events stay in the outbox table")
		return b, nil
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.closers = append(b.closers, producer.Close)
	if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
		logger.WarnContext(ctx, "failed to ensure audit topic", "topic", cfg.Kafka.Topic, "error", err)
	}
	b.checks = append(b.checks, httpserver.ReadinessCheck{Name: "kafka", Check: producer.Ping})
	b.relay = outbox.NewRelay(auditStore, producer,
		outbox.WithLogger(logger),
		outbox.WithMetrics(outbox.NewMetrics(reg)),
		outbox.WithInterval(cfg.Kafka.PollInterval),
		outbox.WithBatchSize(cfg.Kafka.BatchSize),
	)
	return b, nil
}

// openRedis keeps a bounded window of audit events in memory: redis has no
// transaction that could carry an outbox row with the request write.
func openRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("open redis: %w", err)
	}
	return &backend{
		requests:  request.NewRedis(client.Client),
		inventory: inventory.NewRedis(client.Client),
		runner:    tx.Passthrough{},
		audit:     auditmemory.NewInMemoryStore(auditmemory.WithCapacity(cfg.Audit.MemoryCapacity)),
		checks:    []httpserver.ReadinessCheck{{Name: "redis", Check: client.Health}},
		closers: []func(){func() {
			if err := client.Close(); err != nil {
				logger.Warn("failed to close redis client", "error", err)
			}
		}},
	}, nil
}

func closeDB(db *sql.DB, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Warn("failed to close database", "error", err)
	}
}
