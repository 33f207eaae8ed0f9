package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	jwttoken "blueprints/internal/jwt_token"
	"blueprints/internal/platform/config"
	"blueprints/internal/platform/httpserver"
	"blueprints/internal/platform/logger"
	"blueprints/internal/platform/metrics"
	"blueprints/internal/requests/authz"
	"blueprints/internal/requests/handler"
	requestmetrics "blueprints/internal/requests/metrics"
	"blueprints/internal/requests/service"
	"blueprints/pkg/platform/audit/publisher"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the audit outbox relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving (postgres backend)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	log := logger.New(cfg.Log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	b, err := openBackend(ctx, cfg, log, reg, migrate)
	if err != nil {
		return err
	}
	defer b.Close()

	resolver, err := newResolver(cfg, log)
	if err != nil {
		return err
	}

	auditPublisher := publisher.NewPublisher(b.audit, publisher.WithLogger(log))
	defer auditPublisher.Close()
	// Rejections are best effort and never join a transaction.
	rejectionPublisher := publisher.NewPublisher(b.audit,
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
	)
	defer rejectionPublisher.Close()

	svc := service.New(b.requests, b.inventory,
		service.WithLogger(log),
		service.WithTx(b.runner),
		service.WithAuditPublisher(auditPublisher),
		service.WithRejectionPublisher(rejectionPublisher),
		service.WithMetrics(requestmetrics.NewWithRegisterer(reg)),
	)
	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)

	router := chi.NewRouter()
	router.Get("/healthz", httpserver.Healthz(b.checks...))
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	handler.New(svc, resolver, log, metrics.NewWithRegisterer(reg), jwttoken.NewJWTServiceAdapter(jwtService),
		handler.WithTimeout(cfg.Server.RequestTimeout),
	).Register(router)

	srv := httpserver.New(cfg.Server, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting blueprints", "addr", cfg.Server.Addr, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if b.relay != nil {
		g.Go(func() error {
			return b.relay.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		return err
	}
	return nil
}

func newResolver(cfg *config.Config, log *slog.Logger) (*authz.Resolver, error) {
	if cfg.Authz.PolicyPath == "" {
		log.Warn("AUTHZ_POLICY_PATH not set, no permissions are granted")
		return authz.New(authz.WithLogger(log))
	}
	return authz.NewFromFile(cfg.Authz.PolicyPath, authz.WithLogger(log))
}
