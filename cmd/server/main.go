package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"binoqule/internal/audit"
	"binoqule/internal/platform/config"
	"binoqule/internal/platform/httpserver"
	"binoqule/internal/platform/logger"
	"binoqule/internal/platform/metrics"
	"binoqule/internal/team"
	teammetrics "binoqule/internal/team/metrics"
	"binoqule/internal/team/service"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "binoqule: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := team.OpenStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open team store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("failed to close team store", "error", err)
		}
	}()

	locker, closeLocker, err := team.NewLocker(ctx, cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := closeLocker(); err != nil {
			log.Error("failed to close redis client", "error", err)
		}
	}()

	registry := metrics.NewRegistry()
	activity := audit.NewPublisher(audit.NewInMemoryStore(audit.DefaultCapacity))
	svc := team.NewService(store,
		service.WithLogger(log),
		service.WithMetrics(teammetrics.New(registry)),
		service.WithLocker(locker),
		service.WithAuditPublisher(activity),
	)

	router := newRouter(routerDeps{
		logger:     log,
		adminToken: cfg.Server.AdminToken,
		registry:   registry,
		health:     svc,
		team:       team.NewHandler(svc, activity, log),
	})
	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.ReadHeaderTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting binoqule", "addr", cfg.Server.Addr, "db_driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}
