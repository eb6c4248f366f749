// Command teamctl inspects and repairs the team order from a shell, against
// the same database and lock the server uses.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"binoqule/internal/platform/config"
	"binoqule/internal/platform/logger"
	"binoqule/internal/team"
	"binoqule/internal/team/service"
)

func main() {
	if err := newRootCmd(openService).Execute(); err != nil {
		os.Exit(1)
	}
}

// openService builds the team service from BINOQULE_* environment variables.
func openService(ctx context.Context) (teamService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewWithWriter(os.Stderr, cfg.Log)

	store, closeStore, err := team.OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open team store: %w", err)
	}
	locker, closeLocker, err := team.NewLocker(ctx, cfg.Redis, log)
	if err != nil {
		_ = closeStore()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	svc := team.NewService(store, service.WithLogger(log), service.WithLocker(locker))
	cleanup := func() {
		if err := errors.Join(closeLocker(), closeStore()); err != nil {
			log.Error("failed to close resources", "error", err)
		}
	}
	return svc, cleanup, nil
}
