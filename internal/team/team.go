// Package team wires the team member module: store selection, service and
// HTTP handler.
package team

import (
	"context"
	"fmt"
	"log/slog"

	"binoqule/internal/platform/config"
	"binoqule/internal/platform/database"
	"binoqule/internal/platform/lock"
	"binoqule/internal/platform/redis"
	"binoqule/internal/team/handler"
	"binoqule/internal/team/service"
	"binoqule/internal/team/store"
)

// Service exposes team member management and ordering.
type Service = service.Service

// Handler wires HTTP endpoints to the team service.
type Handler = handler.Handler

// Store is the member persistence the service runs on.
type Store = service.Store

// OpenStore opens the member store for the configured driver. The returned
// close function releases the underlying connection.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (Store, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return store.NewInMemory(), func() error { return nil }, nil
	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store.NewSQLite(db), db.Close, nil
	case config.DriverPostgres:
		db, err := database.OpenPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgres(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// NewLocker returns a Redis lock when Redis is configured, otherwise an
// in-process lock. The close function releases the Redis client.
func NewLocker(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (lock.Locker, func() error, error) {
	client, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return lock.NewLocal(), func() error { return nil }, nil
	}
	return lock.NewRedis(client.Client, cfg.LockTTL, cfg.LockRetry, logger), client.Close, nil
}

// NewService constructs the team service over s.
func NewService(s Store, opts ...service.Option) *Service {
	return service.New(s, opts...)
}

// NewHandler constructs an HTTP handler for admin-facing team routes.
func NewHandler(s *Service, activity handler.ActivityReader, logger *slog.Logger) *Handler {
	return handler.New(s, activity, logger)
}
