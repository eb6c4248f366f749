package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"binoqule/internal/platform/metrics"
	"binoqule/internal/team"
	"binoqule/pkg/platform/httputil"
	"binoqule/pkg/platform/middleware/admin"
	"binoqule/pkg/platform/middleware/metadata"
	"binoqule/pkg/platform/middleware/request"
	"binoqule/pkg/platform/middleware/requesttime"
)

// HealthChecker reports whether a dependency is usable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type routerDeps struct {
	logger     *slog.Logger
	adminToken string
	registry   *prometheus.Registry
	health     HealthChecker
	team       *team.Handler
}

func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(chimw.Recoverer)

	r.Get("/health", healthHandler(deps.health))
	r.Handle("/metrics", metrics.Handler(deps.registry))

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(deps.adminToken, deps.logger))
		deps.team.Register(r)
	})
	return r
}

func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := checker.Health(ctx); err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
