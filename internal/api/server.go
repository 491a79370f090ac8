// Copyright (c) 2026 PMDCollab. All rights reserved.

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pmdcollab/spritecollab-srv/internal/assets"
	"github.com/pmdcollab/spritecollab-srv/internal/collab"
	"github.com/pmdcollab/spritecollab-srv/internal/platform/config"
	"github.com/pmdcollab/spritecollab-srv/internal/platform/constants"
	"github.com/pmdcollab/spritecollab-srv/internal/platform/middleware"
	"github.com/pmdcollab/spritecollab-srv/internal/platform/respond"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Assets serves the derived binary asset routes.
	Assets *assets.Handler

	// Status reports the snapshot meta (commit, update times).
	Status http.HandlerFunc
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups. The GraphQL schema, once wired, mounts next
// to the asset routes.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, h Handlers) *Server {
	rte := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	rte.Use(middleware.RequestID())
	rte.Use(middleware.StructuredLogger(log))
	rte.Use(middleware.RateLimit(ctx))
	rte.Use(middleware.PanicRecovery(log))
	rte.Use(middleware.CORS(cfg.ExtraOrigins))
	rte.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	rte.Get("/health", h.Liveness)
	rte.Get("/ready", h.Readiness)
	rte.Get("/status", h.Status)

	// # Asset Surface
	rte.Mount("/assets", h.Assets.Routes())

	// Everything else is unknown.
	rte.NotFound(func(writer http.ResponseWriter, request *http.Request) {
		respond.Text(writer, http.StatusNotFound, "not found")
	})

	return &Server{
		router: rte,
		log:    log,
		httpServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           rte,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Status Handler

// NewStatusHandler reports the meta of the published snapshot.
func NewStatusHandler(sc *collab.SpriteCollab) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		snapshot := sc.Snapshot()
		respond.OK(writer, map[string]interface{}{
			"assets_commit":       snapshot.Meta.AssetsCommit,
			"assets_update_date":  snapshot.Meta.AssetsUpdateDate,
			"update_checked_date": snapshot.Meta.UpdateCheckedDate,
			"stale":               snapshot.Meta.Stale,
		})
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
