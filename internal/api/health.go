// Copyright (c) 2026 PMDCollab. All rights reserved.

/*
Package api wires the HTTP router, middleware chain and handlers into a
runnable [http.Server], and implements the observability endpoints.

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"log/slog"
	"net/http"

	"github.com/pmdcollab/spritecollab-srv/internal/platform/constants"
	"github.com/pmdcollab/spritecollab-srv/internal/platform/respond"
)

// # Data Structures

// HealthDependencies holds the injectable dependency checkers for system probes.
type HealthDependencies struct {
	// CheckCache performs a shallow ping of the Redis client.
	CheckCache func() error

	// CheckSnapshot verifies that a snapshot is published and serveable.
	CheckSnapshot func() error
}

// healthHandler orchestrates the execution of connectivity checks.
type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

// # Constructors

// NewHealthHandlers constructs the liveness and readiness [http.HandlerFunc] pair.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{
		dependencies: deps,
		logger:       logger,
	}
	return handler.liveness, handler.readiness
}

// # Handlers

// liveness handles GET /health.
// It confirms that the HTTP server is alive and accepting connections.
func (handler *healthHandler) liveness(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, map[string]string{
		constants.FieldStatus:  "ok",
		constants.FieldApp:     constants.AppName,
		constants.FieldVersion: constants.APIVersion,
	})
}

// readiness handles GET /ready.
// It verifies that all downstream dependencies (cache, snapshot) are healthy.
func (handler *healthHandler) readiness(writer http.ResponseWriter, _ *http.Request) {

	// Inner type for individual check reporting
	type checkResult struct {
		Name  string `json:"name"`
		IsOK  bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	results := make([]checkResult, 0, 2)
	isSystemReady := true

	// 1. Check Redis connectivity
	if handler.dependencies.CheckCache != nil {
		result := checkResult{Name: "redis", IsOK: true}
		if err := handler.dependencies.CheckCache(); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			isSystemReady = false
			handler.logger.Error("readiness_check_failed",
				slog.String("dependency", "redis"),
				slog.Any("error", err),
			)
		}
		results = append(results, result)
	}

	// 2. Check the published snapshot
	if handler.dependencies.CheckSnapshot != nil {
		result := checkResult{Name: "snapshot", IsOK: true}
		if err := handler.dependencies.CheckSnapshot(); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			isSystemReady = false
			handler.logger.Error("readiness_check_failed",
				slog.String("dependency", "snapshot"),
				slog.Any("error", err),
			)
		}
		results = append(results, result)
	}

	status := http.StatusOK
	if !isSystemReady {
		status = http.StatusServiceUnavailable
	}
	respond.JSON(writer, status, map[string]interface{}{
		constants.FieldStatus: map[bool]string{true: "ready", false: "degraded"}[isSystemReady],
		"checks":              results,
	})
}
