// Copyright (c) 2026 PMDCollab. All rights reserved.

/*
Api is the entry point for the SpriteCollab asset server.

The server exposes a read-only API over the community-curated repository of
monster sprite animations and portrait artwork: it keeps a working clone of
the upstream git repository, publishes parsed snapshots of its data files,
and serves derived binary assets (portrait sheets, recolor sheets, sprite
archives) through a Redis-backed cache.

Usage:

	go run cmd/api/main.go

The environment variables are:

	SCSRV_ADDRESS         host:port to listen on (required)
	SCSRV_GIT_REPO        clone URL of the assets repository (required)
	SCSRV_GIT_ASSETS_URL  public base URL of the raw assets (required)
	SCSRV_WORKDIR         directory for the working clone (required)
	SCSRV_REDIS_HOST      Redis host (required)
	SCSRV_REDIS_PORT      Redis port (required)

Startup Sequence:

 1. Logger: Initialize structured JSON logging (slog).
 2. Config: Load and validate environment variables.
 3. Redis: Connect the derived-asset cache.
 4. Snapshot: Clone/refresh the repository and publish the first snapshot,
    rewinding through history if the newest tree does not parse.
 5. Scheduler: Start the periodic refresh loop.
 6. Server: Bind HTTP listener and handle graceful shutdown.

No business logic lives here. This file is strictly for orchestration and wiring.
*/
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
	"time"

	"github.com/pmdcollab/spritecollab-srv/internal/api"
	"github.com/pmdcollab/spritecollab-srv/internal/assets"
	"github.com/pmdcollab/spritecollab-srv/internal/cache"
	"github.com/pmdcollab/spritecollab-srv/internal/collab"
	"github.com/pmdcollab/spritecollab-srv/internal/datafiles"
	"github.com/pmdcollab/spritecollab-srv/internal/platform/config"
	"github.com/pmdcollab/spritecollab-srv/internal/platform/constants"
	"github.com/pmdcollab/spritecollab-srv/internal/platform/gitrepo"
	redisstore "github.com/pmdcollab/spritecollab-srv/internal/platform/redis"
	"github.com/pmdcollab/spritecollab-srv/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// # 1. Logger
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries for trace correlation
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	// # 2. Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Adjust log level if debug mode is explicitly enabled
	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("address", cfg.Address),
		slog.String("workdir", cfg.Workdir),
	)

	// Root context for startup. The initial clone of the assets repository
	// can legitimately take a while.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer startupCancel()

	// # 3. Redis
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisAddr(), log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_error", slog.Any("error", cerr))
		}
	}()

	derivedCache := cache.New(cache.NewRedisStore(rdb), log)

	// # 4. Snapshot
	repo := gitrepo.New(cfg.RepoPath(), log)
	sc, err := collab.New(startupCtx, repo, derivedCache, cfg.GitRepo, log)
	if err != nil {
		return fmt.Errorf("publish initial snapshot: %w", err)
	}

	// # 5. Scheduler
	refreshLoop := scheduler.Start(cfg.RefreshInterval, sc.Refresh, log)
	defer refreshLoop.Shutdown()

	// # 6. Health Wiring
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
		CheckSnapshot: func() error {
			if sc.Snapshot() == nil {
				return errors.New("no snapshot published")
			}
			return nil
		},
	}, log)

	// # 7. Asset Surface
	assetsHdl := assets.NewHandler(func() (*datafiles.SpriteConfig, datafiles.Tracker) {
		data := sc.Data()
		return data.SpriteConfig, data.Tracker
	}, derivedCache, cfg.RepoPath())

	// # 8. API Assembly
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Assets:    assetsHdl,
		Status:    api.NewStatusHandler(sc),
	}

	// Create a background context for the whole application lifecycle
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	server := api.NewServer(appCtx, cfg, log, handlers)

	// # 9. Lifecycle Handling
	shutdownErr := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr <- fmt.Errorf("http_server_crash: %w", err)
		}
	}()

	log.Info("spritecollab_srv_running", slog.String("address", cfg.Address))

	// Block until signal or error
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-shutdownErr:
		return err
	}

	// Start Graceful Shutdown Sequence
	appCancel() // Signal background workers to stop

	log.Info("shutting_down_api_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("server_shutdown_failed: %w", err)
	}

	log.Info("graceful_shutdown_complete")
	return nil
}
