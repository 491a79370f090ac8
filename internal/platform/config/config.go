// Copyright (c) 2026 PMDCollab. All rights reserved.

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (git store, Redis, server) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/pmdcollab/spritecollab-srv/internal/platform/constants"
)

// # Configuration Schema

// Config holds all runtime configuration for the SpriteCollab server.
type Config struct {

	// Address is the host:port the HTTP server binds to.
	Address string `env:"SCSRV_ADDRESS,required"`

	// GitRepo is the clone URL of the upstream assets repository.
	GitRepo string `env:"SCSRV_GIT_REPO,required"`

	// GitAssetsURL is the public base URL under which the raw repository
	// contents are reachable (used when generating asset URLs).
	GitAssetsURL string `env:"SCSRV_GIT_ASSETS_URL,required"`

	// Workdir is the directory that holds the working clone.
	Workdir string `env:"SCSRV_WORKDIR,required"`

	// Key-Value Cache (Redis)
	RedisHost string `env:"SCSRV_REDIS_HOST,required"`
	RedisPort int    `env:"SCSRV_REDIS_PORT,required"`

	// RefreshInterval overrides how often the upstream repository is polled.
	RefreshInterval time.Duration `env:"SCSRV_REFRESH_INTERVAL" envDefault:"15m"`

	// Debug enables verbose logging.
	Debug bool `env:"SCSRV_DEBUG" envDefault:"false"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"SCSRV_EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// RepoPath returns the path of the working clone inside the workdir.
func (c *Config) RepoPath() string {
	return filepath.Join(c.Workdir, constants.GitRepoDir)
}

// RedisAddr returns the host:port address of the Redis server.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
