// Copyright (c) 2026 PMDCollab. All rights reserved.

/*
Package constants provides centralized, immutable values for the entire server.

It defines default timeouts, refresh timings, and cross-cutting keys that are
shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Data Refresh: Scheduler interval and refresh state-lock timeout.
  - Rate Limiting: Burst capacities and IP tracking TTLs.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "spritecollab-srv"
	APIVersion = "1.6"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	// Sheet builds on large sprite sets can take a while on cold cache.
	DefaultWriteTimeout = 60 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Data Refresh

const (
	// DefaultRefreshInterval is how often the scheduler checks the upstream
	// repository for new commits.
	DefaultRefreshInterval = 15 * time.Minute

	// RefreshStateTimeout is the maximum time a refresh cycle waits to
	// acquire the refresh state lock before giving up with a warning.
	RefreshStateTimeout = 6 * time.Minute

	// GitRepoDir is the directory inside the workdir that holds the clone of
	// the upstream assets repository.
	GitRepoDir = "spritecollab"
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitClientTTL is how long an idle client entry is tracked.
	RateLimitClientTTL = 3 * time.Minute
)

// # HTTP Headers

const (
	HeaderXRequestID = "X-Request-ID"
)

const (
	HeaderOrigin        = "Origin"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
)

// # JSON Error Fields

const (
	FieldCode  = "code"
	FieldError = "error"
)

// RateLimitCleanupInterval is how often stale rate-limit clients are evicted.
const RateLimitCleanupInterval = time.Minute

// # JSON Status Fields

const (
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
)
