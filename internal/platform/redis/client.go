// Copyright (c) 2026 PMDCollab. All rights reserved.

/*
Package redis provides a managed client for the derived-asset cache.

It is the only persistence layer of the server besides the git working tree:
expensive derivations (sheets, archives, search indexes) are memoized here and
wiped wholesale whenever the published snapshot changes.

Core Responsibilities:

  - Volatility: Entries have no TTL; they live until the next snapshot flush.
  - Speed: Low-latency access compared to re-running image composition.
  - Safety: Manages connection pooling and retry logic automatically.

This infrastructure component ensures that repeated asset requests do not
re-run CPU-heavy image work.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Opinionated default timeouts for Redis operations.
const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second

	// Retries back off from 1 second up to a cap of 10 seconds. go-redis grows
	// the jittered delay exponentially per attempt; the steps are not linear.
	retryBackoffStep = time.Second
	retryBackoffCap  = 10 * time.Second
	maxRetries       = 10
)

// NewClient connects to the Redis server at addr and returns a ready-to-use client.
//
// # Parameters
//   - context: Context for the initial ping.
//   - addr: host:port of the Redis server.
//   - logger: Structured logger for connection events.
func NewClient(context stdctx.Context, addr string, logger *slog.Logger) (*redis.Client, error) {
	options := &redis.Options{
		Addr: addr,

		// Pool configuration tuning
		PoolSize:     10,
		MinIdleConns: 2,
		MaxIdleConns: 5,

		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,

		MaxRetries:      maxRetries,
		MinRetryBackoff: retryBackoffStep,
		MaxRetryBackoff: retryBackoffCap,
	}

	client := redis.NewClient(options)

	// Validate connectivity immediately at startup.
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", options.Addr),
		slog.Int("pool_size", options.PoolSize),
	)

	return client, nil
}

// Ping verifies that the Redis client is healthy.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}

// FlushAll wipes the entire keyspace. Used at startup and on snapshot change.
func FlushAll(context stdctx.Context, client *redis.Client) error {
	if err := client.FlushAll(context).Err(); err != nil {
		return fmt.Errorf("redis: flushall failed: %w", err)
	}
	return nil
}
