// Copyright (c) 2026 PMDCollab. All rights reserved.

/*
Package scheduler runs the periodic data refresh.

A single goroutine ticks at the configured interval and invokes the refresh
callback. Shutdown preempts the wait for the next tick; a refresh already in
flight completes before Shutdown returns.
*/
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler drives the refresh loop.
type Scheduler struct {
	shutdown chan struct{}
	done     chan struct{}
}

// Start launches the refresh loop. refresh is invoked once per interval
// until Shutdown is called.
func Start(interval time.Duration, refresh func(context.Context), logger *slog.Logger) *Scheduler {
	scheduler := &Scheduler{
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	go func() {
		defer close(scheduler.done)
		logger.Info("starting_refresh_scheduler", slog.Duration("interval", interval))

		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-scheduler.shutdown:
				logger.Info("stopped_refresh_scheduler")
				return
			case <-timer.C:
				refresh(context.Background())
				timer.Reset(interval)
			}
		}
	}()

	return scheduler
}

// Shutdown stops the loop. It blocks until the current refresh (if any)
// has completed.
func (s *Scheduler) Shutdown() {
	close(s.shutdown)
	<-s.done
}
