// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ttl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/MindMesh/pkg/logging"
)

// SweepFunc is one unit of periodic cleanup work. Implementations must be
// non-blocking apart from the work itself and must tolerate being called
// again on the next tick regardless of prior outcome.
type SweepFunc func(ctx context.Context)

// SchedulerConfig holds configuration for the background sweep scheduler.
//
// # Fields
//
//   - Interval: how often to run a sweep cycle. Default: 1 minute.
//     Presence eviction and room expiry both ride this cadence; their
//     thresholds are baked into the SweepFuncs by the caller.
type SchedulerConfig struct {
	Interval time.Duration
}

// DefaultSchedulerConfig returns production defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{Interval: 1 * time.Minute}
}

// Scheduler runs registered sweeps at a fixed interval using the
// ticker + done channel pattern for graceful shutdown.
//
// # Thread Safety
//
// All public methods are thread-safe. Only one Start is allowed until Stop
// completes.
type Scheduler struct {
	config  SchedulerConfig
	sweeps  []SweepFunc
	audit   *logging.Logger
	done    chan struct{}
	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler over the given sweeps.
//
// audit may be nil, in which case cycle records go to slog only.
func NewScheduler(config SchedulerConfig, audit *logging.Logger, sweeps ...SweepFunc) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerConfig().Interval
	}
	return &Scheduler{
		config: config,
		sweeps: sweeps,
		audit:  audit,
		done:   make(chan struct{}),
	}
}

// Start begins the background sweep loop. Returns an error if the
// scheduler is already running. The loop stops when Stop is called or ctx
// is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.done = make(chan struct{}) // reset for restart
	s.mu.Unlock()

	slog.Info("TTL sweep scheduler starting",
		"interval", s.config.Interval.String(),
		"sweeps", len(s.sweeps),
	)

	go s.runLoop(ctx)
	return nil
}

// Stop signals the loop to exit. Safe to call multiple times; does not
// interrupt a sweep already in progress.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	slog.Info("TTL sweep scheduler stopping")
	close(s.done)
	s.running = false
	return nil
}

// RunNow executes one sweep cycle immediately, outside the tick cadence.
// Used at startup and by tests.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.runCycle(ctx)
}

func (s *Scheduler) runLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runCycle(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			slog.Info("TTL sweep scheduler context cancelled")
			return
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	start := time.Now()
	for _, sweep := range s.sweeps {
		sweep(ctx)
	}
	elapsed := time.Since(start)

	if s.audit != nil {
		s.audit.Info("sweep cycle complete",
			"sweeps", len(s.sweeps),
			"elapsed_ms", elapsed.Milliseconds(),
		)
	} else {
		slog.Debug("Sweep cycle complete", "elapsed", elapsed.String())
	}
}
