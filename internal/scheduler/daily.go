// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

// Package scheduler fires the reminder cycle once a day at a fixed wall
// clock time in the configured operating zone.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sts-platform/kpipulse/internal/logging"
	"github.com/sts-platform/kpipulse/internal/models"
)

// Runner executes one reminder cycle.
type Runner interface {
	Run(ctx context.Context) (models.RunSummary, error)
}

// Config holds the daily trigger settings.
type Config struct {
	// Enabled controls whether the scheduler fires at all. A disabled
	// scheduler still starts and stops cleanly under the supervisor.
	Enabled bool

	// Hour and Minute are the daily fire time on the Location wall clock.
	Hour   int
	Minute int

	// Location is the operating zone. Nil means UTC.
	Location *time.Location

	// ExecutionTimeout bounds a single reminder run.
	ExecutionTimeout time.Duration
}

// Scheduler fires a Runner once a day.
type Scheduler struct {
	runner Runner
	config Config
	logger zerolog.Logger

	// Runtime state
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	lastRun *time.Time
	nextRun *time.Time
}

// New creates a daily scheduler.
func New(runner Runner, config Config) *Scheduler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.ExecutionTimeout <= 0 {
		config.ExecutionTimeout = 5 * time.Minute
	}

	return &Scheduler{
		runner: runner,
		config: config,
		logger: logging.With().Str("component", "scheduler").Logger(),
	}
}

// NextFireTime returns the first daily fire time strictly after the given
// instant, evaluated on the configured zone's wall clock.
func (s *Scheduler) NextFireTime(after time.Time) time.Time {
	local := after.In(s.config.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(),
		s.config.Hour, s.config.Minute, 0, 0, s.config.Location)
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	if !s.config.Enabled {
		s.logger.Info().Msg("Reminder scheduler disabled")
		// Keep goroutine alive but don't do anything
		go func() {
			defer close(s.doneCh)
			<-s.stopCh
		}()
		return nil
	}

	s.logger.Info().
		Int("hour", s.config.Hour).
		Int("minute", s.config.Minute).
		Str("timezone", s.config.Location.String()).
		Msg("Starting reminder scheduler")

	go s.run(ctx)
	return nil
}

// Stop stops the scheduler loop and waits for it to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.logger.Info().Msg("Stopping reminder scheduler...")
	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.nextRun = nil
	s.mu.Unlock()

	s.logger.Info().Msg("Reminder scheduler stopped")
	return nil
}

// run is the main scheduler loop: sleep until the next fire time, execute,
// repeat. Recomputing from the wall clock after every run keeps the fire
// time stable across DST transitions.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	for {
		next := s.NextFireTime(time.Now())
		s.setNextRun(next)
		s.logger.Info().Time("next_run", next).Msg("Reminder scheduled")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			s.execute(ctx)
		case <-s.stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// execute runs one reminder cycle with a bounded timeout.
func (s *Scheduler) execute(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.ExecutionTimeout)
	defer cancel()

	fired := time.Now()
	summary, err := s.runner.Run(runCtx)

	s.mu.Lock()
	s.lastRun = &fired
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Str("run_id", summary.RunID).Msg("Scheduled reminder run failed")
		return
	}
	s.logger.Info().
		Str("run_id", summary.RunID).
		Int("sent", summary.Sent).
		Int("failed", summary.Failed).
		Msg("Scheduled reminder run complete")
}

func (s *Scheduler) setNextRun(t time.Time) {
	s.mu.Lock()
	s.nextRun = &t
	s.mu.Unlock()
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Active returns whether the scheduler is running with firing enabled.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.config.Enabled
}

// LastRun returns when the last scheduled run fired, if any.
func (s *Scheduler) LastRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil {
		return nil
	}
	t := *s.lastRun
	return &t
}

// NextRun returns the next planned fire time, if the loop is armed.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextRun == nil {
		return nil
	}
	t := *s.nextRun
	return &t
}
