// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

package services

import (
	"context"
	"fmt"
)

// ReminderScheduler matches the reminder scheduler's Start/Stop lifecycle.
// Satisfied by *scheduler.Scheduler.
type ReminderScheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// ReminderService wraps the daily reminder scheduler as a supervised
// service: Start on entry, block on the context, Stop on the way out. A
// failed Start returns immediately so suture restarts it with backoff.
type ReminderService struct {
	scheduler ReminderScheduler
	name      string
}

// NewReminderService creates a new reminder scheduler service wrapper.
func NewReminderService(scheduler ReminderScheduler) *ReminderService {
	return &ReminderService{
		scheduler: scheduler,
		name:      "reminder-scheduler",
	}
}

// Serve implements suture.Service.
func (s *ReminderService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("reminder scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("reminder scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (s *ReminderService) String() string {
	return s.name
}
