// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

package api

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sts-platform/kpipulse/internal/logging"
	"github.com/sts-platform/kpipulse/internal/models"
)

// Store is the persistence surface the handlers need.
type Store interface {
	Ping(ctx context.Context) error
	GetForm(ctx context.Context, responsibleID int64, period string, plantID int64) (*models.FormData, error)
	ApplyFormEdits(ctx context.Context, edits []models.FormEdit) (int, error)
}

// Runner executes one reminder cycle on demand.
type Runner interface {
	Run(ctx context.Context) (models.RunSummary, error)
}

// SchedulerInfo exposes scheduler state to the health and status endpoints.
type SchedulerInfo interface {
	Active() bool
	LastRun() *time.Time
	NextRun() *time.Time
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	store        Store
	runner       Runner
	scheduler    SchedulerInfo
	loc          *time.Location
	dashboardURL string
	smtpEndpoint string
	logger       zerolog.Logger
}

// HandlerConfig bundles the handler's static settings.
type HandlerConfig struct {
	// Location is the operating zone the current reporting period is
	// evaluated in. Nil means UTC.
	Location *time.Location

	// DashboardURL is the external BI tool /dashboard redirects to.
	// Empty disables the redirect.
	DashboardURL string

	// SMTPEndpoint is the host:port reported by the status endpoint.
	SMTPEndpoint string
}

// NewHandler creates the HTTP handler set.
func NewHandler(store Store, runner Runner, scheduler SchedulerInfo, cfg HandlerConfig) *Handler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Handler{
		store:        store,
		runner:       runner,
		scheduler:    scheduler,
		loc:          cfg.Location,
		dashboardURL: cfg.DashboardURL,
		smtpEndpoint: cfg.SMTPEndpoint,
		logger:       logging.With().Str("component", "api").Logger(),
	}
}
