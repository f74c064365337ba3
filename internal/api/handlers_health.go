// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

package api

import (
	"net/http"
	"time"

	"github.com/sts-platform/kpipulse/internal/models"
	"github.com/sts-platform/kpipulse/internal/period"
)

// Health handles GET /api/v1/health. Unhealthy means the database is
// unreachable; a deliberately disabled scheduler does not degrade health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := models.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Database:  "connected",
		Scheduler: "inactive",
	}
	if h.scheduler.Active() {
		status.Scheduler = "active"
	}

	code := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Health check: database unreachable")
		status.Status = "unhealthy"
		status.Database = "disconnected"
		code = http.StatusServiceUnavailable
	}

	rw.WriteData(code, status)
}

// Status handles GET /api/v1/status: the scheduler state, current reporting
// period and delivery endpoint.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	now := time.Now()
	rw.Success(models.SystemStatus{
		Running:       h.scheduler.Active(),
		CurrentPeriod: period.Current(now, h.loc).String(),
		NextRun:       h.scheduler.NextRun(),
		LastRun:       h.scheduler.LastRun(),
		ServerTime:    now,
		SMTPEndpoint:  h.smtpEndpoint,
	})
}

// Dashboard handles GET /dashboard: a redirect to the external BI tool.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h.dashboardURL == "" {
		NewResponseWriter(w, r).NotFound("No dashboard URL configured")
		return
	}
	http.Redirect(w, r, h.dashboardURL, http.StatusFound)
}
