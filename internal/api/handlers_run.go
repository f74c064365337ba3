// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sts-platform/kpipulse/internal/models"
)

// TriggerResponse is the payload of a manual reminder run.
type TriggerResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Summary   models.RunSummary `json:"summary"`
}

// TriggerRun handles POST /api/v1/scheduler/run: a synchronous reminder run
// outside the daily schedule. Partial delivery failures still return 200;
// only a failed due query is a server error.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	summary, err := h.runner.Run(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Str("run_id", summary.RunID).Msg("Manual reminder run failed")
		rw.WriteData(http.StatusInternalServerError, TriggerResponse{
			Status:    "error",
			Message:   "Reminder run failed: " + err.Error(),
			Timestamp: time.Now(),
			Summary:   summary,
		})
		return
	}

	rw.Success(TriggerResponse{
		Status: "success",
		Message: fmt.Sprintf("Reminder run complete: %d sent, %d failed, %d schedules advanced",
			summary.Sent, summary.Failed, summary.Advanced),
		Timestamp: time.Now(),
		Summary:   summary,
	})
}
