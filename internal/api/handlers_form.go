// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/sts-platform/kpipulse/internal/database"
	"github.com/sts-platform/kpipulse/internal/models"
	"github.com/sts-platform/kpipulse/internal/period"
)

const maxFormBodyBytes = 1 << 20

// FormGet handles GET /api/v1/form. Query parameters: responsible_id
// (required), period (optional, defaults to the current reporting week) and
// plant_id (optional filter).
func (h *Handler) FormGet(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()

	responsibleID, err := strconv.ParseInt(q.Get("responsible_id"), 10, 64)
	if err != nil || responsibleID <= 0 {
		rw.BadRequest("responsible_id must be a positive integer")
		return
	}

	p := q.Get("period")
	if p == "" {
		p = period.Current(time.Now(), h.loc).String()
	} else if _, err := period.Parse(p); err != nil {
		rw.BadRequest("period must look like 2025-W43")
		return
	}

	var plantID int64
	if raw := q.Get("plant_id"); raw != "" {
		plantID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || plantID <= 0 {
			rw.BadRequest("plant_id must be a positive integer")
			return
		}
	}

	form, err := h.store.GetForm(r.Context(), responsibleID, p, plantID)
	if errors.Is(err, database.ErrNotFound) {
		rw.NotFound("Responsible not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(form)
}

// SubmitResponse is the payload of a form write.
type SubmitResponse struct {
	Applied int `json:"applied"`
}

// FormSubmit handles POST /api/v1/form. The body is a JSON array of partial
// edits; unknown kpi_values_ids are skipped and absent fields keep their
// prior values.
func (h *Handler) FormSubmit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var edits []models.FormEdit
	body := http.MaxBytesReader(w, r.Body, maxFormBodyBytes)
	if err := json.NewDecoder(body).Decode(&edits); err != nil {
		rw.BadRequest("Request body must be a JSON array of edits")
		return
	}
	for _, edit := range edits {
		if edit.KpiValuesID <= 0 {
			rw.BadRequest("kpi_values_id must be a positive integer")
			return
		}
	}

	applied, err := h.store.ApplyFormEdits(r.Context(), edits)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	h.logger.Info().Int("edits", len(edits)).Int("applied", applied).Msg("Form edits applied")
	rw.Success(SubmitResponse{Applied: applied})
}
