// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sts-platform/kpipulse/internal/metrics"
	"github.com/sts-platform/kpipulse/internal/models"
	"github.com/sts-platform/kpipulse/internal/period"
)

// FindDueItems returns every (KPI, responsible[, plant]) combination where
// the KPI is due (next_due_at <= now) and a kpi_values row exists for the
// given period. Rows come back ordered by plant, KPI, responsible so that
// downstream grouping is stable. An empty result is not an error.
func (db *DB) FindDueItems(ctx context.Context, p period.Period) (items []models.DueItem, err error) {
	start := time.Now()
	defer func() { metrics.ObserveDBQuery("find_due_items", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT
			k.kpi_id,
			k.name,
			r.responsible_id,
			r.name,
			r.email,
			kv.period,
			kv.plant_id,
			p.name
		FROM kpis k
		JOIN kpi_values kv ON kv.kpi_id = k.kpi_id
		JOIN responsibles r ON r.responsible_id = kv.responsible_id
		LEFT JOIN plants p ON p.plant_id = kv.plant_id
		WHERE k.next_due_at <= now()
		  AND kv.period = ?
		ORDER BY COALESCE(kv.plant_id, 0), k.kpi_id, r.responsible_id`,
		p.String(),
	)
	if err != nil {
		return nil, unavailable("find due items", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			item      models.DueItem
			plantID   sql.NullInt64
			plantName sql.NullString
		)
		if err := rows.Scan(
			&item.KpiID,
			&item.KpiName,
			&item.ResponsibleID,
			&item.ResponsibleName,
			&item.Email,
			&item.Period,
			&plantID,
			&plantName,
		); err != nil {
			return nil, unavailable("scan due item", err)
		}
		if plantID.Valid {
			item.PlantID = plantID.Int64
			item.PlantName = plantName.String
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate due items", err)
	}

	return items, nil
}

// AdvanceSchedule touches the KPI's trigger timestamp, which recomputes its
// next due date from the row's own frequency. Returns whether a matching KPI
// was found. Each call is independent; a failure here never blocks other
// KPIs.
func (db *DB) AdvanceSchedule(ctx context.Context, kpiID int64) (found bool, err error) {
	start := time.Now()
	defer func() { metrics.ObserveDBQuery("advance_schedule", start, err) }()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE kpis
		SET last_triggered_at = now(),
		    next_due_at = now() + to_days(frequency_days)
		WHERE kpi_id = ?`,
		kpiID,
	)
	if err != nil {
		return false, unavailable("advance schedule", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("advance schedule result", err)
	}
	return affected > 0, nil
}

// GetForm returns the responsible's identity and their editable KPI values
// for a period, optionally filtered to one plant. Returns ErrNotFound when
// the responsible does not exist.
func (db *DB) GetForm(ctx context.Context, responsibleID int64, p string, plantID int64) (form *models.FormData, err error) {
	start := time.Now()
	defer func() { metrics.ObserveDBQuery("get_form", start, err) }()

	var (
		resp        models.Responsible
		respPlantID sql.NullInt64
	)
	err = db.conn.QueryRowContext(ctx, `
		SELECT responsible_id, name, email, plant_id
		FROM responsibles
		WHERE responsible_id = ?`,
		responsibleID,
	).Scan(&resp.ResponsibleID, &resp.Name, &resp.Email, &respPlantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("responsible %d: %w", responsibleID, ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("get responsible", err)
	}
	if respPlantID.Valid {
		resp.PlantID = respPlantID.Int64
	}

	form = &models.FormData{
		Responsible: resp,
		Period:      p,
	}

	// Resolve the plant context: an explicit filter wins, otherwise the
	// responsible's own plant when they have one.
	lookupPlant := plantID
	if lookupPlant == 0 {
		lookupPlant = resp.PlantID
	}
	if lookupPlant != 0 {
		var plant models.Plant
		err = db.conn.QueryRowContext(ctx,
			`SELECT plant_id, name FROM plants WHERE plant_id = ?`, lookupPlant,
		).Scan(&plant.PlantID, &plant.Name)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, unavailable("get plant", err)
		}
		if err == nil {
			form.Plant = &plant
		}
	}

	query := `
		SELECT kv.kpi_values_id, kv.kpi_id, k.name, k.objective, kv.value,
		       kv.period, kv."analyse", kv.actions_correctives
		FROM kpi_values kv
		JOIN kpis k ON k.kpi_id = kv.kpi_id
		WHERE kv.responsible_id = ? AND kv.period = ?`
	args := []any{responsibleID, p}
	if plantID != 0 {
		query += ` AND kv.plant_id = ?`
		args = append(args, plantID)
	}
	query += ` ORDER BY kv.kpi_id ASC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("get form values", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			v         models.FormValue
			objective sql.NullString
			value     sql.NullString
			analyse   sql.NullString
			actions   sql.NullString
		)
		if err := rows.Scan(&v.KpiValuesID, &v.KpiID, &v.KpiName, &objective,
			&value, &v.Period, &analyse, &actions); err != nil {
			return nil, unavailable("scan form value", err)
		}
		v.Objective = objective.String
		v.Value = value.String
		v.Analyse = analyse.String
		v.ActionsCorrectives = actions.String
		form.Values = append(form.Values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate form values", err)
	}

	return form, nil
}

// ApplyFormEdits applies partial updates to kpi_values rows in one
// transaction. Unspecified fields keep their prior values; identifiers that
// resolve to no row are skipped. Returns the number of rows updated.
func (db *DB) ApplyFormEdits(ctx context.Context, edits []models.FormEdit) (applied int, err error) {
	start := time.Now()
	defer func() { metrics.ObserveDBQuery("apply_form_edits", start, err) }()

	if len(edits) == 0 {
		return 0, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("begin form edits", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, edit := range edits {
		var oldAnalyse, oldActions sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT "analyse", actions_correctives FROM kpi_values WHERE kpi_values_id = ?`,
			edit.KpiValuesID,
		).Scan(&oldAnalyse, &oldActions)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return 0, unavailable("read prior form value", err)
		}

		newAnalyse := oldAnalyse.String
		if edit.Analyse != nil {
			newAnalyse = *edit.Analyse
		}
		newActions := oldActions.String
		if edit.ActionsCorrectives != nil {
			newActions = *edit.ActionsCorrectives
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE kpi_values
			SET "analyse" = ?, actions_correctives = ?
			WHERE kpi_values_id = ?`,
			newAnalyse, newActions, edit.KpiValuesID,
		); err != nil {
			return 0, unavailable("update form value", err)
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		return 0, unavailable("commit form edits", err)
	}
	return applied, nil
}
