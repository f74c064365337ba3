// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

package database

import (
	"context"
	"time"
)

// Insert helpers used by provisioning scripts and tests. The reminder
// service itself never creates these rows.

// InsertPlant inserts a plant row.
func (db *DB) InsertPlant(ctx context.Context, plantID int64, name string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO plants (plant_id, name) VALUES (?, ?)`, plantID, name)
	if err != nil {
		return unavailable("insert plant", err)
	}
	return nil
}

// InsertResponsible inserts a responsible row. plantID zero means no plant.
func (db *DB) InsertResponsible(ctx context.Context, responsibleID int64, name, email string, plantID int64) error {
	var plant any
	if plantID != 0 {
		plant = plantID
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO responsibles (responsible_id, name, email, plant_id) VALUES (?, ?, ?, ?)`,
		responsibleID, name, email, plant)
	if err != nil {
		return unavailable("insert responsible", err)
	}
	return nil
}

// InsertKpi inserts a KPI definition with an explicit next due timestamp.
func (db *DB) InsertKpi(ctx context.Context, kpiID int64, name, objective string, frequencyDays int, nextDueAt time.Time) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO kpis (kpi_id, name, objective, frequency_days, last_triggered_at, next_due_at)
		VALUES (?, ?, ?, ?, now(), ?)`,
		kpiID, name, objective, frequencyDays, nextDueAt)
	if err != nil {
		return unavailable("insert kpi", err)
	}
	return nil
}

// InsertKpiValue inserts a kpi_values row. plantID zero means no plant.
func (db *DB) InsertKpiValue(ctx context.Context, kpiValuesID, kpiID, responsibleID, plantID int64, period, value string) error {
	var plant any
	if plantID != 0 {
		plant = plantID
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO kpi_values (kpi_values_id, kpi_id, responsible_id, plant_id, period, value)
		VALUES (?, ?, ?, ?, ?, ?)`,
		kpiValuesID, kpiID, responsibleID, plant, period, value)
	if err != nil {
		return unavailable("insert kpi value", err)
	}
	return nil
}

// NextDueAt returns a KPI's next due timestamp. Used by tests to observe
// schedule advancement without exposing the recurrence rule.
func (db *DB) NextDueAt(ctx context.Context, kpiID int64) (time.Time, error) {
	var next time.Time
	err := db.conn.QueryRowContext(ctx,
		`SELECT next_due_at FROM kpis WHERE kpi_id = ?`, kpiID).Scan(&next)
	if err != nil {
		return time.Time{}, unavailable("next due at", err)
	}
	return next, nil
}
