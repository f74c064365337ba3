// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

package database

import (
	"context"
	"fmt"
)

// schemaStatements create the four tables. kpi_values rows are provisioned
// by an external process; this service only reads them and updates the two
// free-text columns.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS plants (
		plant_id BIGINT PRIMARY KEY,
		name VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS responsibles (
		responsible_id BIGINT PRIMARY KEY,
		name VARCHAR NOT NULL,
		email VARCHAR NOT NULL,
		plant_id BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS kpis (
		kpi_id BIGINT PRIMARY KEY,
		name VARCHAR NOT NULL,
		objective VARCHAR,
		frequency_days INTEGER NOT NULL DEFAULT 7,
		last_triggered_at TIMESTAMP NOT NULL DEFAULT now(),
		next_due_at TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS kpi_values (
		kpi_values_id BIGINT PRIMARY KEY,
		kpi_id BIGINT NOT NULL,
		responsible_id BIGINT NOT NULL,
		plant_id BIGINT,
		period VARCHAR NOT NULL,
		value VARCHAR,
		"analyse" VARCHAR,
		actions_correctives VARCHAR
	)`,
}

// initSchema creates the tables if they do not exist.
func (db *DB) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
