// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

// Package database wraps the DuckDB store behind the query surface the rest
// of the service depends on: the due-item join, the schedule advance, and the
// form read/write paths.
//
// The reminder recurrence rule lives entirely in this package: advancing a
// KPI touches last_triggered_at and recomputes next_due_at from the row's own
// frequency_days in a single statement. Callers only learn whether a matching
// KPI existed.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/sts-platform/kpipulse/internal/config"
	"github.com/sts-platform/kpipulse/internal/logging"
)

// Sentinel errors for the store contract.
var (
	// ErrNotFound indicates a lookup matched no row.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable indicates the store itself failed (connection loss,
	// exhaustion). Fatal for a reminder run.
	ErrUnavailable = errors.New("store unavailable")
)

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the database, applies connection limits and initializes the
// schema. An empty path opens an in-memory database (used by tests).
func New(cfg *config.DatabaseConfig) (*DB, error) {
	if cfg.Path != "" {
		// Ensure the parent directory exists so first boot on a fresh
		// volume does not fail with "No such file or directory".
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	conn, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 20
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().
		Str("component", "database").
		Str("path", cfg.Path).
		Int("max_open_conns", maxOpen).
		Msg("Database ready")

	return db, nil
}

// Ping verifies database connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// unavailable wraps driver-level failures into the ErrUnavailable taxonomy.
// Row-shape errors (sql.ErrNoRows) are never wrapped here.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
