// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

// Package config loads layered service configuration: built-in defaults,
// an optional YAML file, then environment variables.
package config

import "time"

// Config is the root configuration for the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	SMTP      SMTPConfig      `koanf:"smtp"`
	Schedule  ScheduleConfig  `koanf:"schedule"`
	Dashboard DashboardConfig `koanf:"dashboard"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`

	// BaseURL is the externally reachable base used to build form links in
	// reminder emails, e.g. "https://kpi.example.com".
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file path. Empty means in-memory (tests).
	Path         string `koanf:"path"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"min=1"`
	MaxIdleConns int    `koanf:"max_idle_conns" validate:"min=0"`
}

// SMTPConfig holds outbound email settings.
type SMTPConfig struct {
	Host     string        `koanf:"host"`
	Port     int           `koanf:"port" validate:"min=1,max=65535"`
	From     string        `koanf:"from" validate:"omitempty,email"`
	FromName string        `koanf:"from_name"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	UseTLS   bool          `koanf:"use_tls"`
	Timeout  time.Duration `koanf:"timeout"`
}

// ScheduleConfig holds the daily reminder trigger settings.
type ScheduleConfig struct {
	Enabled bool `koanf:"enabled"`
	Hour    int  `koanf:"hour" validate:"min=0,max=23"`
	Minute  int  `koanf:"minute" validate:"min=0,max=59"`

	// Timezone is the named operating zone the daily fire time and the
	// reporting period are evaluated in, never the host's local zone.
	Timezone string `koanf:"timezone"`
}

// DashboardConfig points at the external BI tool the dashboard redirects to.
type DashboardConfig struct {
	URL string `koanf:"url" validate:"omitempty,url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. The schedule
// defaults mirror the production deployment: daily at 23:35 Africa/Tunis.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			Timeout:         30 * time.Second,
			BaseURL:         "",
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Path:         "/data/kpipulse.duckdb",
			MaxOpenConns: 20,
			MaxIdleConns: 1,
		},
		SMTP: SMTPConfig{
			Host:     "smtp.office365.com",
			Port:     587,
			From:     "kpi-automation@example.com",
			FromName: "Administration STS",
			UseTLS:   true,
			Timeout:  10 * time.Second,
		},
		Schedule: ScheduleConfig{
			Enabled:  true,
			Hour:     23,
			Minute:   35,
			Timezone: "Africa/Tunis",
		},
		Dashboard: DashboardConfig{
			URL: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
