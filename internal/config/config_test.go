// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

package config

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Schedule.Hour != 23 || cfg.Schedule.Minute != 35 {
		t.Errorf("default schedule = %02d:%02d, want 23:35", cfg.Schedule.Hour, cfg.Schedule.Minute)
	}
	if cfg.Schedule.Timezone != "Africa/Tunis" {
		t.Errorf("default timezone = %s, want Africa/Tunis", cfg.Schedule.Timezone)
	}
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	cfg := defaultConfig()
	cfg.Schedule.Timezone = "Mars/Olympus_Mons"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestValidateRejectsBadScheduleHour(t *testing.T) {
	cfg := defaultConfig()
	cfg.Schedule.Hour = 24
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for hour 24")
	}
}

func TestValidateRejectsMissingFromWhenScheduled(t *testing.T) {
	cfg := defaultConfig()
	cfg.SMTP.From = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty smtp.from with schedule enabled")
	}

	// Disabling the schedule lifts the requirement.
	cfg.Schedule.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with schedule disabled: %v", err)
	}
}

func TestValidateRejectsIdleOverOpen(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.MaxIdleConns = 50
	cfg.Database.MaxOpenConns = 10
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for idle > open")
	}
}

func TestValidateRejectsBadDashboardURL(t *testing.T) {
	cfg := defaultConfig()
	cfg.Dashboard.URL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for malformed dashboard url")
	}
}

func TestScheduleLocation(t *testing.T) {
	cfg := defaultConfig()
	loc := cfg.ScheduleLocation()
	if loc == nil {
		t.Fatal("nil location")
	}
	if loc.String() != "Africa/Tunis" {
		t.Errorf("location = %s, want Africa/Tunis", loc)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"PORT", "server.port"},
		{"APP_BASE_URL", "server.base_url"},
		{"DB_PATH", "database.path"},
		{"EMAIL_HOST", "smtp.host"},
		{"EMAIL_PASS", "smtp.password"},
		{"SCHEDULE_HOUR", "schedule.hour"},
		{"SCHEDULE_TIMEZONE", "schedule.timezone"},
		{"DASHBOARD_URL", "dashboard.url"},
		{"LOG_LEVEL", "logging.level"},
		{"RANDOM_HOST_VAR", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%s) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("SCHEDULE_MINUTE", "5")
	t.Setenv("EMAIL_HOST", "mail.internal")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("SMTP_TIMEOUT", "15s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Schedule.Minute != 5 {
		t.Errorf("minute = %d, want 5", cfg.Schedule.Minute)
	}
	if cfg.SMTP.Host != "mail.internal" {
		t.Errorf("smtp host = %s, want mail.internal", cfg.SMTP.Host)
	}
	if cfg.SMTP.Timeout != 15*time.Second {
		t.Errorf("smtp timeout = %v, want 15s", cfg.SMTP.Timeout)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != "https://a.example.com" {
		t.Errorf("cors origins = %v", cfg.Server.CORSOrigins)
	}
}
