// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator instances cache struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for invalid or inconsistent values.
// Struct tags cover ranges and formats; cross-field and environment-dependent
// rules live here.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return fmt.Errorf("invalid config field %s: failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return err
	}

	// The schedule zone must be a resolvable IANA name. An empty or bad
	// zone would silently fall back to host-local time, which is exactly
	// the failure mode a fixed operating zone exists to prevent.
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid schedule timezone %q: %w", c.Schedule.Timezone, err)
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database max_idle_conns (%d) exceeds max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	// Reminders cannot be delivered without a sender identity once the
	// scheduler is on.
	if c.Schedule.Enabled && c.SMTP.From == "" {
		return fmt.Errorf("smtp.from is required when the schedule is enabled")
	}

	if c.SMTP.Timeout <= 0 {
		return fmt.Errorf("smtp.timeout must be positive, got %v", c.SMTP.Timeout)
	}

	return nil
}

// ScheduleLocation returns the loaded operating time zone.
// Validate must have succeeded first.
func (c *Config) ScheduleLocation() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
