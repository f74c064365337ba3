// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

// Package period derives the ISO-8601 year-week reporting period that keys
// every kpi_values row. Weeks start on Monday; week 1 is the week containing
// the year's first Thursday.
package period

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Period identifies one reporting week.
type Period struct {
	Year int
	Week int
}

// Current computes the reporting period for the given instant in the given
// zone. The zone matters: an instant near midnight can fall in different ISO
// weeks depending on the organization's operating time zone.
func Current(now time.Time, loc *time.Location) Period {
	if loc == nil {
		loc = time.UTC
	}
	year, week := now.In(loc).ISOWeek()
	return Period{Year: year, Week: week}
}

// String formats the period canonically as YYYY-Www with a zero-padded week,
// e.g. "2025-W43".
func (p Period) String() string {
	return fmt.Sprintf("%04d-W%02d", p.Year, p.Week)
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Week == 0
}

var periodPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// Parse parses a canonical YYYY-Www period string.
func Parse(s string) (Period, error) {
	m := periodPattern.FindStringSubmatch(s)
	if m == nil {
		return Period{}, fmt.Errorf("invalid period %q: want YYYY-Www", s)
	}
	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	if week < 1 || week > 53 {
		return Period{}, fmt.Errorf("invalid period %q: week out of range", s)
	}
	return Period{Year: year, Week: week}, nil
}
