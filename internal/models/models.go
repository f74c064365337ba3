// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

// Package models defines the domain types shared across KPIPulse.
package models

import "time"

// Kpi is a KPI definition. The reminder cadence is owned by the store:
// NextDueAt is recomputed whenever LastTriggeredAt is touched, and a KPI is
// due iff NextDueAt <= now.
type Kpi struct {
	KpiID           int64     `json:"kpi_id"`
	Name            string    `json:"name"`
	Objective       string    `json:"objective,omitempty"`
	FrequencyDays   int       `json:"frequency_days"`
	LastTriggeredAt time.Time `json:"last_triggered_at"`
	NextDueAt       time.Time `json:"next_due_at"`
}

// Responsible is the person accountable for reporting KPI values.
// PlantID is zero when the responsible is not attached to a plant.
type Responsible struct {
	ResponsibleID int64  `json:"responsible_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	PlantID       int64  `json:"plant_id,omitempty"`
}

// Plant is an optional site grouping a responsible may belong to.
type Plant struct {
	PlantID int64  `json:"plant_id"`
	Name    string `json:"name"`
}

// KpiValue is the user-editable reporting row for one KPI, responsible and
// period. Created by an external provisioning process; the service only
// updates the analyse and actions_correctives fields.
type KpiValue struct {
	KpiValuesID        int64  `json:"kpi_values_id"`
	KpiID              int64  `json:"kpi_id"`
	ResponsibleID      int64  `json:"responsible_id"`
	PlantID            int64  `json:"plant_id,omitempty"`
	Period             string `json:"period"`
	Value              string `json:"value,omitempty"`
	Analyse            string `json:"analyse,omitempty"`
	ActionsCorrectives string `json:"actions_correctives,omitempty"`
}

// DueItem is one (KPI, responsible, plant) combination due for reminding in
// the current period. Derived by joining kpis, kpi_values, responsibles and
// plants; never persisted.
type DueItem struct {
	KpiID           int64  `json:"kpi_id"`
	KpiName         string `json:"kpi_name"`
	ResponsibleID   int64  `json:"responsible_id"`
	ResponsibleName string `json:"responsible_name"`
	Email           string `json:"email"`
	Period          string `json:"period"`
	PlantID         int64  `json:"plant_id,omitempty"`
	PlantName       string `json:"plant_name,omitempty"`
}

// KpiRef identifies a KPI inside a notification group.
type KpiRef struct {
	KpiID int64  `json:"kpi_id"`
	Name  string `json:"name"`
}

// NotificationGroup is the unit of one outbound reminder: all due KPIs for
// one recipient, scoped to a plant when the due items carry one.
type NotificationGroup struct {
	ResponsibleID   int64    `json:"responsible_id"`
	ResponsibleName string   `json:"responsible_name"`
	Email           string   `json:"email"`
	PlantID         int64    `json:"plant_id,omitempty"`
	PlantName       string   `json:"plant_name,omitempty"`
	Period          string   `json:"period"`
	Kpis            []KpiRef `json:"kpis"`
}

// RunSummary is the externally observable result of one planner run.
type RunSummary struct {
	RunID           string        `json:"run_id"`
	Period          string        `json:"period"`
	GroupsAttempted int           `json:"groups_attempted"`
	Sent            int           `json:"sent"`
	Failed          int           `json:"failed"`
	Advanced        int           `json:"advanced"`
	AdvanceFailed   int           `json:"advance_failed"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
}

// FormValue is one editable row as presented by the form read path.
// KPI name, objective and raw value ride along read-only.
type FormValue struct {
	KpiValuesID        int64  `json:"kpi_values_id"`
	KpiID              int64  `json:"kpi_id"`
	KpiName            string `json:"kpi_name"`
	Objective          string `json:"objective,omitempty"`
	Value              string `json:"value,omitempty"`
	Period             string `json:"period"`
	Analyse            string `json:"analyse,omitempty"`
	ActionsCorrectives string `json:"actions_correctives,omitempty"`
}

// FormData is the form read-path payload for one responsible and period.
type FormData struct {
	Responsible Responsible `json:"responsible"`
	Plant       *Plant      `json:"plant,omitempty"`
	Period      string      `json:"period"`
	Values      []FormValue `json:"values"`
}

// FormEdit is one partial update from the form write path. Nil fields keep
// their prior value.
type FormEdit struct {
	KpiValuesID        int64   `json:"kpi_values_id"`
	Analyse            *string `json:"analyse,omitempty"`
	ActionsCorrectives *string `json:"actions_correctives,omitempty"`
}

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Scheduler string    `json:"scheduler"`
}

// SystemStatus is the status endpoint payload.
type SystemStatus struct {
	Running       bool       `json:"running"`
	CurrentPeriod string     `json:"current_period"`
	NextRun       *time.Time `json:"next_run,omitempty"`
	LastRun       *time.Time `json:"last_run,omitempty"`
	ServerTime    time.Time  `json:"server_time"`
	SMTPEndpoint  string     `json:"smtp_endpoint"`
}
