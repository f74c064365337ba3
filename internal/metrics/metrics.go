// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

// Package metrics provides Prometheus instrumentation for the reminder
// cycle, the store and the HTTP surface. All collectors are registered on
// the default registry and exposed via /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Reminder cycle metrics
	ReminderRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kpi_reminder_runs_total",
			Help: "Total number of reminder runs by result",
		},
		[]string{"result"}, // "success", "empty", "error"
	)

	RemindersSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kpi_reminders_sent_total",
			Help: "Total number of reminder notifications delivered",
		},
	)

	RemindersFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kpi_reminders_failed_total",
			Help: "Total number of reminder notifications that failed delivery",
		},
	)

	KpisAdvancedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kpi_schedules_advanced_total",
			Help: "Total number of KPI schedules advanced to their next cycle",
		},
	)

	AdvanceFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kpi_schedule_advance_failures_total",
			Help: "Total number of failed KPI schedule advances",
		},
	)

	ReminderRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kpi_reminder_run_duration_seconds",
			Help:    "Duration of reminder runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of store query errors",
		},
		[]string{"operation"},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)

// ObserveDBQuery records the duration and outcome of a store operation.
func ObserveDBQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
