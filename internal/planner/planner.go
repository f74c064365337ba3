// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

// Package planner implements the reminder cycle: find due KPI reports for
// the current period, send one email per responsible and plant, then advance
// each notified KPI to its next cycle.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sts-platform/kpipulse/internal/logging"
	"github.com/sts-platform/kpipulse/internal/metrics"
	"github.com/sts-platform/kpipulse/internal/models"
	"github.com/sts-platform/kpipulse/internal/notifier"
	"github.com/sts-platform/kpipulse/internal/period"
)

// Store is the persistence surface the planner needs.
type Store interface {
	FindDueItems(ctx context.Context, p period.Period) ([]models.DueItem, error)
	AdvanceSchedule(ctx context.Context, kpiID int64) (bool, error)
}

// groupKey identifies one outbound reminder: a recipient within a plant
// context. PlantID zero collects the plant-less items.
type groupKey struct {
	responsibleID int64
	plantID       int64
}

// Planner runs reminder cycles. Safe for concurrent use; each Run is
// independent.
type Planner struct {
	store    Store
	notifier notifier.Notifier
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates a planner. loc is the operating zone the reporting period is
// evaluated in; nil means UTC.
func New(store Store, n notifier.Notifier, loc *time.Location) *Planner {
	if loc == nil {
		loc = time.UTC
	}
	return &Planner{
		store:    store,
		notifier: n,
		loc:      loc,
		now:      time.Now,
		logger:   logging.With().Str("component", "planner").Logger(),
	}
}

// Run executes one reminder cycle. It returns an error only when the due
// query itself fails; delivery and schedule-advance failures are absorbed
// into the summary counters so one bad recipient never blocks the rest.
func (pl *Planner) Run(ctx context.Context) (summary models.RunSummary, err error) {
	started := pl.now()
	p := period.Current(started, pl.loc)
	summary = models.RunSummary{
		RunID:     uuid.NewString(),
		Period:    p.String(),
		StartedAt: started,
	}
	logger := pl.logger.With().Str("run_id", summary.RunID).Str("period", summary.Period).Logger()

	defer func() {
		summary.Duration = pl.now().Sub(started)
		metrics.ReminderRunDuration.Observe(summary.Duration.Seconds())
	}()

	items, err := pl.store.FindDueItems(ctx, p)
	if err != nil {
		metrics.ReminderRunsTotal.WithLabelValues("error").Inc()
		logger.Error().Err(err).Msg("Reminder run aborted: due query failed")
		return summary, fmt.Errorf("find due items: %w", err)
	}
	if len(items) == 0 {
		metrics.ReminderRunsTotal.WithLabelValues("empty").Inc()
		logger.Info().Msg("Reminder run complete: nothing due")
		return summary, nil
	}

	groups := groupItems(items)
	summary.GroupsAttempted = len(groups)
	logger.Info().
		Int("due_items", len(items)).
		Int("groups", len(groups)).
		Msg("Reminder run starting")

	// Each KPI advances at most once per run, even when several recipients
	// were reminded about it.
	advanced := make(map[int64]bool)

	for _, group := range groups {
		if err := pl.send(ctx, group); err != nil {
			summary.Failed++
			metrics.RemindersFailedTotal.Inc()
			logger.Warn().Err(err).
				Int64("responsible_id", group.ResponsibleID).
				Int64("plant_id", group.PlantID).
				Msg("Reminder delivery failed")
			continue
		}
		summary.Sent++
		metrics.RemindersSentTotal.Inc()

		for _, kpi := range group.Kpis {
			if advanced[kpi.KpiID] {
				continue
			}
			advanced[kpi.KpiID] = true

			found, err := pl.store.AdvanceSchedule(ctx, kpi.KpiID)
			if err != nil || !found {
				summary.AdvanceFailed++
				metrics.AdvanceFailuresTotal.Inc()
				logger.Warn().Err(err).
					Int64("kpi_id", kpi.KpiID).
					Bool("found", found).
					Msg("Schedule advance failed")
				continue
			}
			summary.Advanced++
			metrics.KpisAdvancedTotal.Inc()
		}
	}

	metrics.ReminderRunsTotal.WithLabelValues("success").Inc()
	logger.Info().
		Int("sent", summary.Sent).
		Int("failed", summary.Failed).
		Int("advanced", summary.Advanced).
		Int("advance_failed", summary.AdvanceFailed).
		Msg("Reminder run complete")
	return summary, nil
}

// send delivers one group, converting a notifier panic into an error so a
// broken delivery path cannot take down the whole run.
func (pl *Planner) send(ctx context.Context, group models.NotificationGroup) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return pl.notifier.Send(ctx, group)
}

// groupItems collapses due items into one notification group per responsible
// and plant, preserving the first-seen order of both groups and KPIs.
func groupItems(items []models.DueItem) []models.NotificationGroup {
	var order []groupKey
	byKey := make(map[groupKey]*models.NotificationGroup)
	seen := make(map[groupKey]map[int64]bool)

	for _, item := range items {
		key := groupKey{responsibleID: item.ResponsibleID, plantID: item.PlantID}
		group, ok := byKey[key]
		if !ok {
			group = &models.NotificationGroup{
				ResponsibleID:   item.ResponsibleID,
				ResponsibleName: item.ResponsibleName,
				Email:           item.Email,
				PlantID:         item.PlantID,
				PlantName:       item.PlantName,
				Period:          item.Period,
			}
			byKey[key] = group
			seen[key] = make(map[int64]bool)
			order = append(order, key)
		}
		if seen[key][item.KpiID] {
			continue
		}
		seen[key][item.KpiID] = true
		group.Kpis = append(group.Kpis, models.KpiRef{KpiID: item.KpiID, Name: item.KpiName})
	}

	groups := make([]models.NotificationGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, *byKey[key])
	}
	return groups
}
