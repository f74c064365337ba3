// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sts-platform/kpipulse/internal/config"
	"github.com/sts-platform/kpipulse/internal/models"
	"github.com/sts-platform/kpipulse/internal/period"
)

// newTestDB opens an in-memory database with the schema applied.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{Path: "", MaxOpenConns: 4, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedScrapRate(t *testing.T, db *DB, p string) {
	t.Helper()
	ctx := context.Background()

	if err := db.InsertPlant(ctx, 1, "Plant Tunis"); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertResponsible(ctx, 1, "Alice", "alice@example.com", 1); err != nil {
		t.Fatal(err)
	}
	// Due an hour ago.
	if err := db.InsertKpi(ctx, 1, "Scrap Rate", "< 2%", 7, time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertKpiValue(ctx, 10, 1, 1, 1, p, "3.1"); err != nil {
		t.Fatal(err)
	}
}

func TestFindDueItems(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := period.Current(time.Now(), time.UTC)

	seedScrapRate(t, db, p.String())

	items, err := db.FindDueItems(ctx, p)
	if err != nil {
		t.Fatalf("FindDueItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d due items, want 1", len(items))
	}

	item := items[0]
	if item.KpiID != 1 || item.KpiName != "Scrap Rate" {
		t.Errorf("kpi = %d %q", item.KpiID, item.KpiName)
	}
	if item.Email != "alice@example.com" || item.ResponsibleName != "Alice" {
		t.Errorf("responsible = %q %q", item.ResponsibleName, item.Email)
	}
	if item.PlantID != 1 || item.PlantName != "Plant Tunis" {
		t.Errorf("plant = %d %q", item.PlantID, item.PlantName)
	}
	if item.Period != p.String() {
		t.Errorf("period = %q, want %q", item.Period, p)
	}
}

func TestFindDueItemsEmptyWhenNotDue(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := period.Current(time.Now(), time.UTC)

	if err := db.InsertResponsible(ctx, 1, "Alice", "alice@example.com", 0); err != nil {
		t.Fatal(err)
	}
	// Not due until tomorrow.
	if err := db.InsertKpi(ctx, 1, "Scrap Rate", "", 7, time.Now().Add(24*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertKpiValue(ctx, 10, 1, 1, 0, p.String(), ""); err != nil {
		t.Fatal(err)
	}

	items, err := db.FindDueItems(ctx, p)
	if err != nil {
		t.Fatalf("FindDueItems: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d due items, want 0", len(items))
	}
}

func TestFindDueItemsRequiresValueRowForPeriod(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedScrapRate(t, db, "2025-W01")

	// KPI is due but the value row belongs to another period.
	items, err := db.FindDueItems(ctx, period.Period{Year: 2025, Week: 2})
	if err != nil {
		t.Fatalf("FindDueItems: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d due items, want 0", len(items))
	}
}

func TestFindDueItemsOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := period.Current(time.Now(), time.UTC)
	due := time.Now().Add(-time.Hour)

	if err := db.InsertPlant(ctx, 1, "Plant A"); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertPlant(ctx, 2, "Plant B"); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertResponsible(ctx, 1, "Alice", "alice@example.com", 1); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertKpi(ctx, 1, "Scrap Rate", "", 7, due); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertKpi(ctx, 2, "OEE", "", 7, due); err != nil {
		t.Fatal(err)
	}
	// Plant B rows first in insertion order to prove the sort.
	if err := db.InsertKpiValue(ctx, 10, 2, 1, 2, p.String(), ""); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertKpiValue(ctx, 11, 1, 1, 1, p.String(), ""); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertKpiValue(ctx, 12, 2, 1, 1, p.String(), ""); err != nil {
		t.Fatal(err)
	}

	items, err := db.FindDueItems(ctx, p)
	if err != nil {
		t.Fatalf("FindDueItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d due items, want 3", len(items))
	}
	// plant 1 kpi 1, plant 1 kpi 2, plant 2 kpi 2
	if items[0].PlantID != 1 || items[0].KpiID != 1 {
		t.Errorf("items[0] = plant %d kpi %d", items[0].PlantID, items[0].KpiID)
	}
	if items[1].PlantID != 1 || items[1].KpiID != 2 {
		t.Errorf("items[1] = plant %d kpi %d", items[1].PlantID, items[1].KpiID)
	}
	if items[2].PlantID != 2 || items[2].KpiID != 2 {
		t.Errorf("items[2] = plant %d kpi %d", items[2].PlantID, items[2].KpiID)
	}
}

func TestAdvanceSchedule(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := period.Current(time.Now(), time.UTC)

	seedScrapRate(t, db, p.String())

	before, err := db.NextDueAt(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}

	found, err := db.AdvanceSchedule(ctx, 1)
	if err != nil {
		t.Fatalf("AdvanceSchedule: %v", err)
	}
	if !found {
		t.Fatal("expected KPI 1 to be found")
	}

	after, err := db.NextDueAt(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !after.After(before) {
		t.Errorf("next_due_at did not move forward: before=%v after=%v", before, after)
	}

	// The KPI is no longer due, so the due query comes back empty.
	items, err := db.FindDueItems(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d due items after advance, want 0", len(items))
	}
}

func TestAdvanceScheduleUnknownKpi(t *testing.T) {
	db := newTestDB(t)

	found, err := db.AdvanceSchedule(context.Background(), 999)
	if err != nil {
		t.Fatalf("AdvanceSchedule: %v", err)
	}
	if found {
		t.Fatal("expected not found for unknown KPI")
	}
}

func TestAdvanceScheduleIdempotentPerRun(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := period.Current(time.Now(), time.UTC)

	seedScrapRate(t, db, p.String())

	// Touching "now" twice in a row is harmless: both succeed and the KPI
	// stays not-due.
	for i := 0; i < 2; i++ {
		if _, err := db.AdvanceSchedule(ctx, 1); err != nil {
			t.Fatalf("AdvanceSchedule #%d: %v", i+1, err)
		}
	}
	items, err := db.FindDueItems(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d due items, want 0", len(items))
	}
}

func TestGetFormNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetForm(context.Background(), 42, "2025-W01", 0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetFormAndApplyEditsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedScrapRate(t, db, "2025-W43")

	analyse := "Supplier batch issue"
	applied, err := db.ApplyFormEdits(ctx, []models.FormEdit{
		{KpiValuesID: 10, Analyse: &analyse},
	})
	if err != nil {
		t.Fatalf("ApplyFormEdits: %v", err)
	}
	if applied != 1 {
		t.Fatalf("applied = %d, want 1", applied)
	}

	form, err := db.GetForm(ctx, 1, "2025-W43", 0)
	if err != nil {
		t.Fatalf("GetForm: %v", err)
	}
	if form.Responsible.Name != "Alice" {
		t.Errorf("responsible = %q", form.Responsible.Name)
	}
	if form.Plant == nil || form.Plant.Name != "Plant Tunis" {
		t.Errorf("plant = %+v", form.Plant)
	}
	if len(form.Values) != 1 {
		t.Fatalf("got %d values, want 1", len(form.Values))
	}

	v := form.Values[0]
	if v.Analyse != analyse {
		t.Errorf("analyse = %q, want %q", v.Analyse, analyse)
	}
	// The other free-text column was not part of the edit and stays empty.
	if v.ActionsCorrectives != "" {
		t.Errorf("actions_correctives = %q, want empty", v.ActionsCorrectives)
	}
	if v.KpiName != "Scrap Rate" || v.Objective != "< 2%" || v.Value != "3.1" {
		t.Errorf("read-only columns = %q %q %q", v.KpiName, v.Objective, v.Value)
	}
}

func TestApplyFormEditsSkipsUnknownIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedScrapRate(t, db, "2025-W43")

	text := "x"
	applied, err := db.ApplyFormEdits(ctx, []models.FormEdit{
		{KpiValuesID: 999, Analyse: &text},
		{KpiValuesID: 10, ActionsCorrectives: &text},
	})
	if err != nil {
		t.Fatalf("ApplyFormEdits: %v", err)
	}
	if applied != 1 {
		t.Fatalf("applied = %d, want 1", applied)
	}
}

func TestApplyFormEditsEmpty(t *testing.T) {
	db := newTestDB(t)

	applied, err := db.ApplyFormEdits(context.Background(), nil)
	if err != nil {
		t.Fatalf("ApplyFormEdits: %v", err)
	}
	if applied != 0 {
		t.Fatalf("applied = %d, want 0", applied)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
