// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sts-platform/kpipulse/internal/models"
	"github.com/sts-platform/kpipulse/internal/period"
)

type fakeStore struct {
	items    []models.DueItem
	findErr  error
	advanced []int64
	failKpis map[int64]error
	missing  map[int64]bool
}

func (s *fakeStore) FindDueItems(_ context.Context, _ period.Period) ([]models.DueItem, error) {
	return s.items, s.findErr
}

func (s *fakeStore) AdvanceSchedule(_ context.Context, kpiID int64) (bool, error) {
	if err := s.failKpis[kpiID]; err != nil {
		return false, err
	}
	if s.missing[kpiID] {
		return false, nil
	}
	s.advanced = append(s.advanced, kpiID)
	return true, nil
}

type fakeNotifier struct {
	sent     []models.NotificationGroup
	failFor  map[string]error
	panicFor map[string]bool
}

func (n *fakeNotifier) Send(_ context.Context, group models.NotificationGroup) error {
	if n.panicFor[group.Email] {
		panic("smtp client blew up")
	}
	if err := n.failFor[group.Email]; err != nil {
		return err
	}
	n.sent = append(n.sent, group)
	return nil
}

func dueItem(kpiID int64, kpiName string, respID int64, respName, email string, plantID int64, plantName string) models.DueItem {
	return models.DueItem{
		KpiID:           kpiID,
		KpiName:         kpiName,
		ResponsibleID:   respID,
		ResponsibleName: respName,
		Email:           email,
		Period:          "2025-W43",
		PlantID:         plantID,
		PlantName:       plantName,
	}
}

func newTestPlanner(store *fakeStore, n *fakeNotifier) *Planner {
	pl := New(store, n, time.UTC)
	pl.now = func() time.Time { return time.Date(2025, 10, 22, 12, 0, 0, 0, time.UTC) }
	return pl
}

func TestRunSingleDueItem(t *testing.T) {
	store := &fakeStore{items: []models.DueItem{
		dueItem(1, "Scrap Rate", 1, "Alice", "alice@example.com", 1, "Plant Tunis"),
	}}
	n := &fakeNotifier{}

	summary, err := newTestPlanner(store, n).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Sent != 1 || summary.Failed != 0 || summary.Advanced != 1 {
		t.Errorf("summary = sent %d failed %d advanced %d, want 1 0 1",
			summary.Sent, summary.Failed, summary.Advanced)
	}
	if summary.Period != "2025-W43" {
		t.Errorf("period = %q, want 2025-W43", summary.Period)
	}
	if summary.RunID == "" {
		t.Error("run ID is empty")
	}
	if len(n.sent) != 1 || n.sent[0].Email != "alice@example.com" {
		t.Fatalf("sent = %+v", n.sent)
	}
	if len(n.sent[0].Kpis) != 1 || n.sent[0].Kpis[0].Name != "Scrap Rate" {
		t.Errorf("kpis = %+v", n.sent[0].Kpis)
	}
}

func TestRunSingleDueItemDeliveryFails(t *testing.T) {
	store := &fakeStore{items: []models.DueItem{
		dueItem(1, "Scrap Rate", 1, "Alice", "alice@example.com", 1, "Plant Tunis"),
	}}
	n := &fakeNotifier{failFor: map[string]error{
		"alice@example.com": errors.New("connection reset"),
	}}

	summary, err := newTestPlanner(store, n).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Sent != 0 || summary.Failed != 1 || summary.Advanced != 0 {
		t.Errorf("summary = sent %d failed %d advanced %d, want 0 1 0",
			summary.Sent, summary.Failed, summary.Advanced)
	}
	if len(store.advanced) != 0 {
		t.Errorf("advanced = %v, want none", store.advanced)
	}
}

func TestRunCollapsesSameResponsibleAndPlant(t *testing.T) {
	store := &fakeStore{items: []models.DueItem{
		dueItem(1, "Scrap Rate", 1, "Alice", "alice@example.com", 1, "Plant Tunis"),
		dueItem(2, "OEE", 1, "Alice", "alice@example.com", 1, "Plant Tunis"),
	}}
	n := &fakeNotifier{}

	summary, err := newTestPlanner(store, n).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.GroupsAttempted != 1 || summary.Sent != 1 {
		t.Errorf("groups %d sent %d, want 1 1", summary.GroupsAttempted, summary.Sent)
	}
	if len(n.sent) != 1 || len(n.sent[0].Kpis) != 2 {
		t.Fatalf("sent = %+v", n.sent)
	}
	if summary.Advanced != 2 {
		t.Errorf("advanced = %d, want 2", summary.Advanced)
	}
}

func TestRunSplitsDifferentPlants(t *testing.T) {
	store := &fakeStore{items: []models.DueItem{
		dueItem(1, "Scrap Rate", 1, "Alice", "alice@example.com", 1, "Plant Tunis"),
		dueItem(1, "Scrap Rate", 1, "Alice", "alice@example.com", 2, "Plant Sousse"),
	}}
	n := &fakeNotifier{}

	summary, err := newTestPlanner(store, n).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Same responsible, two plants: two emails, one schedule advance.
	if summary.GroupsAttempted != 2 || summary.Sent != 2 {
		t.Errorf("groups %d sent %d, want 2 2", summary.GroupsAttempted, summary.Sent)
	}
	if summary.Advanced != 1 {
		t.Errorf("advanced = %d, want 1", summary.Advanced)
	}
	if len(store.advanced) != 1 || store.advanced[0] != 1 {
		t.Errorf("advanced KPIs = %v, want [1]", store.advanced)
	}
}

func TestRunAdvancesSharedKpiOnce(t *testing.T) {
	store := &fakeStore{items: []models.DueItem{
		dueItem(1, "Scrap Rate", 1, "Alice", "alice@example.com", 1, "Plant Tunis"),
		dueItem(1, "Scrap Rate", 2, "Bob", "bob@example.com", 1, "Plant Tunis"),
	}}
	n := &fakeNotifier{}

	summary, err := newTestPlanner(store, n).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Sent != 2 {
		t.Errorf("sent = %d, want 2", summary.Sent)
	}
	if summary.Advanced != 1 || len(store.advanced) != 1 {
		t.Errorf("advanced = %d %v, want one advance of KPI 1", summary.Advanced, store.advanced)
	}
}

func TestRunDeliveryFailureIsolated(t *testing.T) {
	store := &fakeStore{items: []models.DueItem{
		dueItem(1, "Scrap Rate", 1, "Alice", "alice@example.com", 1, "Plant Tunis"),
		dueItem(2, "OEE", 2, "Bob", "bob@example.com", 1, "Plant Tunis"),
	}}
	n := &fakeNotifier{failFor: map[string]error{
		"alice@example.com": errors.New("mailbox full"),
	}}

	summary, err := newTestPlanner(store, n).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Sent != 1 || summary.Failed != 1 {
		t.Errorf("sent %d failed %d, want 1 1", summary.Sent, summary.Failed)
	}
	// Only Bob's KPI advances; Alice's stays due for the next run.
	if summary.Advanced != 1 || len(store.advanced) != 1 || store.advanced[0] != 2 {
		t.Errorf("advanced = %v, want [2]", store.advanced)
	}
}

func TestRunNotifierPanicCountedAsFailure(t *testing.T) {
	store := &fakeStore{items: []models.DueItem{
		dueItem(1, "Scrap Rate", 1, "Alice", "alice@example.com", 0, ""),
		dueItem(2, "OEE", 2, "Bob", "bob@example.com", 0, ""),
	}}
	n := &fakeNotifier{panicFor: map[string]bool{"alice@example.com": true}}

	summary, err := newTestPlanner(store, n).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Sent != 1 || summary.Failed != 1 {
		t.Errorf("sent %d failed %d, want 1 1", summary.Sent, summary.Failed)
	}
}

func TestRunAdvanceFailureCounted(t *testing.T) {
	store := &fakeStore{
		items: []models.DueItem{
			dueItem(1, "Scrap Rate", 1, "Alice", "alice@example.com", 0, ""),
			dueItem(2, "OEE", 1, "Alice", "alice@example.com", 0, ""),
		},
		failKpis: map[int64]error{1: errors.New("db busy")},
	}
	n := &fakeNotifier{}

	summary, err := newTestPlanner(store, n).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Sent != 1 {
		t.Errorf("sent = %d, want 1", summary.Sent)
	}
	if summary.Advanced != 1 || summary.AdvanceFailed != 1 {
		t.Errorf("advanced %d advance_failed %d, want 1 1",
			summary.Advanced, summary.AdvanceFailed)
	}
}

func TestRunMissingKpiCountedAsAdvanceFailure(t *testing.T) {
	store := &fakeStore{
		items: []models.DueItem{
			dueItem(1, "Scrap Rate", 1, "Alice", "alice@example.com", 0, ""),
		},
		missing: map[int64]bool{1: true},
	}
	n := &fakeNotifier{}

	summary, err := newTestPlanner(store, n).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Advanced != 0 || summary.AdvanceFailed != 1 {
		t.Errorf("advanced %d advance_failed %d, want 0 1",
			summary.Advanced, summary.AdvanceFailed)
	}
}

func TestRunNothingDue(t *testing.T) {
	store := &fakeStore{}
	n := &fakeNotifier{}

	summary, err := newTestPlanner(store, n).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Sent != 0 || summary.Failed != 0 || summary.Advanced != 0 || summary.GroupsAttempted != 0 {
		t.Errorf("summary = %+v, want all zero counters", summary)
	}
	if len(n.sent) != 0 {
		t.Errorf("sent = %+v, want none", n.sent)
	}
}

func TestRunDueQueryFailureIsFatal(t *testing.T) {
	store := &fakeStore{findErr: errors.New("database unavailable")}
	n := &fakeNotifier{}

	_, err := newTestPlanner(store, n).Run(context.Background())
	if err == nil {
		t.Fatal("expected error when due query fails")
	}
	if len(n.sent) != 0 {
		t.Errorf("sent = %+v, want none", n.sent)
	}
}

func TestGroupItemsDeduplicatesKpisWithinGroup(t *testing.T) {
	groups := groupItems([]models.DueItem{
		dueItem(1, "Scrap Rate", 1, "Alice", "alice@example.com", 1, "Plant Tunis"),
		dueItem(1, "Scrap Rate", 1, "Alice", "alice@example.com", 1, "Plant Tunis"),
		dueItem(2, "OEE", 1, "Alice", "alice@example.com", 1, "Plant Tunis"),
	})
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if len(groups[0].Kpis) != 2 {
		t.Errorf("kpis = %+v, want 2 distinct", groups[0].Kpis)
	}
}

func TestGroupItemsPreservesFirstSeenOrder(t *testing.T) {
	groups := groupItems([]models.DueItem{
		dueItem(1, "Scrap Rate", 2, "Bob", "bob@example.com", 1, "Plant Tunis"),
		dueItem(1, "Scrap Rate", 1, "Alice", "alice@example.com", 1, "Plant Tunis"),
		dueItem(2, "OEE", 2, "Bob", "bob@example.com", 1, "Plant Tunis"),
	})
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].ResponsibleID != 2 || groups[1].ResponsibleID != 1 {
		t.Errorf("group order = %d, %d; want 2, 1",
			groups[0].ResponsibleID, groups[1].ResponsibleID)
	}
}
