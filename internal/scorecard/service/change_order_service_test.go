package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/repository"
	"github.com/bitfantasy/scorecard/internal/scorecard/testutil"
)

func approvedCO(t *testing.T, svcs *Services, projectID string, mgmt, eng, draft float64) *entity.ChangeOrder {
	t.Helper()
	ctx := context.Background()
	co, err := svcs.ChangeOrder.Create(ctx, projectID, &CreateChangeOrderRequest{
		Description: "Additional pump station", ChangeType: "scope", ClientBillable: true,
		HoursMgmt: mgmt, HoursEng: eng, HoursDraft: draft, EstimatedCost: 5000,
	})
	if err != nil {
		t.Fatalf("Create CO failed: %v", err)
	}
	if _, err := svcs.ChangeOrder.Submit(ctx, co.ID); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	co, err = svcs.ChangeOrder.Approve(ctx, co.ID, &ApproveChangeOrderRequest{ApprovedBy: "client-pm"})
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	return co
}

func TestIncorporate_DistributesEvenly(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	ctx := context.Background()
	p := testutil.SeedProject(t, db, "CO1")
	d1 := testutil.SeedDeliverable(t, db, p.ID, "1.1", entity.FunctionEngineering, 100, 0, 80)
	d2 := testutil.SeedDeliverable(t, db, p.ID, "1.2", entity.FunctionDrafting, 40, 0, 40)
	untouched := testutil.SeedDeliverable(t, db, p.ID, "1.3", entity.FunctionDrafting, 10, 0, 10)
	co := approvedCO(t, svcs, p.ID, 10, 20, 0)

	result, err := svcs.ChangeOrder.Incorporate(ctx, co.ID, []string{d1.ID, d2.ID})
	if err != nil {
		t.Fatalf("Incorporate failed: %v", err)
	}
	if result.HoursPerTarget != 15 {
		t.Errorf("hours per target = %v, want 15", result.HoursPerTarget)
	}

	got1, _ := svcs.Deliverable.Get(ctx, d1.ID)
	got2, _ := svcs.Deliverable.Get(ctx, d2.ID)
	got3, _ := svcs.Deliverable.Get(ctx, untouched.ID)
	if got1.BudgetHours != 115 || got1.ForecastToComplete != 95 {
		t.Errorf("d1 = budget %v ftc %v, want 115/95", got1.BudgetHours, got1.ForecastToComplete)
	}
	if got2.BudgetHours != 55 || got2.ForecastToComplete != 55 {
		t.Errorf("d2 = budget %v ftc %v, want 55/55", got2.BudgetHours, got2.ForecastToComplete)
	}
	if got3.BudgetHours != 10 {
		t.Errorf("untargeted deliverable changed: %v", got3.BudgetHours)
	}

	stored, _ := svcs.ChangeOrder.Get(ctx, co.ID)
	if stored.Status != entity.COStatusIncorporated || stored.IncorporatedDate == nil || *stored.IncorporatedDate != "2025-06-18" {
		t.Errorf("unexpected CO after incorporate: %+v", stored)
	}
	var linked []string
	if err := json.Unmarshal(stored.LinkedDeliverables, &linked); err != nil || len(linked) != 2 {
		t.Errorf("linked deliverables = %s (%v)", stored.LinkedDeliverables, err)
	}
	if n := countRows(t, db, &entity.ActivityLog{}, "entity_id = ? AND action = ?", co.ID, entity.ActionIncorporate); n != 1 {
		t.Errorf("expected 1 incorporate audit row, got %d", n)
	}
}

func TestIncorporate_Guards(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	ctx := context.Background()
	p := testutil.SeedProject(t, db, "CO2")
	other := testutil.SeedProject(t, db, "CO2B")
	d1 := testutil.SeedDeliverable(t, db, p.ID, "1.1", entity.FunctionEngineering, 100, 0, 100)
	foreign := testutil.SeedDeliverable(t, db, other.ID, "1.1", entity.FunctionEngineering, 100, 0, 100)

	draft, err := svcs.ChangeOrder.Create(ctx, p.ID, &CreateChangeOrderRequest{Description: "Draft CO", ChangeType: "scope", HoursEng: 8})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svcs.ChangeOrder.Incorporate(ctx, draft.ID, []string{d1.ID}); !errors.Is(err, ErrChangeOrderNotApproved) {
		t.Errorf("draft: expected ErrChangeOrderNotApproved, got %v", err)
	}

	co := approvedCO(t, svcs, p.ID, 0, 12, 0)
	if _, err := svcs.ChangeOrder.Incorporate(ctx, co.ID, nil); !errors.Is(err, ErrNoTargets) {
		t.Errorf("expected ErrNoTargets, got %v", err)
	}
	if _, err := svcs.ChangeOrder.Incorporate(ctx, co.ID, []string{d1.ID, d1.ID}); !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate targets: expected ErrValidation, got %v", err)
	}
	if _, err := svcs.ChangeOrder.Incorporate(ctx, co.ID, []string{d1.ID, foreign.ID}); !errors.Is(err, ErrDeliverableNotInProject) {
		t.Errorf("foreign target: expected ErrDeliverableNotInProject, got %v", err)
	}
	if got, _ := svcs.Deliverable.Get(ctx, d1.ID); got.BudgetHours != 100 {
		t.Fatalf("failed incorporation changed budget: %v", got.BudgetHours)
	}
	if got, _ := svcs.ChangeOrder.Get(ctx, co.ID); got.Status != entity.COStatusApproved {
		t.Fatalf("failed incorporation changed status: %s", got.Status)
	}

	if _, err := svcs.ChangeOrder.Incorporate(ctx, co.ID, []string{d1.ID}); err != nil {
		t.Fatalf("Incorporate failed: %v", err)
	}
	if _, err := svcs.ChangeOrder.Incorporate(ctx, co.ID, []string{d1.ID}); !errors.Is(err, ErrAlreadyIncorporated) {
		t.Errorf("second incorporate: expected ErrAlreadyIncorporated, got %v", err)
	}
	if got, _ := svcs.Deliverable.Get(ctx, d1.ID); got.BudgetHours != 112 {
		t.Errorf("budget after one incorporation = %v, want 112", got.BudgetHours)
	}
}

func TestChangeOrderLifecycle(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	ctx := context.Background()
	p := testutil.SeedProject(t, db, "CO3")

	if _, err := svcs.ChangeOrder.Create(ctx, p.ID, &CreateChangeOrderRequest{ChangeType: "scope"}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for missing description, got %v", err)
	}

	co, err := svcs.ChangeOrder.Create(ctx, p.ID, &CreateChangeOrderRequest{Description: "First", ChangeType: "scope", HoursMgmt: 1, HoursEng: 2, HoursDraft: 3})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if co.CONumber != "CO-001" || co.TotalHours != 6 || co.Status != entity.COStatusDraft {
		t.Errorf("unexpected CO: %+v", co)
	}
	second, _ := svcs.ChangeOrder.Create(ctx, p.ID, &CreateChangeOrderRequest{Description: "Second", ChangeType: "scope"})
	if second.CONumber != "CO-002" {
		t.Errorf("second CO number = %s", second.CONumber)
	}

	updated, err := svcs.ChangeOrder.Update(ctx, co.ID, &UpdateChangeOrderRequest{HoursDraft: testutil.Ptr(7.0)})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.TotalHours != 10 {
		t.Errorf("total hours after update = %v, want 10", updated.TotalHours)
	}

	if _, err := svcs.ChangeOrder.Approve(ctx, co.ID, &ApproveChangeOrderRequest{}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("approve draft: expected ErrInvalidTransition, got %v", err)
	}
	submitted, err := svcs.ChangeOrder.Submit(ctx, co.ID)
	if err != nil || submitted.SubmittedDate == nil || *submitted.SubmittedDate != "2025-06-18" {
		t.Fatalf("Submit = %+v, %v", submitted, err)
	}
	rejected, err := svcs.ChangeOrder.Reject(ctx, co.ID, "not in contract")
	if err != nil || rejected.Status != entity.COStatusRejected {
		t.Fatalf("Reject = %+v, %v", rejected, err)
	}
	if _, err := svcs.ChangeOrder.Submit(ctx, co.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("submit rejected: expected ErrInvalidTransition, got %v", err)
	}

	approved := approvedCO(t, svcs, p.ID, 0, 4, 0)
	if approved.ApprovedCost != 5000 || approved.ApprovedBy != "client-pm" || approved.ApprovalDate == nil {
		t.Errorf("unexpected approval fields: %+v", approved)
	}
	d := testutil.SeedDeliverable(t, db, p.ID, "1.1", entity.FunctionEngineering, 10, 0, 10)
	if _, err := svcs.ChangeOrder.Incorporate(ctx, approved.ID, []string{d.ID}); err != nil {
		t.Fatalf("Incorporate failed: %v", err)
	}
	if _, err := svcs.ChangeOrder.Update(ctx, approved.ID, &UpdateChangeOrderRequest{HoursEng: testutil.Ptr(100.0)}); !errors.Is(err, ErrChangeOrderImmutable) {
		t.Errorf("update incorporated: expected ErrChangeOrderImmutable, got %v", err)
	}
	if _, err := svcs.ChangeOrder.Reject(ctx, approved.ID, ""); !errors.Is(err, ErrChangeOrderImmutable) {
		t.Errorf("reject incorporated: expected ErrChangeOrderImmutable, got %v", err)
	}

	list, _ := svcs.ChangeOrder.List(ctx, p.ID, entity.COStatusRejected)
	if len(list) != 1 || list[0].ID != co.ID {
		t.Errorf("rejected list = %+v", list)
	}
}

func TestChangeOrderHistoryAndProjectActivity(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	ctx := context.Background()
	p := testutil.SeedProject(t, db, "CO5")
	d := testutil.SeedDeliverable(t, db, p.ID, "1.1", entity.FunctionEngineering, 100, 0, 100)
	co := approvedCO(t, svcs, p.ID, 10, 0, 0)
	approvedCO(t, svcs, p.ID, 0, 5, 0)
	if _, err := svcs.ChangeOrder.Incorporate(ctx, co.ID, []string{d.ID}); err != nil {
		t.Fatalf("Incorporate failed: %v", err)
	}

	history, err := svcs.ChangeOrder.History(ctx, co.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	actions := map[string]int{}
	for _, h := range history {
		if h.EntityID != co.ID {
			t.Errorf("history of %s contains entry for %s", co.ID, h.EntityID)
		}
		actions[h.Action]++
	}
	if len(history) != 4 || actions[entity.ActionCreate] != 1 || actions[entity.ActionStatusChange] != 2 || actions[entity.ActionIncorporate] != 1 {
		t.Errorf("history actions = %v (%d entries), want create 1 status_change 2 incorporate 1", actions, len(history))
	}

	if _, err := svcs.ChangeOrder.History(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown CO, got %v", err)
	}

	all, err := svcs.Project.ActivityLog(ctx, p.ID, "")
	if err != nil {
		t.Fatalf("ActivityLog failed: %v", err)
	}
	if len(all) != 7 {
		t.Errorf("project activity = %d entries, want 7", len(all))
	}
	incorporations, _ := svcs.Project.ActivityLog(ctx, p.ID, entity.ActionIncorporate)
	if len(incorporations) != 1 || incorporations[0].EntityID != co.ID {
		t.Errorf("incorporate entries = %+v, want only %s", incorporations, co.ID)
	}
}
