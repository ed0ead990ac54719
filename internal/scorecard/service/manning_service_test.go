package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/testutil"
)

func TestManningUpsert_KnownStaff(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	ctx := context.Background()
	testutil.SeedStaff(t, db, "Will Smith", entity.FunctionEngineering, entity.DisciplineME, "Lead Engineer")
	testutil.SeedRate(t, db, "Lead Engineer", 190, "2025-01-01", testutil.Ptr("2025-07-01"))
	testutil.SeedRate(t, db, "Lead Engineer", 200, "2025-07-01", nil)
	p := testutil.SeedProject(t, db, "MF1")

	june, warnings, err := svcs.Manning.Upsert(ctx, p.ID, &UpsertManningRequest{PersonName: "Will Smith", WeekEnding: "2025-06-28", ForecastHours: 40})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", warnings)
	}
	if june.Position != "Lead Engineer" || june.Discipline != entity.DisciplineME || june.HourlyRate != 190 || june.ForecastCost != 7600 {
		t.Errorf("unexpected entry: %+v", june)
	}

	july, _, err := svcs.Manning.Upsert(ctx, p.ID, &UpsertManningRequest{PersonName: "Will Smith", WeekEnding: "2025-07-05", ForecastHours: 10})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if july.HourlyRate != 200 {
		t.Errorf("rate should follow week ending, got %v", july.HourlyRate)
	}
}

func TestManningUpsert_Overwrite(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	ctx := context.Background()
	testutil.SeedStaff(t, db, "Will Smith", entity.FunctionEngineering, entity.DisciplineME, "Lead Engineer")
	testutil.SeedRate(t, db, "Lead Engineer", 195, "2025-01-01", nil)
	p := testutil.SeedProject(t, db, "MF2")

	first, _, err := svcs.Manning.Upsert(ctx, p.ID, &UpsertManningRequest{PersonName: "Will Smith", WeekEnding: "2025-06-28", ForecastHours: 40})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	second, _, err := svcs.Manning.Upsert(ctx, p.ID, &UpsertManningRequest{PersonName: "Will Smith", WeekEnding: "2025-06-28", ForecastHours: 32})
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if second.ID != first.ID || second.ForecastHours != 32 || second.ForecastCost != 32*195 {
		t.Errorf("expected overwrite of %s, got %+v", first.ID, second)
	}
	if n := countRows(t, db, &entity.ManningForecastEntry{}, "project_id = ?", p.ID); n != 1 {
		t.Errorf("expected 1 manning row, got %d", n)
	}

	list, err := svcs.Manning.List(ctx, p.ID, "2025-06-21")
	if err != nil || len(list) != 1 {
		t.Errorf("List = %d rows, %v", len(list), err)
	}
}

func TestManningUpsert_UnknownStaff(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	ctx := context.Background()
	p := testutil.SeedProject(t, db, "MF3")

	e, warnings, err := svcs.Manning.Upsert(ctx, p.ID, &UpsertManningRequest{PersonName: "Contractor X", WeekEnding: "2025-06-28", ForecastHours: 10})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Code != WarnStaffFallback {
		t.Fatalf("expected staff fallback warning, got %+v", warnings)
	}
	if e.Discipline != entity.DisciplineGN || e.Function != entity.FunctionEngineering || e.HourlyRate != 170 || e.ForecastCost != 1700 {
		t.Errorf("unexpected fallback entry: %+v", e)
	}
	if n := countRows(t, db, &entity.ActivityLog{}, "project_id = ? AND action = ?", p.ID, entity.ActionFallback); n != 1 {
		t.Errorf("expected 1 fallback audit row, got %d", n)
	}

	if _, _, err := svcs.Manning.Upsert(ctx, p.ID, &UpsertManningRequest{PersonName: "X", WeekEnding: "28/06/2025"}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad week: expected ErrValidation, got %v", err)
	}
	if _, _, err := svcs.Manning.Upsert(ctx, p.ID, &UpsertManningRequest{PersonName: "X", WeekEnding: "2025-06-28", ForecastHours: -1}); !errors.Is(err, ErrValidation) {
		t.Errorf("negative hours: expected ErrValidation, got %v", err)
	}
}
