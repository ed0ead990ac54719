package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestImport_ResolvesStaffAndRates(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	ctx := context.Background()
	testutil.SeedStaff(t, db, "Ben Robinson", entity.FunctionEngineering, entity.DisciplineME, "Senior Engineer")
	testutil.SeedRate(t, db, "Senior Engineer", 150, "2025-01-01", nil)
	p := testutil.SeedProject(t, db, "TS1")

	result, err := svcs.Timesheet.Import(ctx, p.ID, []TimesheetRow{
		{Date: "2025-06-16", StaffName: "Ben Robinson", TaskName: "ME Design", Time: "7:30"},
		{Date: "2025-06-17", StaffName: "Ben Robinson", TaskName: "3D Model", Time: "2"},
		{Date: "2025-06-17", StaffName: "Jane Doe", TaskName: "PM Meeting", Time: "1:00"},
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Imported != 3 || result.TotalHours != 10.5 || result.TotalCost != 7.5*150+2*150+170 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Code != WarnStaffFallback || result.Warnings[0].Subject != "Jane Doe" {
		t.Errorf("expected one staff fallback warning, got %+v", result.Warnings)
	}

	entries, err := svcs.Timesheet.List(ctx, p.ID, "", "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	byTask := make(map[string]entity.TimesheetEntry)
	for _, e := range entries {
		byTask[e.TaskName] = e
		if e.ImportBatchID != result.BatchID {
			t.Errorf("entry %s has batch %s, want %s", e.TaskName, e.ImportBatchID, result.BatchID)
		}
	}
	if e := byTask["ME Design"]; e.Function != entity.FunctionEngineering || e.WeekEnding != "2025-06-21" || e.Rate != 150 || e.Discipline != entity.DisciplineME {
		t.Errorf("unexpected ME row: %+v", e)
	}
	if e := byTask["3D Model"]; e.Function != entity.FunctionDrafting {
		t.Errorf("3D task should map to drafting: %+v", e)
	}
	if e := byTask["PM Meeting"]; e.Function != entity.FunctionManagement || e.Rate != 170 || e.Position != "" {
		t.Errorf("unexpected fallback row: %+v", e)
	}

	if n := countRows(t, db, &entity.ActivityLog{}, "entity_id = ? AND action = ?", result.BatchID, entity.ActionFallback); n != 1 {
		t.Errorf("expected 1 fallback audit row, got %d", n)
	}
	if n := countRows(t, db, &entity.ActivityLog{}, "entity_id = ? AND action = ?", result.BatchID, entity.ActionImport); n != 1 {
		t.Errorf("expected 1 import audit row, got %d", n)
	}
}

func TestImport_RateAsOfEntryDate(t *testing.T) {
	db, svcs := setupServices(t, "2025-07-10")
	ctx := context.Background()
	testutil.SeedStaff(t, db, "Will Smith", entity.FunctionEngineering, entity.DisciplineME, "Lead Engineer")
	testutil.SeedRate(t, db, "Lead Engineer", 190, "2025-01-01", testutil.Ptr("2025-07-01"))
	testutil.SeedRate(t, db, "Lead Engineer", 200, "2025-07-01", nil)
	p := testutil.SeedProject(t, db, "TS2")

	result, err := svcs.Timesheet.Import(ctx, p.ID, []TimesheetRow{
		{Date: "2025-06-30", StaffName: "Will Smith", TaskName: "Calcs", Time: "1"},
		{Date: "2025-07-01", StaffName: "Will Smith", TaskName: "Calcs", Time: "1"},
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.TotalCost != 390 {
		t.Errorf("total cost = %v, want 390", result.TotalCost)
	}
}

func TestImport_BadRowRollsBack(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	ctx := context.Background()
	p := testutil.SeedProject(t, db, "TS3")

	_, err := svcs.Timesheet.Import(ctx, p.ID, []TimesheetRow{
		{Date: "2025-06-16", StaffName: "Jane Doe", TaskName: "PM", Time: "1"},
		{Date: "not a date", StaffName: "Jane Doe", TaskName: "PM", Time: "1"},
	})
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Row != 2 || rowErr.Field != "date" {
		t.Fatalf("expected RowError on row 2, got %v", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("row error should wrap ErrValidation: %v", err)
	}
	if n := countRows(t, db, &entity.TimesheetEntry{}, "project_id = ?", p.ID); n != 0 {
		t.Errorf("expected no rows after failed import, got %d", n)
	}
	if n := countRows(t, db, &entity.ActivityLog{}, "project_id = ?", p.ID); n != 0 {
		t.Errorf("expected no audit rows after failed import, got %d", n)
	}

	if _, err := svcs.Timesheet.Import(ctx, p.ID, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("empty import: expected ErrValidation, got %v", err)
	}
}

func TestImport_WarningsLoggedOnlyAfterCommit(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	db, svcs := setupServices(t, "2025-06-18", withLogger(zap.New(core)))
	ctx := context.Background()
	p := testutil.SeedProject(t, db, "TS6")

	_, err := svcs.Timesheet.Import(ctx, p.ID, []TimesheetRow{
		{Date: "2025-06-16", StaffName: "Jane Doe", TaskName: "PM", Time: "1"},
		{Date: "not a date", StaffName: "Jane Doe", TaskName: "PM", Time: "1"},
	})
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Row != 2 {
		t.Fatalf("expected RowError on row 2, got %v", err)
	}
	if n := logs.Len(); n != 0 {
		t.Errorf("rolled back import logged %d warnings: %v", n, logs.All())
	}

	result, err := svcs.Timesheet.Import(ctx, p.ID, []TimesheetRow{
		{Date: "2025-06-16", StaffName: "Jane Doe", TaskName: "PM", Time: "1"},
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected fallback warnings for unknown staff")
	}
	warned := logs.FilterField(zap.String("code", WarnStaffFallback)).FilterField(zap.String("subject", "Jane Doe"))
	if warned.Len() != 1 || logs.Len() != len(result.Warnings) {
		t.Errorf("logged %d warnings (%d staff fallback), want %d", logs.Len(), warned.Len(), len(result.Warnings))
	}
}

func TestImport_EmptyTaskFallsBack(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	p := testutil.SeedProject(t, db, "TS4")

	result, err := svcs.Timesheet.Import(context.Background(), p.ID, []TimesheetRow{
		{Date: "2025-06-16", StaffName: "Jane Doe", Time: "1"},
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	codes := make(map[string]bool)
	for _, w := range result.Warnings {
		codes[w.Code] = true
	}
	if !codes[WarnFunctionFallback] || !codes[WarnStaffFallback] {
		t.Errorf("expected function and staff fallback warnings, got %+v", result.Warnings)
	}
}

func TestDeleteBatch(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	ctx := context.Background()
	p := testutil.SeedProject(t, db, "TS5")

	first, err := svcs.Timesheet.Import(ctx, p.ID, []TimesheetRow{
		{Date: "2025-06-16", StaffName: "Jane Doe", TaskName: "PM", Time: "1"},
		{Date: "2025-06-17", StaffName: "Jane Doe", TaskName: "PM", Time: "2"},
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if _, err := svcs.Timesheet.Import(ctx, p.ID, []TimesheetRow{
		{Date: "2025-06-18", StaffName: "Jane Doe", TaskName: "PM", Time: "3"},
	}); err != nil {
		t.Fatalf("second Import failed: %v", err)
	}

	deleted, err := svcs.Timesheet.DeleteBatch(ctx, p.ID, first.BatchID)
	if err != nil || deleted != 2 {
		t.Fatalf("DeleteBatch = %d, %v", deleted, err)
	}
	if n := countRows(t, db, &entity.TimesheetEntry{}, "project_id = ?", p.ID); n != 1 {
		t.Errorf("expected 1 remaining row, got %d", n)
	}
	if _, err := svcs.Timesheet.DeleteBatch(ctx, p.ID, first.BatchID); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("expected ErrBatchNotFound, got %v", err)
	}
}

func TestImportFile_CSV(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	p := testutil.SeedProject(t, db, "TS6")

	path := filepath.Join(t.TempDir(), "timesheets.csv")
	content := "[Time] Date,[Staff] Name,[Job Task] Name,[Time] Time\n2025-06-16,Jane Doe,ME Design,4:15\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := svcs.Timesheet.ImportFile(context.Background(), p.ID, path, "utf-8")
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if result.Imported != 1 || result.TotalHours != 4.25 {
		t.Errorf("unexpected result: %+v", result)
	}

	bad := filepath.Join(t.TempDir(), "timesheets.pdf")
	os.WriteFile(bad, []byte("x"), 0o644)
	if _, err := svcs.Timesheet.ImportFile(context.Background(), p.ID, bad, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("unsupported extension: expected ErrValidation, got %v", err)
	}
}
