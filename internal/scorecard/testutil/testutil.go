package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/joho/godotenv"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB opens an isolated in-memory sqlite store for one test and
// migrates every scorecard table. The store is closed on test cleanup.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, time.Now().UnixNano())

	logLevel := logger.Silent
	if os.Getenv("TEST_SQL_LOG") != "" {
		logLevel = logger.Info
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(entity.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// FixedClock returns a clock that always reports the given day at noon UTC
func FixedClock(day string) func() time.Time {
	d, err := time.Parse(entity.DateLayout, day)
	if err != nil {
		panic(err)
	}
	at := d.Add(12 * time.Hour)
	return func() time.Time { return at }
}

// SeedProject creates a project in the database
func SeedProject(t *testing.T, db *gorm.DB, code string) *entity.Project {
	t.Helper()
	project := &entity.Project{
		ID:             entity.NewID(),
		Code:           code,
		Name:           "Project " + code,
		Client:         "Test Client",
		ProjectType:    "EPCM",
		ReportDate:     "2025-06-01",
		ContingencyPct: 10,
		Status:         entity.ProjectStatusActive,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	return project
}

// SeedDeliverable creates a deliverable in the database
func SeedDeliverable(t *testing.T, db *gorm.DB, projectID, wbs, function string, budget, progress, ftc float64) *entity.Deliverable {
	t.Helper()
	d := &entity.Deliverable{
		ID:                 entity.NewID(),
		ProjectID:          projectID,
		WBSCode:            wbs,
		Name:               "Deliverable " + wbs,
		Discipline:         entity.DisciplineME,
		Function:           function,
		BudgetHours:        budget,
		Status:             entity.DeliverableStatusInProgress,
		PhysicalProgress:   progress,
		ForecastToComplete: ftc,
	}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("Failed to seed deliverable: %v", err)
	}
	return d
}

// SeedStaff creates a staff member in the database
func SeedStaff(t *testing.T, db *gorm.DB, name, function, discipline, position string) *entity.Staff {
	t.Helper()
	s := &entity.Staff{
		ID:         entity.NewID(),
		Name:       name,
		Function:   function,
		Discipline: discipline,
		Position:   position,
		Active:     true,
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("Failed to seed staff: %v", err)
	}
	return s
}

// SeedRate creates a rate schedule row in the database
func SeedRate(t *testing.T, db *gorm.DB, position string, rate float64, effective string, end *string) *entity.RateSchedule {
	t.Helper()
	r := &entity.RateSchedule{
		ID:            entity.NewID(),
		Position:      position,
		Rate:          rate,
		EffectiveDate: effective,
		EndDate:       end,
	}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("Failed to seed rate: %v", err)
	}
	return r
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

// AlmostEqual reports whether two hour figures agree within 1e-9
func AlmostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= 1e-9
}
