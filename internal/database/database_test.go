package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bitfantasy/scorecard/internal/config"
	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSqliteDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "scorecard.db?_busy_timeout=5000&_foreign_keys=on"},
		{"data/x.db", "data/x.db?_busy_timeout=5000&_foreign_keys=on"},
		{"file::memory:?cache=shared", "file::memory:?cache=shared"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(tt.in); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGormLogLevel(t *testing.T) {
	if gormLogLevel("INFO") != logger.Info || gormLogLevel("silent") != logger.Silent || gormLogLevel("") != logger.Warn {
		t.Error("unexpected log level mapping")
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func openTemp(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.Default().Database
	cfg.Path = filepath.Join(t.TempDir(), "scorecard.db")
	cfg.LogLevel = "silent"
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return db
}

func TestSeed_Idempotent(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := Seed(ctx, db, nil); err != nil {
			t.Fatalf("Seed #%d failed: %v", i+1, err)
		}
	}

	counts := []struct {
		model interface{}
		want  int64
	}{
		{&entity.Discipline{}, 8},
		{&entity.Staff{}, 5},
		{&entity.RateSchedule{}, 7},
	}
	for _, c := range counts {
		var n int64
		if err := db.Model(c.model).Count(&n).Error; err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if n != c.want {
			t.Errorf("%T count = %d, want %d", c.model, n, c.want)
		}
	}

	var rate entity.RateSchedule
	if err := db.Where("position = ?", "Senior Engineer").First(&rate).Error; err != nil || rate.Rate != 170 {
		t.Errorf("Senior Engineer rate = %v, %v", rate.Rate, err)
	}
}
