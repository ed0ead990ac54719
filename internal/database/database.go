package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitfantasy/scorecard/internal/config"
	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Open 按配置打开本地关系库
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
		)
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(sqliteDSN(cfg.Path))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func sqliteDSN(path string) string {
	if path == "" {
		path = "scorecard.db"
	}
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_foreign_keys=on"
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Migrate 迁移全部表
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(entity.AllModels()...); err != nil {
		return fmt.Errorf("auto-migrate scorecard tables: %w", err)
	}
	return nil
}

// 默认主数据
var (
	defaultDisciplines = []entity.Discipline{
		{Code: entity.DisciplineGN, Name: "General/Management", Function: entity.FunctionManagement, Active: true},
		{Code: entity.DisciplineME, Name: "Mechanical", Function: entity.FunctionEngineering, Active: true},
		{Code: entity.DisciplineEE, Name: "Electrical", Function: entity.FunctionEngineering, Active: true},
		{Code: entity.DisciplineIC, Name: "Instrumentation & Control", Function: entity.FunctionEngineering, Active: true},
		{Code: entity.DisciplineST, Name: "Structural", Function: entity.FunctionEngineering, Active: true},
		{Code: entity.DisciplineCivil, Name: "Civil", Function: entity.FunctionEngineering, Active: true},
		{Code: entity.DisciplinePROC, Name: "Process", Function: entity.FunctionEngineering, Active: true},
		{Code: entity.DisciplineCAD, Name: "CAD/Drafting", Function: entity.FunctionDrafting, Active: true},
	}

	defaultStaff = []entity.Staff{
		{Name: "Gavin Andersen", Function: entity.FunctionManagement, Discipline: entity.DisciplineGN, Position: "Engineering Manager", Active: true},
		{Name: "Mark Rankin", Function: entity.FunctionDrafting, Discipline: entity.DisciplineGN, Position: "Drawing Office Manager", Active: true},
		{Name: "Ben Robinson", Function: entity.FunctionEngineering, Discipline: entity.DisciplineME, Position: "Senior Engineer", Active: true},
		{Name: "Will Smith", Function: entity.FunctionEngineering, Discipline: entity.DisciplineME, Position: "Lead Engineer", Active: true},
		{Name: "Ben Bowles", Function: entity.FunctionEngineering, Discipline: entity.DisciplineME, Position: "Senior Engineer", Active: true},
	}

	defaultRates = []entity.RateSchedule{
		{Position: "Engineering Manager", Rate: 245.0, EffectiveDate: "2025-01-01"},
		{Position: "Lead Engineer", Rate: 195.0, EffectiveDate: "2025-01-01"},
		{Position: "Senior Engineer", Rate: 170.0, EffectiveDate: "2025-01-01"},
		{Position: "Drawing Office Manager", Rate: 195.0, EffectiveDate: "2025-01-01"},
		{Position: "Lead Designer", Rate: 165.0, EffectiveDate: "2025-01-01"},
		{Position: "Senior Designer", Rate: 150.0, EffectiveDate: "2025-01-01"},
		{Position: "Designer", Rate: 140.0, EffectiveDate: "2025-01-01"},
	}
)

// Seed 写入默认主数据，可重复执行
func Seed(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		disciplines := append([]entity.Discipline(nil), defaultDisciplines...)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&disciplines).Error; err != nil {
			return fmt.Errorf("seed disciplines: %w", err)
		}

		for _, s := range defaultStaff {
			staff := s
			staff.ID = entity.NewID()
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoNothing: true,
			}).Create(&staff)
			if res.Error != nil {
				return fmt.Errorf("seed staff %s: %w", s.Name, res.Error)
			}
			if res.RowsAffected > 0 {
				log.Debug("Seeded staff", zap.String("name", s.Name))
			}
		}

		// 费率表没有唯一约束，按 (position, effective_date) 判重
		for _, r := range defaultRates {
			var count int64
			if err := tx.Model(&entity.RateSchedule{}).
				Where("position = ? AND effective_date = ?", r.Position, r.EffectiveDate).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			rate := r
			rate.ID = entity.NewID()
			if err := tx.Create(&rate).Error; err != nil {
				return fmt.Errorf("seed rate %s: %w", r.Position, err)
			}
		}
		return nil
	})
}
