package repository

import (
	"context"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ManningRepository 人力预测仓库
type ManningRepository struct {
	db *gorm.DB
}

func NewManningRepository(db *gorm.DB) *ManningRepository {
	return &ManningRepository{db: db}
}

// Upsert 按 (项目, 人员, 周末日) 新增或覆盖
func (r *ManningRepository) Upsert(ctx context.Context, e *entity.ManningForecastEntry) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}, {Name: "person_name"}, {Name: "week_ending"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"position", "discipline", "function", "forecast_hours", "hourly_rate", "forecast_cost", "updated_at",
		}),
	}).Create(e).Error
}

// Find 查找单条预测
func (r *ManningRepository) Find(ctx context.Context, projectID, personName, weekEnding string) (*entity.ManningForecastEntry, error) {
	var e entity.ManningForecastEntry
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND person_name = ? AND week_ending = ?", projectID, personName, weekEnding).
		First(&e).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// FindByProject 查询项目人力预测，可指定起始周
func (r *ManningRepository) FindByProject(ctx context.Context, projectID, startWeek string) ([]entity.ManningForecastEntry, error) {
	var items []entity.ManningForecastEntry
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if startWeek != "" {
		query = query.Where("week_ending >= ?", startWeek)
	}
	err := query.Order("week_ending ASC").Order("person_name ASC").Find(&items).Error
	return items, err
}

// SumHoursAfter 汇总周末日严格晚于 date 的预测工时
func (r *ManningRepository) SumHoursAfter(ctx context.Context, projectID, date string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&entity.ManningForecastEntry{}).
		Select("COALESCE(SUM(forecast_hours), 0)").
		Where("project_id = ? AND week_ending > ?", projectID, date).
		Scan(&total).Error
	return total, err
}
