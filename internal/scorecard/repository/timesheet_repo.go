package repository

import (
	"context"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"gorm.io/gorm"
)

// TimesheetRepository 工时仓库
type TimesheetRepository struct {
	db *gorm.DB
}

func NewTimesheetRepository(db *gorm.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

// FunctionActual 按职能汇总的实际工时与成本
type FunctionActual struct {
	Function    string  `json:"function"`
	ActualHours float64 `json:"actual_hours"`
	ActualCost  float64 `json:"actual_cost"`
}

// WeeklyActual 按周、职能、专业汇总的实际工时
type WeeklyActual struct {
	WeekEnding string  `json:"week_ending"`
	Function   string  `json:"function"`
	Discipline string  `json:"discipline"`
	Hours      float64 `json:"hours"`
	Cost       float64 `json:"cost"`
}

// CreateBatch 批量写入工时
func (r *TimesheetRepository) CreateBatch(ctx context.Context, entries []entity.TimesheetEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(entries, 500).Error
}

// FindByProject 查询项目工时，可按日期区间过滤（闭区间）
func (r *TimesheetRepository) FindByProject(ctx context.Context, projectID, startDate, endDate string) ([]entity.TimesheetEntry, error) {
	var items []entity.TimesheetEntry
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if startDate != "" {
		query = query.Where("date >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("date <= ?", endDate)
	}
	err := query.Order("date ASC").Order("staff_name ASC").Find(&items).Error
	return items, err
}

// SumByFunction 按职能汇总实际工时与成本，没有记录的职能不返回
func (r *TimesheetRepository) SumByFunction(ctx context.Context, projectID string) ([]FunctionActual, error) {
	var rows []FunctionActual
	err := r.db.WithContext(ctx).
		Model(&entity.TimesheetEntry{}).
		Select("function, COALESCE(SUM(hours), 0) AS actual_hours, COALESCE(SUM(cost), 0) AS actual_cost").
		Where("project_id = ?", projectID).
		Group("function").
		Order("function").
		Scan(&rows).Error
	return rows, err
}

// WeeklySummary 按周汇总实际工时
func (r *TimesheetRepository) WeeklySummary(ctx context.Context, projectID string) ([]WeeklyActual, error) {
	var rows []WeeklyActual
	err := r.db.WithContext(ctx).
		Model(&entity.TimesheetEntry{}).
		Select("week_ending, function, discipline, COALESCE(SUM(hours), 0) AS hours, COALESCE(SUM(cost), 0) AS cost").
		Where("project_id = ?", projectID).
		Group("week_ending, function, discipline").
		Order("week_ending ASC").
		Order("function ASC").
		Order("discipline ASC").
		Scan(&rows).Error
	return rows, err
}

// DeleteBatch 按导入批次删除工时，返回删除行数
func (r *TimesheetRepository) DeleteBatch(ctx context.Context, projectID, batchID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("project_id = ? AND import_batch_id = ?", projectID, batchID).
		Delete(&entity.TimesheetEntry{})
	return res.RowsAffected, res.Error
}
