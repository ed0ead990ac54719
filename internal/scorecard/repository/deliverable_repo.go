package repository

import (
	"context"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"gorm.io/gorm"
)

// DeliverableRepository 交付物仓库
type DeliverableRepository struct {
	db *gorm.DB
}

func NewDeliverableRepository(db *gorm.DB) *DeliverableRepository {
	return &DeliverableRepository{db: db}
}

// FunctionBudget 按职能汇总的预算与剩余预测
type FunctionBudget struct {
	Function           string  `json:"function"`
	BudgetHours        float64 `json:"budget_hours"`
	ForecastToComplete float64 `json:"forecast_to_complete"`
}

// FindByProject 查询项目全部交付物（按WBS排序）
func (r *DeliverableRepository) FindByProject(ctx context.Context, projectID string) ([]entity.Deliverable, error) {
	var items []entity.Deliverable
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("wbs_code ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// FindByID 根据ID查找交付物
func (r *DeliverableRepository) FindByID(ctx context.Context, id string) (*entity.Deliverable, error) {
	var d entity.Deliverable
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

// FindByIDForUpdate 锁定并读取单个交付物
func (r *DeliverableRepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.Deliverable, error) {
	var d entity.Deliverable
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

// FindByIDsForUpdate 锁定项目内指定交付物
func (r *DeliverableRepository) FindByIDsForUpdate(ctx context.Context, projectID string, ids []string) ([]entity.Deliverable, error) {
	var items []entity.Deliverable
	err := forUpdate(r.db.WithContext(ctx)).
		Where("project_id = ? AND id IN ?", projectID, ids).
		Find(&items).Error
	return items, err
}

// Create 创建交付物
func (r *DeliverableRepository) Create(ctx context.Context, d *entity.Deliverable) error {
	return r.db.WithContext(ctx).Create(d).Error
}

// Update 更新交付物
func (r *DeliverableRepository) Update(ctx context.Context, d *entity.Deliverable) error {
	return r.db.WithContext(ctx).Save(d).Error
}

// ReplaceAll 整体替换项目交付物，删除与重建在同一事务内完成
func (r *DeliverableRepository) ReplaceAll(ctx context.Context, projectID string, items []entity.Deliverable) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&entity.Deliverable{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.CreateInBatches(items, 200).Error
	})
}

// SumByFunction 按职能汇总预算与FTC，没有交付物的职能不返回
func (r *DeliverableRepository) SumByFunction(ctx context.Context, projectID string) ([]FunctionBudget, error) {
	var rows []FunctionBudget
	err := r.db.WithContext(ctx).
		Model(&entity.Deliverable{}).
		Select("function, COALESCE(SUM(budget_hours), 0) AS budget_hours, COALESCE(SUM(forecast_to_complete), 0) AS forecast_to_complete").
		Where("project_id = ?", projectID).
		Group("function").
		Order("function").
		Scan(&rows).Error
	return rows, err
}

// SumForecastToComplete 项目交付物FTC合计
func (r *DeliverableRepository) SumForecastToComplete(ctx context.Context, projectID string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&entity.Deliverable{}).
		Select("COALESCE(SUM(forecast_to_complete), 0)").
		Where("project_id = ?", projectID).
		Scan(&total).Error
	return total, err
}
