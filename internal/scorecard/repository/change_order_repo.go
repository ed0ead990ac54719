package repository

import (
	"context"
	"fmt"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"gorm.io/gorm"
)

// ChangeOrderRepository 变更单仓库
type ChangeOrderRepository struct {
	db *gorm.DB
}

func NewChangeOrderRepository(db *gorm.DB) *ChangeOrderRepository {
	return &ChangeOrderRepository{db: db}
}

// FindByProject 查询项目变更单（新建的在前）
func (r *ChangeOrderRepository) FindByProject(ctx context.Context, projectID string, status string) ([]entity.ChangeOrder, error) {
	var items []entity.ChangeOrder
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at DESC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找变更单
func (r *ChangeOrderRepository) FindByID(ctx context.Context, id string) (*entity.ChangeOrder, error) {
	var co entity.ChangeOrder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&co).Error; err != nil {
		return nil, notFound(err)
	}
	return &co, nil
}

// FindByIDForUpdate 行锁读取变更单
func (r *ChangeOrderRepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.ChangeOrder, error) {
	var co entity.ChangeOrder
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&co).Error; err != nil {
		return nil, notFound(err)
	}
	return &co, nil
}

// Create 创建变更单
func (r *ChangeOrderRepository) Create(ctx context.Context, co *entity.ChangeOrder) error {
	return r.db.WithContext(ctx).Create(co).Error
}

// Update 更新变更单
func (r *ChangeOrderRepository) Update(ctx context.Context, co *entity.ChangeOrder) error {
	return r.db.WithContext(ctx).Save(co).Error
}

// GenerateNumber 生成变更单编号 CO-{3位}
func (r *ChangeOrderRepository) GenerateNumber(ctx context.Context, projectID string) (string, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.ChangeOrder{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CO-%03d", count+1), nil
}
