package repository

import (
	"context"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"gorm.io/gorm"
)

// ProjectRepository 项目仓库
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FindAll 按状态查询项目，新建的排在前面
func (r *ProjectRepository) FindAll(ctx context.Context, status string) ([]entity.Project, error) {
	var items []entity.Project
	query := r.db.WithContext(ctx).Model(&entity.Project{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at DESC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找项目
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*entity.Project, error) {
	var p entity.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindByCode 根据项目编码查找
func (r *ProjectRepository) FindByCode(ctx context.Context, code string) (*entity.Project, error) {
	var p entity.Project
	if err := r.db.WithContext(ctx).Where("project_code = ?", code).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// Create 创建项目
func (r *ProjectRepository) Create(ctx context.Context, p *entity.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Update 更新项目
func (r *ProjectRepository) Update(ctx context.Context, p *entity.Project) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Delete 删除项目及其全部子记录
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		poIDs := tx.Model(&entity.PurchaseOrder{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("po_id IN (?)", poIDs).Delete(&entity.Invoice{}).Error; err != nil {
			return err
		}
		children := []interface{}{
			&entity.PurchaseOrder{},
			&entity.Deliverable{},
			&entity.ChangeOrder{},
			&entity.TimesheetEntry{},
			&entity.ManningForecastEntry{},
			&entity.WeeklySnapshot{},
			&entity.WeeklyCommentary{},
			&entity.ActivityLog{},
		}
		for _, model := range children {
			if err := tx.Where("project_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&entity.Project{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
