package repository

import (
	"context"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLogRepository 审计日志仓库
type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// LogActivity 便捷记录审计日志
func (r *ActivityLogRepository) LogActivity(ctx context.Context, projectID, entityType, entityID, action, fromStatus, toStatus, content string, metadata map[string]interface{}) error {
	log := &entity.ActivityLog{
		ID:         entity.NewID(),
		ProjectID:  projectID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		Content:    content,
	}
	if metadata != nil {
		log.Metadata = datatypes.JSONMap(metadata)
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity 查询某实体的审计日志
func (r *ActivityLogRepository) FindByEntity(ctx context.Context, entityType, entityID string) ([]entity.ActivityLog, error) {
	var items []entity.ActivityLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// FindByProject 查询项目审计日志，可按动作过滤
func (r *ActivityLogRepository) FindByProject(ctx context.Context, projectID, action string) ([]entity.ActivityLog, error) {
	var items []entity.ActivityLog
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if action != "" {
		query = query.Where("action = ?", action)
	}
	err := query.Order("created_at DESC").Find(&items).Error
	return items, err
}
