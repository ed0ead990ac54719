package repository

import (
	"context"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"gorm.io/gorm"
)

// SnapshotRepository 周快照仓库（只插入、不更新）
type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create 写入快照
func (r *SnapshotRepository) Create(ctx context.Context, s *entity.WeeklySnapshot) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// ExistsForDate 项目在某日是否已有快照
func (r *SnapshotRepository) ExistsForDate(ctx context.Context, projectID, snapshotDate string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.WeeklySnapshot{}).
		Where("project_id = ? AND snapshot_date = ?", projectID, snapshotDate).
		Count(&count).Error
	return count > 0, err
}

// FindByProject 查询项目快照（新的在前）
func (r *SnapshotRepository) FindByProject(ctx context.Context, projectID string) ([]entity.WeeklySnapshot, error) {
	var items []entity.WeeklySnapshot
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("snapshot_date DESC").
		Find(&items).Error
	return items, err
}

// FindByID 根据ID查找快照
func (r *SnapshotRepository) FindByID(ctx context.Context, id string) (*entity.WeeklySnapshot, error) {
	var s entity.WeeklySnapshot
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}
