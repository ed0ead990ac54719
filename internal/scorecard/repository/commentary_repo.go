package repository

import (
	"context"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentaryRepository 周报评述仓库
type CommentaryRepository struct {
	db *gorm.DB
}

func NewCommentaryRepository(db *gorm.DB) *CommentaryRepository {
	return &CommentaryRepository{db: db}
}

// Upsert 按 (项目, 周末日) 新增或覆盖
func (r *CommentaryRepository) Upsert(ctx context.Context, c *entity.WeeklyCommentary) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}, {Name: "week_ending"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"key_activities", "next_period_activities", "issues_risks", "general_notes",
			"schedule_variance_notes", "cost_variance_notes", "forecast_change_notes",
			"created_by", "updated_at",
		}),
	}).Create(c).Error
}

// Find 查找某周评述
func (r *CommentaryRepository) Find(ctx context.Context, projectID, weekEnding string) (*entity.WeeklyCommentary, error) {
	var c entity.WeeklyCommentary
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND week_ending = ?", projectID, weekEnding).
		First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}
