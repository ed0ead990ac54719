package entity

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog 操作与数据质量审计日志
type ActivityLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	ProjectID  string `json:"project_id" gorm:"size:32;index"`
	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_activity_entity"` // project/change_order/purchase_order/timesheet_batch/snapshot/rate
	EntityID   string `json:"entity_id" gorm:"size:64;not null;index:idx_activity_entity"`

	Action     string `json:"action" gorm:"size:50;not null"` // create/status_change/incorporate/import/fallback等
	FromStatus string `json:"from_status" gorm:"size:20"`
	ToStatus   string `json:"to_status" gorm:"size:20"`

	Content  string            `json:"content" gorm:"type:text"`
	Metadata datatypes.JSONMap `json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// 审计动作
const (
	ActionCreate       = "create"
	ActionStatusChange = "status_change"
	ActionIncorporate  = "incorporate"
	ActionImport       = "import"
	ActionDeleteBatch  = "delete_batch"
	ActionSnapshot     = "snapshot"
	ActionFallback     = "fallback"
)
