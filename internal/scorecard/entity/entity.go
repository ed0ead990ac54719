package entity

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout 业务日期格式（日期以字符串存储，保证 sqlite 与 postgres 上的比较一致）
const DateLayout = "2006-01-02"

// NewID 生成实体ID
func NewID() string {
	return uuid.New().String()[:32]
}

// FormatDate 格式化业务日期
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate 解析业务日期
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// AllModels 返回需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&Project{},
		&Deliverable{},
		&ChangeOrder{},
		&PurchaseOrder{},
		&Invoice{},
		&TimesheetEntry{},
		&ManningForecastEntry{},
		&Staff{},
		&RateSchedule{},
		&Discipline{},
		&WeeklySnapshot{},
		&WeeklyCommentary{},
		&ActivityLog{},
	}
}
