package entity

import (
	"time"

	"gorm.io/datatypes"
)

// WeeklySnapshot 周快照（写入后不可修改）
type WeeklySnapshot struct {
	ID               string         `json:"id" gorm:"primaryKey;size:32"`
	ProjectID        string         `json:"project_id" gorm:"size:32;not null;uniqueIndex:idx_snapshot_project_date"`
	SnapshotDate     string         `json:"snapshot_date" gorm:"size:10;not null;uniqueIndex:idx_snapshot_project_date"`
	WeekEnding       string         `json:"week_ending" gorm:"size:10;not null"`
	ProjectState     datatypes.JSON `json:"project_state" gorm:"not null"`
	DeliverableState datatypes.JSON `json:"deliverable_state" gorm:"not null"`
	ForecastState    datatypes.JSON `json:"forecast_state" gorm:"not null"` // 汇总结果

	BudgetHours          float64 `json:"budget_hours"`
	ActualHours          float64 `json:"actual_hours"`
	ActualCost           float64 `json:"actual_cost"`
	EarnedHours          float64 `json:"earned_hours"`
	ForecastToComplete   float64 `json:"forecast_to_complete"`
	ForecastAtCompletion float64 `json:"forecast_at_completion"`

	CreatedBy string    `json:"created_by" gorm:"size:64"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func (WeeklySnapshot) TableName() string {
	return "weekly_snapshots"
}

// WeeklyCommentary 周报评述（同一周后写覆盖）
type WeeklyCommentary struct {
	ID                    string `json:"id" gorm:"primaryKey;size:32"`
	ProjectID             string `json:"project_id" gorm:"size:32;not null;uniqueIndex:idx_commentary_project_week"`
	WeekEnding            string `json:"week_ending" gorm:"size:10;not null;uniqueIndex:idx_commentary_project_week"`
	KeyActivities         string `json:"key_activities" gorm:"type:text"`
	NextPeriodActivities  string `json:"next_period_activities" gorm:"type:text"`
	IssuesRisks           string `json:"issues_risks" gorm:"type:text"`
	GeneralNotes          string `json:"general_notes" gorm:"type:text"`
	ScheduleVarianceNotes string `json:"schedule_variance_notes" gorm:"type:text"`
	CostVarianceNotes     string `json:"cost_variance_notes" gorm:"type:text"`
	ForecastChangeNotes   string `json:"forecast_change_notes" gorm:"type:text"`

	CreatedBy string    `json:"created_by" gorm:"size:64"`
	CreatedAt time.Time `json:"created_date"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WeeklyCommentary) TableName() string {
	return "weekly_commentary"
}
