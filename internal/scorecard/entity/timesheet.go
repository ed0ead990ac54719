package entity

import "time"

// TimesheetEntry 工时记录（导入后不可修改，只能按批次删除）
type TimesheetEntry struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectID     string    `json:"project_id" gorm:"size:32;not null;index"`
	Date          string    `json:"date" gorm:"size:10;not null;index"`
	StaffName     string    `json:"staff_name" gorm:"size:100;not null"`
	TaskName      string    `json:"task_name" gorm:"size:200"`
	Hours         float64   `json:"hours" gorm:"not null"`
	Function      string    `json:"function" gorm:"size:20;not null"`
	Discipline    string    `json:"discipline" gorm:"size:10"`
	Position      string    `json:"position" gorm:"size:100"`
	Rate          float64   `json:"rate" gorm:"type:decimal(10,2);not null"`
	Cost          float64   `json:"cost" gorm:"type:decimal(15,2);not null"`
	WeekEnding    string    `json:"week_ending" gorm:"size:10;not null;index"`
	DeliverableID *string   `json:"deliverable_id" gorm:"size:32"`
	ImportBatchID string    `json:"import_batch_id" gorm:"size:64;index"`
	ImportDate    time.Time `json:"import_date"`
}

func (TimesheetEntry) TableName() string {
	return "timesheets"
}
