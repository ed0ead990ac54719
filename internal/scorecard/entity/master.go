package entity

import "time"

// Staff 人员主数据（全局）
type Staff struct {
	ID         string  `json:"id" gorm:"primaryKey;size:32"`
	Name       string  `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Function   string  `json:"function" gorm:"size:20;not null"`
	Discipline string  `json:"discipline" gorm:"size:10;not null"`
	Position   string  `json:"position" gorm:"size:100;not null"`
	Active     bool    `json:"active"`
	StartDate  *string `json:"start_date" gorm:"size:10"`
	EndDate    *string `json:"end_date" gorm:"size:10"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Staff) TableName() string {
	return "staff"
}

// RateSchedule 费率表（按岗位的时间版本）
type RateSchedule struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	Position      string    `json:"position" gorm:"size:100;not null;index"`
	Rate          float64   `json:"rate" gorm:"type:decimal(10,2);not null"`
	EffectiveDate string    `json:"effective_date" gorm:"size:10;not null"`
	EndDate       *string   `json:"end_date" gorm:"size:10"`
	CreatedAt     time.Time `json:"created_at"`
}

func (RateSchedule) TableName() string {
	return "rate_schedule"
}

// Discipline 专业字典
type Discipline struct {
	Code     string `json:"code" gorm:"primaryKey;size:10"`
	Name     string `json:"name" gorm:"size:100;not null"`
	Function string `json:"function" gorm:"size:20;not null"`
	Active   bool   `json:"active"`
}

func (Discipline) TableName() string {
	return "disciplines"
}
