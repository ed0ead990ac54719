package entity

import "time"

// Project EPCM项目
type Project struct {
	ID             string  `json:"id" gorm:"primaryKey;size:32"`
	Code           string  `json:"project_code" gorm:"column:project_code;size:50;uniqueIndex;not null"`
	Name           string  `json:"name" gorm:"size:200;not null"`
	Client         string  `json:"client" gorm:"size:200;not null"`
	ProjectType    string  `json:"project_type" gorm:"size:50;default:EPCM"`
	StartDate      *string `json:"start_date" gorm:"size:10"`
	EndDate        *string `json:"end_date" gorm:"size:10"`
	ReportDate     string  `json:"report_date" gorm:"size:10"`
	ContractValue  float64 `json:"contract_value" gorm:"type:decimal(15,2);default:0"`
	ContingencyPct float64 `json:"contingency_pct" gorm:"type:decimal(5,2)"`
	Status         string  `json:"status" gorm:"size:20;default:active;index"`

	CreatedBy string    `json:"created_by" gorm:"size:64"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// 项目状态
const (
	ProjectStatusActive   = "active"
	ProjectStatusClosed   = "closed"
	ProjectStatusArchived = "archived"
)

// ValidProjectStatus 校验项目状态
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusActive, ProjectStatusClosed, ProjectStatusArchived:
		return true
	}
	return false
}
