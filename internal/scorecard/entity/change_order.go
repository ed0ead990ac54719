package entity

import (
	"time"

	"gorm.io/datatypes"
)

// ChangeOrder 变更单
type ChangeOrder struct {
	ID             string `json:"id" gorm:"primaryKey;size:32"`
	ProjectID      string `json:"project_id" gorm:"size:32;not null;index"`
	CONumber       string `json:"co_number" gorm:"column:co_number;size:50;not null"`
	Description    string `json:"description" gorm:"type:text;not null"`
	ChangeType     string `json:"change_type" gorm:"size:50;not null"`
	ClientBillable bool   `json:"client_billable" gorm:"default:false"`
	Status         string `json:"status" gorm:"size:20;default:draft"` // draft/submitted/approved/rejected/incorporated

	// 工时影响（按职能拆分）
	HoursMgmt  float64 `json:"hours_mgmt" gorm:"default:0"`
	HoursEng   float64 `json:"hours_eng" gorm:"default:0"`
	HoursDraft float64 `json:"hours_draft" gorm:"default:0"`
	TotalHours float64 `json:"total_hours" gorm:"default:0"`

	EstimatedCost float64 `json:"estimated_cost" gorm:"type:decimal(15,2);default:0"`
	ApprovedCost  float64 `json:"approved_cost" gorm:"type:decimal(15,2);default:0"`
	FeeRecovery   float64 `json:"fee_recovery" gorm:"type:decimal(15,2);default:0"`

	SubmittedDate      *string        `json:"submitted_date" gorm:"size:10"`
	ApprovalDate       *string        `json:"approval_date" gorm:"size:10"`
	IncorporatedDate   *string        `json:"incorporated_date" gorm:"size:10"`
	LinkedDeliverables datatypes.JSON `json:"linked_deliverables"`
	ApprovedBy         string         `json:"approved_by" gorm:"size:100"`
	ApprovalNotes      string         `json:"approval_notes" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ChangeOrder) TableName() string {
	return "change_orders"
}

// 变更单状态
const (
	COStatusDraft        = "draft"
	COStatusSubmitted    = "submitted"
	COStatusApproved     = "approved"
	COStatusRejected     = "rejected"
	COStatusIncorporated = "incorporated"
)

// SumHours 三个职能桶的工时合计
func (co *ChangeOrder) SumHours() float64 {
	return co.HoursMgmt + co.HoursEng + co.HoursDraft
}
