package entity

import "time"

// PurchaseOrder 采购订单（承诺）
type PurchaseOrder struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	ProjectID   string `json:"project_id" gorm:"size:32;not null;index"`
	PONumber    string `json:"po_number" gorm:"column:po_number;size:50;not null"`
	Supplier    string `json:"supplier" gorm:"size:200;not null"`
	Description string `json:"description" gorm:"type:text;not null"`
	Category    string `json:"category" gorm:"size:50;default:services"`

	// 金额；InvoicedToDate 与 RemainingCommitment 只能由发票汇总重算
	CommitmentValue     float64 `json:"commitment_value" gorm:"type:decimal(15,2);not null;default:0"`
	InvoicedToDate      float64 `json:"invoiced_to_date" gorm:"type:decimal(15,2);default:0"`
	AccruedWorkDone     float64 `json:"accrued_work_done" gorm:"type:decimal(15,2);default:0"`
	RemainingCommitment float64 `json:"remaining_commitment" gorm:"type:decimal(15,2);default:0"`

	Status                 string  `json:"status" gorm:"size:20;default:issued"` // issued/closed/cancelled
	IssueDate              string  `json:"issue_date" gorm:"size:10"`
	ExpectedCompletionDate *string `json:"expected_completion_date" gorm:"size:10"`
	CloseDate              *string `json:"close_date" gorm:"size:10"`
	Notes                  string  `json:"notes" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Invoices []Invoice `json:"invoices,omitempty" gorm:"foreignKey:POID"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// PO状态
const (
	POStatusIssued    = "issued"
	POStatusClosed    = "closed"
	POStatusCancelled = "cancelled"
)

// Invoice 供应商发票
type Invoice struct {
	ID               string  `json:"id" gorm:"primaryKey;size:32"`
	POID             string  `json:"po_id" gorm:"column:po_id;size:32;not null;index"`
	InvoiceNumber    string  `json:"invoice_number" gorm:"size:50;not null"`
	InvoiceDate      string  `json:"invoice_date" gorm:"size:10;not null"`
	Amount           float64 `json:"amount" gorm:"type:decimal(15,2);not null"`
	PaymentStatus    string  `json:"payment_status" gorm:"size:20;default:received"` // received/approved/paid
	DueDate          *string `json:"due_date" gorm:"size:10"`
	PaidDate         *string `json:"paid_date" gorm:"size:10"`
	PaymentReference string  `json:"payment_reference" gorm:"size:100"`
	Notes            string  `json:"notes" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}
