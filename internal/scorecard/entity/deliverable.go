package entity

import "time"

// Deliverable 交付物（WBS 最小挣值单元）
type Deliverable struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	ProjectID  string `json:"project_id" gorm:"size:32;not null;index"`
	WBSCode    string `json:"wbs_code" gorm:"size:50;index"`
	Name       string `json:"deliverable_name" gorm:"column:deliverable_name;size:200;not null"`
	Discipline string `json:"discipline" gorm:"size:10;not null"`
	Function   string `json:"function" gorm:"size:20;not null;index"`

	BudgetHours            float64 `json:"budget_hours" gorm:"not null;default:0"`
	Status                 string  `json:"status" gorm:"size:20;default:not_started"`
	PhysicalProgress       float64 `json:"physical_progress" gorm:"default:0"` // 0-100
	ManualProgressOverride bool    `json:"manual_progress_override" gorm:"default:false"`
	EarnedHours            float64 `json:"earned_hours" gorm:"default:0"` // 仅在手动覆盖时生效
	ForecastToComplete     float64 `json:"forecast_to_complete" gorm:"default:0"`

	PlannedStart    *string `json:"planned_start" gorm:"size:10"`
	PlannedComplete *string `json:"planned_complete" gorm:"size:10"`
	ActualStart     *string `json:"actual_start" gorm:"size:10"`
	ActualComplete  *string `json:"actual_complete" gorm:"size:10"`

	ParentDeliverableID *string    `json:"parent_deliverable_id" gorm:"size:32"`
	CreatedAt           time.Time  `json:"created_at"`
	ModifiedAt          *time.Time `json:"modified_date" gorm:"column:modified_date"`
}

func (Deliverable) TableName() string {
	return "deliverables"
}

// 专业
const (
	DisciplineGN    = "GN"
	DisciplineME    = "ME"
	DisciplineEE    = "EE"
	DisciplineIC    = "IC"
	DisciplineST    = "ST"
	DisciplineCivil = "CIVIL"
	DisciplinePROC  = "PROC"
	DisciplineCAD   = "CAD" // 仅用于人员主数据
)

// DeliverableDisciplines 交付物允许的专业
var DeliverableDisciplines = []string{
	DisciplineGN, DisciplineME, DisciplineEE, DisciplineIC, DisciplineST, DisciplineCivil, DisciplinePROC,
}

// 职能
const (
	FunctionManagement  = "MANAGEMENT"
	FunctionEngineering = "ENGINEERING"
	FunctionDrafting    = "DRAFTING"
)

// Functions 全部职能
var Functions = []string{FunctionManagement, FunctionEngineering, FunctionDrafting}

// 交付物状态
const (
	DeliverableStatusNotStarted     = "not_started"
	DeliverableStatusInProgress     = "in_progress"
	DeliverableStatusInternalReview = "internal_review"
	DeliverableStatusClientReview   = "client_review"
	DeliverableStatusIssued         = "issued"
	DeliverableStatusComplete       = "complete"
)

// DeliverableStatuses 生命周期顺序
var DeliverableStatuses = []string{
	DeliverableStatusNotStarted,
	DeliverableStatusInProgress,
	DeliverableStatusInternalReview,
	DeliverableStatusClientReview,
	DeliverableStatusIssued,
	DeliverableStatusComplete,
}

func ValidDeliverableDiscipline(d string) bool { return contains(DeliverableDisciplines, d) }

func ValidFunction(f string) bool { return contains(Functions, f) }

func ValidDeliverableStatus(s string) bool { return contains(DeliverableStatuses, s) }

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
