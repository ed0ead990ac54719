package service

import (
	"context"
	"strings"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/repository"
	"go.uber.org/zap"
)

// DeliverableService 交付物服务
type DeliverableService struct {
	env *Env
}

func NewDeliverableService(env *Env) *DeliverableService {
	return &DeliverableService{env: env}
}

// CreateDeliverableRequest 创建交付物请求；ForecastToComplete 为空时取预算工时
type CreateDeliverableRequest struct {
	WBSCode                string   `json:"wbs_code"`
	Name                   string   `json:"deliverable_name"`
	Discipline             string   `json:"discipline"`
	Function               string   `json:"function"`
	BudgetHours            float64  `json:"budget_hours"`
	Status                 string   `json:"status"`
	PhysicalProgress       float64  `json:"physical_progress"`
	ManualProgressOverride bool     `json:"manual_progress_override"`
	EarnedHours            float64  `json:"earned_hours"`
	ForecastToComplete     *float64 `json:"forecast_to_complete"`
	PlannedStart           *string  `json:"planned_start"`
	PlannedComplete        *string  `json:"planned_complete"`
	ParentDeliverableID    *string  `json:"parent_deliverable_id"`
}

// UpdateDeliverableRequest 更新交付物请求
type UpdateDeliverableRequest struct {
	WBSCode                *string  `json:"wbs_code"`
	Name                   *string  `json:"deliverable_name"`
	Discipline             *string  `json:"discipline"`
	Function               *string  `json:"function"`
	BudgetHours            *float64 `json:"budget_hours"`
	Status                 *string  `json:"status"`
	PhysicalProgress       *float64 `json:"physical_progress"`
	ManualProgressOverride *bool    `json:"manual_progress_override"`
	EarnedHours            *float64 `json:"earned_hours"`
	ForecastToComplete     *float64 `json:"forecast_to_complete"`
	PlannedStart           *string  `json:"planned_start"`
	PlannedComplete        *string  `json:"planned_complete"`
	ActualStart            *string  `json:"actual_start"`
	ActualComplete         *string  `json:"actual_complete"`
}

// List 查询项目交付物
func (s *DeliverableService) List(ctx context.Context, projectID string) ([]entity.Deliverable, error) {
	return s.env.repos.Deliverable.FindByProject(ctx, projectID)
}

// Get 获取交付物
func (s *DeliverableService) Get(ctx context.Context, id string) (*entity.Deliverable, error) {
	return s.env.repos.Deliverable.FindByID(ctx, id)
}

// Create 创建交付物
func (s *DeliverableService) Create(ctx context.Context, projectID string, req *CreateDeliverableRequest) (*entity.Deliverable, error) {
	if _, err := s.env.repos.Project.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	d, err := buildDeliverable(projectID, req)
	if err != nil {
		return nil, err
	}
	if err := s.env.repos.Deliverable.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Update 部分更新交付物。读取与写回在交付物集合锁和同一事务内完成，避免覆盖并发并入的变更单工时。
func (s *DeliverableService) Update(ctx context.Context, id string, req *UpdateDeliverableRequest) (*entity.Deliverable, error) {
	head, err := s.env.repos.Deliverable.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	unlock := s.env.locks.Lock("deliverables:" + head.ProjectID)
	defer unlock()

	var d *entity.Deliverable
	err = s.env.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		d, err = tx.Deliverable.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := applyDeliverableUpdate(d, req); err != nil {
			return err
		}
		now := s.env.now()
		d.ModifiedAt = &now
		return tx.Deliverable.Update(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func applyDeliverableUpdate(d *entity.Deliverable, req *UpdateDeliverableRequest) error {
	if req.WBSCode != nil {
		d.WBSCode = *req.WBSCode
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return validationError("deliverable_name", "不能为空")
		}
		d.Name = strings.TrimSpace(*req.Name)
	}
	if req.Discipline != nil {
		d.Discipline = *req.Discipline
	}
	if req.Function != nil {
		d.Function = *req.Function
	}
	if req.BudgetHours != nil {
		d.BudgetHours = *req.BudgetHours
	}
	if req.Status != nil {
		d.Status = *req.Status
	}
	if req.PhysicalProgress != nil {
		d.PhysicalProgress = *req.PhysicalProgress
	}
	if req.ManualProgressOverride != nil {
		d.ManualProgressOverride = *req.ManualProgressOverride
	}
	if req.EarnedHours != nil {
		d.EarnedHours = *req.EarnedHours
	}
	if req.ForecastToComplete != nil {
		d.ForecastToComplete = *req.ForecastToComplete
	}
	if req.PlannedStart != nil {
		d.PlannedStart = req.PlannedStart
	}
	if req.PlannedComplete != nil {
		d.PlannedComplete = req.PlannedComplete
	}
	if req.ActualStart != nil {
		d.ActualStart = req.ActualStart
	}
	if req.ActualComplete != nil {
		d.ActualComplete = req.ActualComplete
	}
	return validateDeliverable(d)
}

// ReplaceAll 整体替换项目交付物。任一行校验失败时返回 *RowError，原有交付物保持不变。
func (s *DeliverableService) ReplaceAll(ctx context.Context, projectID string, reqs []CreateDeliverableRequest) ([]entity.Deliverable, error) {
	if _, err := s.env.repos.Project.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	items := make([]entity.Deliverable, 0, len(reqs))
	for i := range reqs {
		d, err := buildDeliverable(projectID, &reqs[i])
		if err != nil {
			return nil, &RowError{Row: i + 1, Err: err}
		}
		items = append(items, *d)
	}

	unlock := s.env.locks.Lock("deliverables:" + projectID)
	defer unlock()
	if err := s.env.repos.Deliverable.ReplaceAll(ctx, projectID, items); err != nil {
		return nil, err
	}
	s.env.logger.Info("Deliverables replaced",
		zap.String("project_id", projectID),
		zap.Int("count", len(items)),
	)
	return items, nil
}

func buildDeliverable(projectID string, req *CreateDeliverableRequest) (*entity.Deliverable, error) {
	d := &entity.Deliverable{
		ID:                     entity.NewID(),
		ProjectID:              projectID,
		WBSCode:                strings.TrimSpace(req.WBSCode),
		Name:                   strings.TrimSpace(req.Name),
		Discipline:             req.Discipline,
		Function:               req.Function,
		BudgetHours:            req.BudgetHours,
		Status:                 req.Status,
		PhysicalProgress:       req.PhysicalProgress,
		ManualProgressOverride: req.ManualProgressOverride,
		EarnedHours:            req.EarnedHours,
		ForecastToComplete:     req.BudgetHours,
		PlannedStart:           req.PlannedStart,
		PlannedComplete:        req.PlannedComplete,
		ParentDeliverableID:    req.ParentDeliverableID,
	}
	if d.Status == "" {
		d.Status = entity.DeliverableStatusNotStarted
	}
	if req.ForecastToComplete != nil {
		d.ForecastToComplete = *req.ForecastToComplete
	}
	if d.Name == "" {
		return nil, validationError("deliverable_name", "不能为空")
	}
	if err := validateDeliverable(d); err != nil {
		return nil, err
	}
	return d, nil
}

// validateDeliverable 录入边界的校验；进度限定在 [0,100]
func validateDeliverable(d *entity.Deliverable) error {
	if !entity.ValidDeliverableDiscipline(d.Discipline) {
		return validationError("discipline", "无效的专业 %q", d.Discipline)
	}
	if !entity.ValidFunction(d.Function) {
		return validationError("function", "无效的职能 %q", d.Function)
	}
	if !entity.ValidDeliverableStatus(d.Status) {
		return validationError("status", "无效的状态 %q", d.Status)
	}
	if d.BudgetHours < 0 {
		return validationError("budget_hours", "不能为负数")
	}
	if d.ForecastToComplete < 0 {
		return validationError("forecast_to_complete", "不能为负数")
	}
	if d.PhysicalProgress < 0 || d.PhysicalProgress > 100 {
		return validationError("physical_progress", "必须在0到100之间，当前为 %v", d.PhysicalProgress)
	}
	if d.EarnedHours < 0 {
		return validationError("earned_hours", "不能为负数")
	}
	return nil
}
