package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ChangeOrderService 变更单服务
type ChangeOrderService struct {
	env *Env
}

func NewChangeOrderService(env *Env) *ChangeOrderService {
	return &ChangeOrderService{env: env}
}

// CreateChangeOrderRequest 创建变更单请求
type CreateChangeOrderRequest struct {
	Description    string  `json:"description"`
	ChangeType     string  `json:"change_type"`
	ClientBillable bool    `json:"client_billable"`
	HoursMgmt      float64 `json:"hours_mgmt"`
	HoursEng       float64 `json:"hours_eng"`
	HoursDraft     float64 `json:"hours_draft"`
	EstimatedCost  float64 `json:"estimated_cost"`
	FeeRecovery    float64 `json:"fee_recovery"`
}

// UpdateChangeOrderRequest 更新变更单请求
type UpdateChangeOrderRequest struct {
	Description    *string  `json:"description"`
	ChangeType     *string  `json:"change_type"`
	ClientBillable *bool    `json:"client_billable"`
	HoursMgmt      *float64 `json:"hours_mgmt"`
	HoursEng       *float64 `json:"hours_eng"`
	HoursDraft     *float64 `json:"hours_draft"`
	EstimatedCost  *float64 `json:"estimated_cost"`
	FeeRecovery    *float64 `json:"fee_recovery"`
}

// ApproveChangeOrderRequest 审批变更单请求
type ApproveChangeOrderRequest struct {
	ApprovedBy   string   `json:"approved_by"`
	ApprovedCost *float64 `json:"approved_cost"`
	Notes        string   `json:"notes"`
}

// Incorporation 变更单并入结果
type Incorporation struct {
	ChangeOrder    *entity.ChangeOrder  `json:"change_order"`
	HoursPerTarget float64              `json:"hours_per_target"`
	Deliverables   []entity.Deliverable `json:"deliverables"`
}

// List 查询项目变更单，status 为空时返回全部
func (s *ChangeOrderService) List(ctx context.Context, projectID, status string) ([]entity.ChangeOrder, error) {
	return s.env.repos.ChangeOrder.FindByProject(ctx, projectID, status)
}

// Get 获取变更单
func (s *ChangeOrderService) Get(ctx context.Context, id string) (*entity.ChangeOrder, error) {
	return s.env.repos.ChangeOrder.FindByID(ctx, id)
}

// History 返回变更单的状态流转记录，最新的在前
func (s *ChangeOrderService) History(ctx context.Context, id string) ([]entity.ActivityLog, error) {
	if _, err := s.env.repos.ChangeOrder.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.env.repos.ActivityLog.FindByEntity(ctx, "change_order", id)
}

// Create 创建变更单（草稿）
func (s *ChangeOrderService) Create(ctx context.Context, projectID string, req *CreateChangeOrderRequest) (*entity.ChangeOrder, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, validationError("description", "不能为空")
	}
	if strings.TrimSpace(req.ChangeType) == "" {
		return nil, validationError("change_type", "不能为空")
	}
	if _, err := s.env.repos.Project.FindByID(ctx, projectID); err != nil {
		return nil, err
	}

	unlock := s.env.locks.Lock("change_orders:" + projectID)
	defer unlock()

	var co *entity.ChangeOrder
	err := s.env.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		number, err := tx.ChangeOrder.GenerateNumber(ctx, projectID)
		if err != nil {
			return err
		}
		co = &entity.ChangeOrder{
			ID:             entity.NewID(),
			ProjectID:      projectID,
			CONumber:       number,
			Description:    strings.TrimSpace(req.Description),
			ChangeType:     strings.TrimSpace(req.ChangeType),
			ClientBillable: req.ClientBillable,
			Status:         entity.COStatusDraft,
			HoursMgmt:      req.HoursMgmt,
			HoursEng:       req.HoursEng,
			HoursDraft:     req.HoursDraft,
			EstimatedCost:  req.EstimatedCost,
			FeeRecovery:    req.FeeRecovery,
		}
		co.TotalHours = co.SumHours()
		if err := tx.ChangeOrder.Create(ctx, co); err != nil {
			return err
		}
		return tx.ActivityLog.LogActivity(ctx, projectID, "change_order", co.ID, entity.ActionCreate,
			"", entity.COStatusDraft, fmt.Sprintf("创建变更单 %s", co.CONumber), nil)
	})
	if err != nil {
		return nil, err
	}
	return co, nil
}

// Update 更新变更单，已并入的变更单不可修改
func (s *ChangeOrderService) Update(ctx context.Context, id string, req *UpdateChangeOrderRequest) (*entity.ChangeOrder, error) {
	unlock := s.env.locks.Lock("change_order:" + id)
	defer unlock()

	var co *entity.ChangeOrder
	err := s.env.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		co, err = tx.ChangeOrder.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if co.Status == entity.COStatusIncorporated {
			return ErrChangeOrderImmutable
		}
		if req.Description != nil {
			if strings.TrimSpace(*req.Description) == "" {
				return validationError("description", "不能为空")
			}
			co.Description = strings.TrimSpace(*req.Description)
		}
		if req.ChangeType != nil {
			co.ChangeType = *req.ChangeType
		}
		if req.ClientBillable != nil {
			co.ClientBillable = *req.ClientBillable
		}
		if req.HoursMgmt != nil {
			co.HoursMgmt = *req.HoursMgmt
		}
		if req.HoursEng != nil {
			co.HoursEng = *req.HoursEng
		}
		if req.HoursDraft != nil {
			co.HoursDraft = *req.HoursDraft
		}
		if req.EstimatedCost != nil {
			co.EstimatedCost = *req.EstimatedCost
		}
		if req.FeeRecovery != nil {
			co.FeeRecovery = *req.FeeRecovery
		}
		co.TotalHours = co.SumHours()
		return tx.ChangeOrder.Update(ctx, co)
	})
	if err != nil {
		return nil, err
	}
	return co, nil
}

// Submit 提交变更单 draft -> submitted
func (s *ChangeOrderService) Submit(ctx context.Context, id string) (*entity.ChangeOrder, error) {
	return s.transition(ctx, id, entity.COStatusDraft, entity.COStatusSubmitted, func(co *entity.ChangeOrder, today string) {
		co.SubmittedDate = &today
	})
}

// Approve 审批通过 submitted -> approved
func (s *ChangeOrderService) Approve(ctx context.Context, id string, req *ApproveChangeOrderRequest) (*entity.ChangeOrder, error) {
	return s.transition(ctx, id, entity.COStatusSubmitted, entity.COStatusApproved, func(co *entity.ChangeOrder, today string) {
		co.ApprovalDate = &today
		co.ApprovedBy = req.ApprovedBy
		co.ApprovalNotes = req.Notes
		co.ApprovedCost = co.EstimatedCost
		if req.ApprovedCost != nil {
			co.ApprovedCost = *req.ApprovedCost
		}
	})
}

// Reject 驳回 submitted -> rejected
func (s *ChangeOrderService) Reject(ctx context.Context, id, notes string) (*entity.ChangeOrder, error) {
	return s.transition(ctx, id, entity.COStatusSubmitted, entity.COStatusRejected, func(co *entity.ChangeOrder, today string) {
		co.ApprovalNotes = notes
	})
}

func (s *ChangeOrderService) transition(ctx context.Context, id, from, to string, apply func(co *entity.ChangeOrder, today string)) (*entity.ChangeOrder, error) {
	unlock := s.env.locks.Lock("change_order:" + id)
	defer unlock()

	var co *entity.ChangeOrder
	err := s.env.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		co, err = tx.ChangeOrder.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if co.Status == entity.COStatusIncorporated {
			return ErrChangeOrderImmutable
		}
		if co.Status != from {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, co.Status, to)
		}
		apply(co, s.env.today())
		co.Status = to
		if err := tx.ChangeOrder.Update(ctx, co); err != nil {
			return err
		}
		return tx.ActivityLog.LogActivity(ctx, co.ProjectID, "change_order", co.ID, entity.ActionStatusChange,
			from, to, fmt.Sprintf("变更单 %s 状态 %s -> %s", co.CONumber, from, to), nil)
	})
	if err != nil {
		return nil, err
	}
	return co, nil
}

// Incorporate 将已审批变更单的总工时平均分摊到目标交付物的预算与FTC。
// 每张变更单只能并入一次；目标交付物必须属于同一项目。
func (s *ChangeOrderService) Incorporate(ctx context.Context, id string, targetIDs []string) (*Incorporation, error) {
	if len(targetIDs) == 0 {
		return nil, ErrNoTargets
	}
	seen := make(map[string]bool, len(targetIDs))
	for _, tid := range targetIDs {
		if seen[tid] {
			return nil, validationError("target_deliverable_ids", "重复的交付物 %s", tid)
		}
		seen[tid] = true
	}

	head, err := s.env.repos.ChangeOrder.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	unlockCO := s.env.locks.Lock("change_order:" + id)
	defer unlockCO()
	unlockDeliverables := s.env.locks.Lock("deliverables:" + head.ProjectID)
	defer unlockDeliverables()

	result := &Incorporation{}
	err = s.env.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		co, err := tx.ChangeOrder.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch co.Status {
		case entity.COStatusApproved:
		case entity.COStatusIncorporated:
			return ErrAlreadyIncorporated
		default:
			return fmt.Errorf("%w: 当前状态 %s", ErrChangeOrderNotApproved, co.Status)
		}

		targets, err := tx.Deliverable.FindByIDsForUpdate(ctx, co.ProjectID, targetIDs)
		if err != nil {
			return err
		}
		if len(targets) != len(targetIDs) {
			return ErrDeliverableNotInProject
		}

		share := co.SumHours() / float64(len(targets))
		now := s.env.now()
		for i := range targets {
			targets[i].BudgetHours += share
			targets[i].ForecastToComplete += share
			targets[i].ModifiedAt = &now
			if err := tx.Deliverable.Update(ctx, &targets[i]); err != nil {
				return err
			}
		}

		linked, err := json.Marshal(targetIDs)
		if err != nil {
			return err
		}
		today := s.env.today()
		from := co.Status
		co.TotalHours = co.SumHours()
		co.Status = entity.COStatusIncorporated
		co.IncorporatedDate = &today
		co.LinkedDeliverables = datatypes.JSON(linked)
		if err := tx.ChangeOrder.Update(ctx, co); err != nil {
			return err
		}
		err = tx.ActivityLog.LogActivity(ctx, co.ProjectID, "change_order", co.ID, entity.ActionIncorporate,
			from, entity.COStatusIncorporated,
			fmt.Sprintf("变更单 %s 并入 %d 个交付物，每个 %.2f 小时", co.CONumber, len(targets), share),
			map[string]interface{}{"targets": targetIDs, "hours_per_target": share})
		if err != nil {
			return err
		}

		result.ChangeOrder = co
		result.HoursPerTarget = share
		result.Deliverables = targets
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.env.logger.Info("Change order incorporated",
		zap.String("co_id", id),
		zap.Int("targets", len(targetIDs)),
		zap.Float64("hours_per_target", result.HoursPerTarget),
	)
	return result, nil
}
