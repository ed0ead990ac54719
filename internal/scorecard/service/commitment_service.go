package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/repository"
	"go.uber.org/zap"
)

// CommitmentService 采购承诺跟踪服务
type CommitmentService struct {
	env *Env
}

func NewCommitmentService(env *Env) *CommitmentService {
	return &CommitmentService{env: env}
}

// CreatePORequest 创建采购订单请求
type CreatePORequest struct {
	Supplier               string  `json:"supplier"`
	Description            string  `json:"description"`
	Category               string  `json:"category"`
	CommitmentValue        float64 `json:"commitment_value"`
	AccruedWorkDone        float64 `json:"accrued_work_done"`
	IssueDate              string  `json:"issue_date"`
	ExpectedCompletionDate *string `json:"expected_completion_date"`
	Notes                  string  `json:"notes"`
}

// UpdatePORequest 更新采购订单请求；已开票金额只能由发票汇总得出，不能直接修改
type UpdatePORequest struct {
	Supplier               *string  `json:"supplier"`
	Description            *string  `json:"description"`
	Category               *string  `json:"category"`
	CommitmentValue        *float64 `json:"commitment_value"`
	ExpectedCompletionDate *string  `json:"expected_completion_date"`
	Status                 *string  `json:"status"`
	Notes                  *string  `json:"notes"`
}

// RecordInvoiceRequest 登记发票请求
type RecordInvoiceRequest struct {
	InvoiceNumber string  `json:"invoice_number"`
	InvoiceDate   string  `json:"invoice_date"`
	Amount        float64 `json:"amount"`
	DueDate       *string `json:"due_date"`
	Notes         string  `json:"notes"`
}

// CommitmentTotals 项目承诺合计
type CommitmentTotals struct {
	CommitmentValue     float64 `json:"commitment_value"`
	InvoicedToDate      float64 `json:"invoiced_to_date"`
	AccruedWorkDone     float64 `json:"accrued_work_done"`
	RemainingCommitment float64 `json:"remaining_commitment"`
}

// List 查询项目采购订单
func (s *CommitmentService) List(ctx context.Context, projectID string) ([]entity.PurchaseOrder, error) {
	return s.env.repos.PO.FindByProject(ctx, projectID)
}

// Get 获取采购订单（含发票）
func (s *CommitmentService) Get(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return s.env.repos.PO.FindByID(ctx, id)
}

// ListInvoices 查询采购订单发票
func (s *CommitmentService) ListInvoices(ctx context.Context, poID string) ([]entity.Invoice, error) {
	return s.env.repos.PO.FindInvoices(ctx, poID)
}

// ListProjectInvoices 查询项目下全部采购订单的发票，按发票日期排序
func (s *CommitmentService) ListProjectInvoices(ctx context.Context, projectID string) ([]entity.Invoice, error) {
	return s.env.repos.PO.FindInvoicesByProject(ctx, projectID)
}

// Totals 汇总项目全部采购订单（已取消的不计入）
func (s *CommitmentService) Totals(ctx context.Context, projectID string) (*CommitmentTotals, error) {
	pos, err := s.env.repos.PO.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	t := &CommitmentTotals{}
	for _, po := range pos {
		if po.Status == entity.POStatusCancelled {
			continue
		}
		t.CommitmentValue += po.CommitmentValue
		t.InvoicedToDate += po.InvoicedToDate
		t.AccruedWorkDone += po.AccruedWorkDone
		t.RemainingCommitment += po.RemainingCommitment
	}
	return t, nil
}

// CreatePO 创建采购订单
func (s *CommitmentService) CreatePO(ctx context.Context, projectID string, req *CreatePORequest) (*entity.PurchaseOrder, error) {
	if strings.TrimSpace(req.Supplier) == "" {
		return nil, validationError("supplier", "不能为空")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, validationError("description", "不能为空")
	}
	if req.CommitmentValue < 0 {
		return nil, validationError("commitment_value", "不能为负数")
	}
	if req.AccruedWorkDone < 0 {
		return nil, validationError("accrued_work_done", "不能为负数")
	}
	project, err := s.env.repos.Project.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	unlock := s.env.locks.Lock("purchase_orders:" + projectID)
	defer unlock()

	var po *entity.PurchaseOrder
	err = s.env.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		number, err := tx.PO.GenerateNumber(ctx, projectID, project.Code)
		if err != nil {
			return err
		}
		po = &entity.PurchaseOrder{
			ID:                     entity.NewID(),
			ProjectID:              projectID,
			PONumber:               number,
			Supplier:               strings.TrimSpace(req.Supplier),
			Description:            strings.TrimSpace(req.Description),
			Category:               "services",
			CommitmentValue:        req.CommitmentValue,
			AccruedWorkDone:        req.AccruedWorkDone,
			Status:                 entity.POStatusIssued,
			IssueDate:              req.IssueDate,
			ExpectedCompletionDate: req.ExpectedCompletionDate,
			Notes:                  req.Notes,
		}
		if req.Category != "" {
			po.Category = req.Category
		}
		if po.IssueDate == "" {
			po.IssueDate = s.env.today()
		}
		recompute(po)
		if err := tx.PO.Create(ctx, po); err != nil {
			return err
		}
		return tx.ActivityLog.LogActivity(ctx, projectID, "purchase_order", po.ID, entity.ActionCreate,
			"", entity.POStatusIssued, fmt.Sprintf("创建采购订单 %s", po.PONumber), nil)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// UpdatePO 更新采购订单并重算剩余承诺
func (s *CommitmentService) UpdatePO(ctx context.Context, id string, req *UpdatePORequest) (*entity.PurchaseOrder, error) {
	return s.mutate(ctx, id, func(tx *repository.Repositories, po *entity.PurchaseOrder) error {
		if req.Supplier != nil {
			if strings.TrimSpace(*req.Supplier) == "" {
				return validationError("supplier", "不能为空")
			}
			po.Supplier = strings.TrimSpace(*req.Supplier)
		}
		if req.Description != nil {
			po.Description = *req.Description
		}
		if req.Category != nil {
			po.Category = *req.Category
		}
		if req.CommitmentValue != nil {
			if *req.CommitmentValue < 0 {
				return validationError("commitment_value", "不能为负数")
			}
			po.CommitmentValue = *req.CommitmentValue
		}
		if req.ExpectedCompletionDate != nil {
			po.ExpectedCompletionDate = req.ExpectedCompletionDate
		}
		if req.Notes != nil {
			po.Notes = *req.Notes
		}
		if req.Status != nil && *req.Status != po.Status {
			if po.Status != entity.POStatusIssued {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, po.Status, *req.Status)
			}
			switch *req.Status {
			case entity.POStatusClosed, entity.POStatusCancelled:
			default:
				return validationError("status", "无效的采购订单状态 %q", *req.Status)
			}
			from := po.Status
			today := s.env.today()
			po.Status = *req.Status
			po.CloseDate = &today
			if err := tx.ActivityLog.LogActivity(ctx, po.ProjectID, "purchase_order", po.ID, entity.ActionStatusChange,
				from, po.Status, fmt.Sprintf("采购订单 %s 状态 %s -> %s", po.PONumber, from, po.Status), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// RecordInvoice 登记发票，并按全部发票重新汇总已开票金额
func (s *CommitmentService) RecordInvoice(ctx context.Context, poID string, req *RecordInvoiceRequest) (*entity.Invoice, *entity.PurchaseOrder, error) {
	if strings.TrimSpace(req.InvoiceNumber) == "" {
		return nil, nil, validationError("invoice_number", "不能为空")
	}
	if req.Amount <= 0 {
		return nil, nil, validationError("amount", "必须大于0")
	}
	if req.InvoiceDate == "" {
		req.InvoiceDate = s.env.today()
	}
	if _, err := entity.ParseDate(req.InvoiceDate); err != nil {
		return nil, nil, validationError("invoice_date", "无效的日期 %q", req.InvoiceDate)
	}

	var inv *entity.Invoice
	po, err := s.mutate(ctx, poID, func(tx *repository.Repositories, po *entity.PurchaseOrder) error {
		if po.Status == entity.POStatusCancelled {
			return fmt.Errorf("%w: 采购订单已取消", ErrInvalidTransition)
		}
		inv = &entity.Invoice{
			ID:            entity.NewID(),
			POID:          po.ID,
			InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
			InvoiceDate:   req.InvoiceDate,
			Amount:        req.Amount,
			PaymentStatus: "received",
			DueDate:       req.DueDate,
			Notes:         req.Notes,
		}
		return tx.PO.CreateInvoice(ctx, inv)
	})
	if err != nil {
		return nil, nil, err
	}
	s.env.logger.Info("Invoice recorded",
		zap.String("po_id", poID),
		zap.Float64("amount", req.Amount),
		zap.Float64("invoiced_to_date", po.InvoicedToDate),
	)
	return inv, po, nil
}

// UpdateAccrual 更新已完成未开票金额并重算剩余承诺
func (s *CommitmentService) UpdateAccrual(ctx context.Context, poID string, accruedWorkDone float64) (*entity.PurchaseOrder, error) {
	if accruedWorkDone < 0 {
		return nil, validationError("accrued_work_done", "不能为负数")
	}
	return s.mutate(ctx, poID, func(_ *repository.Repositories, po *entity.PurchaseOrder) error {
		po.AccruedWorkDone = accruedWorkDone
		return nil
	})
}

// mutate 在采购订单锁与事务内执行修改，随后从发票行重算已开票金额与剩余承诺
func (s *CommitmentService) mutate(ctx context.Context, poID string, fn func(tx *repository.Repositories, po *entity.PurchaseOrder) error) (*entity.PurchaseOrder, error) {
	unlock := s.env.locks.Lock("purchase_order:" + poID)
	defer unlock()

	var po *entity.PurchaseOrder
	err := s.env.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		po, err = tx.PO.FindByIDForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if err := fn(tx, po); err != nil {
			return err
		}
		invoiced, err := tx.PO.SumInvoices(ctx, po.ID)
		if err != nil {
			return err
		}
		po.InvoicedToDate = invoiced
		recompute(po)
		return tx.PO.Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// recompute 剩余承诺 = 承诺金额 - 已开票 - 已完成未开票
func recompute(po *entity.PurchaseOrder) {
	po.RemainingCommitment = po.CommitmentValue - po.InvoicedToDate - po.AccruedWorkDone
}
