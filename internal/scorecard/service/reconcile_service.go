package service

import (
	"context"
	"math"
)

// 对账结论
const (
	ReconcileAligned  = "aligned"
	ReconcileRequired = "requires_reconciliation"
)

// ReconcileService 预测对账服务
type ReconcileService struct {
	env *Env
}

func NewReconcileService(env *Env) *ReconcileService {
	return &ReconcileService{env: env}
}

// Reconciliation 交付物FTC与人力预测FTC的对账结果
type Reconciliation struct {
	ProjectID      string  `json:"project_id"`
	AsOf           string  `json:"as_of"`
	DeliverableFTC float64 `json:"deliverable_ftc"`
	ManningFTC     float64 `json:"manning_ftc"`
	Variance       float64 `json:"variance"`
	Threshold      float64 `json:"threshold"`
	Status         string  `json:"status"`
}

// Classify 按阈值判定差异，|variance| <= threshold 为 aligned
func Classify(variance, threshold float64) string {
	if math.Abs(variance) > threshold {
		return ReconcileRequired
	}
	return ReconcileAligned
}

// Reconcile 对比交付物剩余预测与今天之后各周的人力预测
func (s *ReconcileService) Reconcile(ctx context.Context, projectID string) (*Reconciliation, error) {
	if _, err := s.env.repos.Project.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	today := s.env.today()

	deliverableFTC, err := s.env.repos.Deliverable.SumForecastToComplete(ctx, projectID)
	if err != nil {
		return nil, err
	}
	manningFTC, err := s.env.repos.Manning.SumHoursAfter(ctx, projectID, today)
	if err != nil {
		return nil, err
	}

	r := &Reconciliation{
		ProjectID:      projectID,
		AsOf:           today,
		DeliverableFTC: deliverableFTC,
		ManningFTC:     manningFTC,
		Variance:       deliverableFTC - manningFTC,
		Threshold:      s.env.cfg.ReconcileThreshold,
	}
	r.Status = Classify(r.Variance, r.Threshold)
	return r, nil
}
