package service

import (
	"context"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/repository"
)

// SummaryService 预算汇总服务（只读，每次调用重新计算）
type SummaryService struct {
	env *Env
}

func NewSummaryService(env *Env) *SummaryService {
	return &SummaryService{env: env}
}

// ActualHoursCost 实际工时与成本
type ActualHoursCost struct {
	Hours float64 `json:"hours"`
	Cost  float64 `json:"cost"`
}

// Summary 按职能的预算/实际/挣值/FTC 汇总。没有记录的职能不出现在对应 map 中，调用方按0处理。
type Summary struct {
	ProjectID        string                     `json:"project_id"`
	BudgetByFunction map[string]float64         `json:"budget_by_function"`
	ActualByFunction map[string]ActualHoursCost `json:"actual_by_function"`
	EarnedByFunction map[string]float64         `json:"earned_by_function"`
	FTCByFunction    map[string]float64         `json:"ftc_by_function"`
}

// Totals 项目级合计
type Totals struct {
	BudgetHours          float64 `json:"budget_hours"`
	ActualHours          float64 `json:"actual_hours"`
	ActualCost           float64 `json:"actual_cost"`
	EarnedHours          float64 `json:"earned_hours"`
	ForecastToComplete   float64 `json:"forecast_to_complete"`
	ForecastAtCompletion float64 `json:"forecast_at_completion"`
}

// Totals 汇总各职能
func (s *Summary) Totals() Totals {
	var t Totals
	for _, v := range s.BudgetByFunction {
		t.BudgetHours += v
	}
	for _, v := range s.ActualByFunction {
		t.ActualHours += v.Hours
		t.ActualCost += v.Cost
	}
	for _, v := range s.EarnedByFunction {
		t.EarnedHours += v
	}
	for _, v := range s.FTCByFunction {
		t.ForecastToComplete += v
	}
	t.ForecastAtCompletion = t.ActualHours + t.ForecastToComplete
	return t
}

// Summarize 汇总项目
func (s *SummaryService) Summarize(ctx context.Context, projectID string) (*Summary, error) {
	if _, err := s.env.repos.Project.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	deliverables, err := s.env.repos.Deliverable.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return summarize(ctx, s.env.repos, projectID, deliverables)
}

// summarize 基于已加载的交付物汇总，挣值与交付物列表保持一致
func summarize(ctx context.Context, repos *repository.Repositories, projectID string, deliverables []entity.Deliverable) (*Summary, error) {
	budgets, err := repos.Deliverable.SumByFunction(ctx, projectID)
	if err != nil {
		return nil, err
	}
	actuals, err := repos.Timesheet.SumByFunction(ctx, projectID)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		ProjectID:        projectID,
		BudgetByFunction: make(map[string]float64),
		ActualByFunction: make(map[string]ActualHoursCost),
		EarnedByFunction: EarnedByFunction(deliverables),
		FTCByFunction:    make(map[string]float64),
	}
	for _, b := range budgets {
		sum.BudgetByFunction[b.Function] = b.BudgetHours
		sum.FTCByFunction[b.Function] = b.ForecastToComplete
	}
	for _, a := range actuals {
		sum.ActualByFunction[a.Function] = ActualHoursCost{Hours: a.ActualHours, Cost: a.ActualCost}
	}
	return sum, nil
}

// FunctionProgress 按职能的预算与平均进度
type FunctionProgress struct {
	Function     string  `json:"function"`
	BudgetHours  float64 `json:"budget_hours"`
	MeanProgress float64 `json:"mean_progress"`
}

// Dashboard 项目仪表盘指标
type Dashboard struct {
	Project           *entity.Project    `json:"project"`
	Totals            Totals             `json:"totals"`
	PerformanceFactor float64            `json:"performance_factor"` // 预算/FAC，FAC为0时取1
	StatusCounts      map[string]int     `json:"status_counts"`
	ByFunction        []FunctionProgress `json:"by_function"`
	DeliverableCount  int                `json:"deliverable_count"`
}

// Dashboard 计算仪表盘指标
func (s *SummaryService) Dashboard(ctx context.Context, projectID string) (*Dashboard, error) {
	project, err := s.env.repos.Project.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	deliverables, err := s.env.repos.Deliverable.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	sum, err := summarize(ctx, s.env.repos, projectID, deliverables)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{
		Project:           project,
		Totals:            sum.Totals(),
		PerformanceFactor: 1.0,
		StatusCounts:      make(map[string]int),
		DeliverableCount:  len(deliverables),
	}
	if dash.Totals.ForecastAtCompletion > 0 {
		dash.PerformanceFactor = dash.Totals.BudgetHours / dash.Totals.ForecastAtCompletion
	}

	type acc struct {
		budget, progress float64
		n                int
	}
	byFunction := make(map[string]*acc)
	for _, d := range deliverables {
		dash.StatusCounts[d.Status]++
		a, ok := byFunction[d.Function]
		if !ok {
			a = &acc{}
			byFunction[d.Function] = a
		}
		a.budget += d.BudgetHours
		a.progress += d.PhysicalProgress
		a.n++
	}
	for _, fn := range entity.Functions {
		if a, ok := byFunction[fn]; ok {
			dash.ByFunction = append(dash.ByFunction, FunctionProgress{
				Function:     fn,
				BudgetHours:  a.budget,
				MeanProgress: a.progress / float64(a.n),
			})
		}
	}
	return dash, nil
}

// WeeklyActuals 按周、职能、专业汇总实际工时
func (s *SummaryService) WeeklyActuals(ctx context.Context, projectID string) ([]repository.WeeklyActual, error) {
	return s.env.repos.Timesheet.WeeklySummary(ctx, projectID)
}
