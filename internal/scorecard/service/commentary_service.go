package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/repository"
)

// CommentaryService 周报评述服务
type CommentaryService struct {
	env *Env
}

func NewCommentaryService(env *Env) *CommentaryService {
	return &CommentaryService{env: env}
}

// SaveCommentaryRequest 保存评述请求
type SaveCommentaryRequest struct {
	KeyActivities         string `json:"key_activities"`
	NextPeriodActivities  string `json:"next_period_activities"`
	IssuesRisks           string `json:"issues_risks"`
	GeneralNotes          string `json:"general_notes"`
	ScheduleVarianceNotes string `json:"schedule_variance_notes"`
	CostVarianceNotes     string `json:"cost_variance_notes"`
	ForecastChangeNotes   string `json:"forecast_change_notes"`
	CreatedBy             string `json:"created_by"`
}

// Save 保存某周评述，同一周后写覆盖
func (s *CommentaryService) Save(ctx context.Context, projectID, weekEnding string, req *SaveCommentaryRequest) (*entity.WeeklyCommentary, error) {
	if _, err := entity.ParseDate(weekEnding); err != nil {
		return nil, validationError("week_ending", "无效的日期 %q", weekEnding)
	}
	if _, err := s.env.repos.Project.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	c := &entity.WeeklyCommentary{
		ID:                    entity.NewID(),
		ProjectID:             projectID,
		WeekEnding:            weekEnding,
		KeyActivities:         req.KeyActivities,
		NextPeriodActivities:  req.NextPeriodActivities,
		IssuesRisks:           req.IssuesRisks,
		GeneralNotes:          req.GeneralNotes,
		ScheduleVarianceNotes: req.ScheduleVarianceNotes,
		CostVarianceNotes:     req.CostVarianceNotes,
		ForecastChangeNotes:   req.ForecastChangeNotes,
		CreatedBy:             req.CreatedBy,
	}
	if err := s.env.repos.Commentary.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return s.env.repos.Commentary.Find(ctx, projectID, weekEnding)
}

// Get 获取某周评述；不存在时返回空评述与告警
func (s *CommentaryService) Get(ctx context.Context, projectID, weekEnding string) (*entity.WeeklyCommentary, *Warning, error) {
	c, err := s.env.repos.Commentary.Find(ctx, projectID, weekEnding)
	if errors.Is(err, repository.ErrNotFound) {
		w := &Warning{
			Code:    WarnNoCommentary,
			Subject: weekEnding,
			Message: fmt.Sprintf("no commentary for week ending %s", weekEnding),
		}
		emitWarning(s.env.logger, projectID, *w)
		return &entity.WeeklyCommentary{ProjectID: projectID, WeekEnding: weekEnding}, w, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return c, nil, nil
}
