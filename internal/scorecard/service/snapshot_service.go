package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SnapshotService 周快照服务
type SnapshotService struct {
	env *Env
}

func NewSnapshotService(env *Env) *SnapshotService {
	return &SnapshotService{env: env}
}

// ForecastState 快照中保存的汇总结果
type ForecastState struct {
	Summary *Summary `json:"summary"`
	Totals  Totals   `json:"totals"`
}

// SnapshotContent 解码后的快照内容
type SnapshotContent struct {
	Project      entity.Project       `json:"project"`
	Deliverables []entity.Deliverable `json:"deliverables"`
	Forecast     ForecastState        `json:"forecast"`
}

// TrendPoint 历史趋势中的一个点
type TrendPoint struct {
	SnapshotDate         string  `json:"snapshot_date"`
	WeekEnding           string  `json:"week_ending"`
	BudgetHours          float64 `json:"budget_hours"`
	ActualHours          float64 `json:"actual_hours"`
	EarnedHours          float64 `json:"earned_hours"`
	ForecastToComplete   float64 `json:"forecast_to_complete"`
	ForecastAtCompletion float64 `json:"forecast_at_completion"`
}

// Create 记录项目当前状态的快照。同一项目同一天只能有一份，重复创建返回 ErrSnapshotExists。
func (s *SnapshotService) Create(ctx context.Context, projectID, weekEnding, userID, notes string) (*entity.WeeklySnapshot, error) {
	if _, err := entity.ParseDate(weekEnding); err != nil {
		return nil, validationError("week_ending", "无效的日期 %q", weekEnding)
	}
	snapshotDate := s.env.today()

	unlock := s.env.locks.Lock("snapshot:" + projectID)
	defer unlock()

	var snap *entity.WeeklySnapshot
	err := s.env.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := tx.Project.FindByID(ctx, projectID)
		if err != nil {
			return err
		}
		exists, err := tx.Snapshot.ExistsForDate(ctx, projectID, snapshotDate)
		if err != nil {
			return err
		}
		if exists {
			return ErrSnapshotExists
		}

		deliverables, err := tx.Deliverable.FindByProject(ctx, projectID)
		if err != nil {
			return err
		}
		sum, err := summarize(ctx, tx, projectID, deliverables)
		if err != nil {
			return err
		}
		totals := sum.Totals()

		projectJSON, err := json.Marshal(project)
		if err != nil {
			return err
		}
		deliverableJSON, err := json.Marshal(deliverables)
		if err != nil {
			return err
		}
		forecastJSON, err := json.Marshal(ForecastState{Summary: sum, Totals: totals})
		if err != nil {
			return err
		}

		snap = &entity.WeeklySnapshot{
			ID:                   entity.NewID(),
			ProjectID:            projectID,
			SnapshotDate:         snapshotDate,
			WeekEnding:           weekEnding,
			ProjectState:         datatypes.JSON(projectJSON),
			DeliverableState:     datatypes.JSON(deliverableJSON),
			ForecastState:        datatypes.JSON(forecastJSON),
			BudgetHours:          totals.BudgetHours,
			ActualHours:          totals.ActualHours,
			ActualCost:           totals.ActualCost,
			EarnedHours:          totals.EarnedHours,
			ForecastToComplete:   totals.ForecastToComplete,
			ForecastAtCompletion: totals.ForecastAtCompletion,
			CreatedBy:            userID,
			Notes:                notes,
		}
		if err := tx.Snapshot.Create(ctx, snap); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrSnapshotExists
			}
			return err
		}
		return tx.ActivityLog.LogActivity(ctx, projectID, "snapshot", snap.ID, entity.ActionSnapshot, "", "",
			fmt.Sprintf("记录快照 %s（周末 %s）", snapshotDate, weekEnding), nil)
	})
	if err != nil {
		return nil, err
	}
	s.env.logger.Info("Snapshot recorded",
		zap.String("project_id", projectID),
		zap.String("snapshot_date", snapshotDate),
		zap.String("week_ending", weekEnding),
	)
	return snap, nil
}

// List 查询项目快照（新的在前）
func (s *SnapshotService) List(ctx context.Context, projectID string) ([]entity.WeeklySnapshot, error) {
	return s.env.repos.Snapshot.FindByProject(ctx, projectID)
}

// Get 获取快照
func (s *SnapshotService) Get(ctx context.Context, id string) (*entity.WeeklySnapshot, error) {
	return s.env.repos.Snapshot.FindByID(ctx, id)
}

// Decode 解码快照中保存的项目、交付物与汇总
func (s *SnapshotService) Decode(snap *entity.WeeklySnapshot) (*SnapshotContent, error) {
	var c SnapshotContent
	if err := json.Unmarshal(snap.ProjectState, &c.Project); err != nil {
		return nil, fmt.Errorf("decode project state: %w", err)
	}
	if err := json.Unmarshal(snap.DeliverableState, &c.Deliverables); err != nil {
		return nil, fmt.Errorf("decode deliverable state: %w", err)
	}
	if err := json.Unmarshal(snap.ForecastState, &c.Forecast); err != nil {
		return nil, fmt.Errorf("decode forecast state: %w", err)
	}
	return &c, nil
}

// Trend 按时间顺序返回快照指标
func (s *SnapshotService) Trend(ctx context.Context, projectID string) ([]TrendPoint, error) {
	snaps, err := s.env.repos.Snapshot.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	points := make([]TrendPoint, 0, len(snaps))
	for i := len(snaps) - 1; i >= 0; i-- {
		sn := snaps[i]
		points = append(points, TrendPoint{
			SnapshotDate:         sn.SnapshotDate,
			WeekEnding:           sn.WeekEnding,
			BudgetHours:          sn.BudgetHours,
			ActualHours:          sn.ActualHours,
			EarnedHours:          sn.EarnedHours,
			ForecastToComplete:   sn.ForecastToComplete,
			ForecastAtCompletion: sn.ForecastAtCompletion,
		})
	}
	return points, nil
}
