package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/repository"
)

// ManningService 人力预测服务
type ManningService struct {
	env   *Env
	rates *RateService
}

func NewManningService(env *Env, rates *RateService) *ManningService {
	return &ManningService{env: env, rates: rates}
}

// UpsertManningRequest 新增或覆盖人力预测请求；专业、职能、岗位由人员主数据补全
type UpsertManningRequest struct {
	PersonName    string  `json:"person_name"`
	WeekEnding    string  `json:"week_ending"`
	ForecastHours float64 `json:"forecast_hours"`
}

// List 查询项目人力预测，startWeek 为空时返回全部
func (s *ManningService) List(ctx context.Context, projectID, startWeek string) ([]entity.ManningForecastEntry, error) {
	return s.env.repos.Manning.FindByProject(ctx, projectID, startWeek)
}

// Upsert 新增或覆盖 (人员, 周末日) 的预测工时，并按周末日解析费率
func (s *ManningService) Upsert(ctx context.Context, projectID string, req *UpsertManningRequest) (*entity.ManningForecastEntry, []Warning, error) {
	name := strings.TrimSpace(req.PersonName)
	if name == "" {
		return nil, nil, validationError("person_name", "不能为空")
	}
	if _, err := entity.ParseDate(req.WeekEnding); err != nil {
		return nil, nil, validationError("week_ending", "无效的日期 %q", req.WeekEnding)
	}
	if req.ForecastHours < 0 {
		return nil, nil, validationError("forecast_hours", "不能为负数")
	}
	if _, err := s.env.repos.Project.FindByID(ctx, projectID); err != nil {
		return nil, nil, err
	}

	var (
		saved    *entity.ManningForecastEntry
		warnings []Warning
	)
	err := s.env.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		e := &entity.ManningForecastEntry{
			ID:            entity.NewID(),
			ProjectID:     projectID,
			PersonName:    name,
			WeekEnding:    req.WeekEnding,
			ForecastHours: req.ForecastHours,
		}

		staff, err := lookupStaff(ctx, tx.MasterData, name)
		if err != nil {
			return err
		}
		if staff == nil {
			e.Discipline = entity.DisciplineGN
			e.Function = s.env.cfg.DefaultFunction
			e.HourlyRate = s.env.cfg.DefaultRate
			warnings = append(warnings, Warning{
				Code:    WarnStaffFallback,
				Subject: name,
				Message: fmt.Sprintf("staff %q not registered, using discipline %s, function %s and default rate %.2f",
					name, entity.DisciplineGN, e.Function, e.HourlyRate),
			})
		} else {
			e.Position = staff.Position
			e.Discipline = staff.Discipline
			e.Function = staff.Function
			res, err := s.rates.resolve(ctx, tx.MasterData, staff.Position, req.WeekEnding)
			if err != nil {
				return err
			}
			if res.Warning != nil {
				warnings = append(warnings, *res.Warning)
			}
			e.HourlyRate = res.Rate
		}
		e.ForecastCost = e.ForecastHours * e.HourlyRate

		if err := tx.Manning.Upsert(ctx, e); err != nil {
			return err
		}
		if err := auditFallbacks(ctx, tx.ActivityLog, projectID, "manning_forecast", name+"@"+req.WeekEnding, warnings); err != nil {
			return err
		}
		saved, err = tx.Manning.Find(ctx, projectID, name, req.WeekEnding)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		emitWarning(s.env.logger, projectID, w)
	}
	return saved, warnings, nil
}
