package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/repository"
)

// RateService 费率解析服务
type RateService struct {
	env *Env
}

func NewRateService(env *Env) *RateService {
	return &RateService{env: env}
}

// RateResolution 费率解析结果；Fallback 为 true 时 Rate 为默认费率
type RateResolution struct {
	Position string   `json:"position"`
	AsOf     string   `json:"as_of"`
	Rate     float64  `json:"rate"`
	Fallback bool     `json:"fallback"`
	Warning  *Warning `json:"warning,omitempty"`
}

// CreateRateRequest 新增费率请求
type CreateRateRequest struct {
	Position      string  `json:"position"`
	Rate          float64 `json:"rate"`
	EffectiveDate string  `json:"effective_date"`
	EndDate       *string `json:"end_date"`
}

// ResolveRate 解析岗位在 asOf 当日的费率，找不到时回退到默认费率并给出告警
func (s *RateService) ResolveRate(ctx context.Context, position, asOf string) (*RateResolution, error) {
	res, err := s.resolve(ctx, s.env.repos.MasterData, position, asOf)
	if err != nil {
		return nil, err
	}
	if res.Warning != nil {
		emitWarning(s.env.logger, "", *res.Warning)
	}
	return res, nil
}

// resolve 使用给定仓库解析费率，事务内调用时传入事务仓库；告警由调用方记录
func (s *RateService) resolve(ctx context.Context, md *repository.MasterDataRepository, position, asOf string) (*RateResolution, error) {
	res := &RateResolution{Position: position, AsOf: asOf}
	rate, err := md.FindEffectiveRate(ctx, position, asOf)
	switch {
	case err == nil:
		res.Rate = rate.Rate
		return res, nil
	case errors.Is(err, repository.ErrNotFound):
		res.Rate = s.env.cfg.DefaultRate
		res.Fallback = true
		res.Warning = &Warning{
			Code:    WarnRateFallback,
			Subject: position,
			Message: fmt.Sprintf("no rate for position %q on %s, using default %.2f", position, asOf, s.env.cfg.DefaultRate),
		}
		return res, nil
	default:
		return nil, err
	}
}

// AddRate 新增费率行
func (s *RateService) AddRate(ctx context.Context, req *CreateRateRequest) (*entity.RateSchedule, error) {
	if strings.TrimSpace(req.Position) == "" {
		return nil, validationError("position", "不能为空")
	}
	if req.Rate < 0 {
		return nil, validationError("rate", "不能为负数")
	}
	if _, err := entity.ParseDate(req.EffectiveDate); err != nil {
		return nil, validationError("effective_date", "无效的日期 %q", req.EffectiveDate)
	}
	if req.EndDate != nil {
		if _, err := entity.ParseDate(*req.EndDate); err != nil {
			return nil, validationError("end_date", "无效的日期 %q", *req.EndDate)
		}
		if *req.EndDate <= req.EffectiveDate {
			return nil, validationError("end_date", "必须晚于生效日期")
		}
	}
	rate := &entity.RateSchedule{
		ID:            entity.NewID(),
		Position:      strings.TrimSpace(req.Position),
		Rate:          req.Rate,
		EffectiveDate: req.EffectiveDate,
		EndDate:       req.EndDate,
	}
	if err := s.env.repos.MasterData.CreateRate(ctx, rate); err != nil {
		return nil, err
	}
	return rate, nil
}

// History 查询费率历史，position 为空时返回全部
func (s *RateService) History(ctx context.Context, position string) ([]entity.RateSchedule, error) {
	return s.env.repos.MasterData.FindRates(ctx, position)
}

// CurrentRates 各岗位在 asOf 当日生效的费率；asOf 为空时取今天，没有生效费率的岗位不返回
func (s *RateService) CurrentRates(ctx context.Context, asOf string) ([]entity.RateSchedule, error) {
	if asOf == "" {
		asOf = s.env.today()
	}
	all, err := s.env.repos.MasterData.FindRates(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []entity.RateSchedule
	seen := make(map[string]bool)
	for _, r := range all {
		if seen[r.Position] {
			continue
		}
		seen[r.Position] = true
		current, err := s.env.repos.MasterData.FindEffectiveRate(ctx, r.Position, asOf)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *current)
	}
	return out, nil
}
