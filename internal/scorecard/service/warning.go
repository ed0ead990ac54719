package service

import (
	"context"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/repository"
	"go.uber.org/zap"
)

// 回退告警代码
const (
	WarnRateFallback     = "rate_fallback"
	WarnStaffFallback    = "staff_fallback"
	WarnFunctionFallback = "function_fallback"
	WarnNoCommentary     = "commentary_missing"
)

// Warning 宽松查找回退时返回给调用方的数据质量告警
type Warning struct {
	Code    string `json:"code"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// emitWarning 记录告警日志
func emitWarning(log *zap.Logger, projectID string, w Warning) {
	log.Warn(w.Message,
		zap.String("code", w.Code),
		zap.String("subject", w.Subject),
		zap.String("project_id", projectID),
	)
}

// auditFallbacks 将费率与人员回退写入审计日志，同一 (代码, 对象) 只写一条
func auditFallbacks(ctx context.Context, logs *repository.ActivityLogRepository, projectID, entityType, entityID string, warnings []Warning) error {
	seen := make(map[string]bool)
	for _, w := range warnings {
		if w.Code != WarnRateFallback && w.Code != WarnStaffFallback {
			continue
		}
		key := w.Code + "|" + w.Subject
		if seen[key] {
			continue
		}
		seen[key] = true
		err := logs.LogActivity(ctx, projectID, entityType, entityID, entity.ActionFallback, "", "", w.Message,
			map[string]interface{}{"code": w.Code, "subject": w.Subject})
		if err != nil {
			return err
		}
	}
	return nil
}
