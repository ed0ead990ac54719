package service

import "github.com/bitfantasy/scorecard/internal/scorecard/entity"

// EffectiveEarned 交付物挣值工时：手动覆盖时取 earned_hours，否则按预算×进度计算。
// 不对进度做范围裁剪。
func EffectiveEarned(d entity.Deliverable) float64 {
	if d.ManualProgressOverride {
		return d.EarnedHours
	}
	return d.BudgetHours * d.PhysicalProgress / 100.0
}

// TotalEarned 交付物挣值合计，空列表返回0
func TotalEarned(items []entity.Deliverable) float64 {
	var total float64
	for _, d := range items {
		total += EffectiveEarned(d)
	}
	return total
}

// EarnedByFunction 按职能汇总挣值，没有交付物的职能不出现
func EarnedByFunction(items []entity.Deliverable) map[string]float64 {
	out := make(map[string]float64)
	for _, d := range items {
		out[d.Function] += EffectiveEarned(d)
	}
	return out
}
