package policy

import (
	"strings"

	"fab-equip-ai-api/internal/domain/entity"
	"fab-equip-ai-api/pkg/metrics"
)

// 过滤步骤名，步骤按声明顺序执行
const (
	StepMaintenance = "maintenance_exclude"
	StepExternal    = "external_visible"
	StepMinScore    = "min_rag_score"
)

// FilterResult 过滤结果与各步骤淘汰计数
type FilterResult struct {
	Kept    []*entity.Candidate
	Dropped map[string]int
}

// Filter 按策略设置顺序过滤候选：
// 维护排除 -> 外部可见性 -> 最低检索分。
// 推荐条数上限不在此处执行，由编排层在排序后截断。
type Filter struct{}

func NewFilter() *Filter {
	return &Filter{}
}

func (f *Filter) Apply(candidates []*entity.Candidate, settings entity.PolicySettings, userInstitution string) *FilterResult {
	result := &FilterResult{
		Kept:    make([]*entity.Candidate, 0, len(candidates)),
		Dropped: map[string]int{},
	}

	for _, c := range candidates {
		if c == nil || c.Equipment == nil {
			continue
		}

		if settings.MaintenanceExclude && c.Equipment.UnderMaintenance {
			result.drop(StepMaintenance)
			continue
		}

		// external_visible 关闭时只保留本机构设备；
		// 开启时他机构设备还需标记为可外部使用。
		if !sameInstitution(c.Equipment.Institution, userInstitution) &&
			(!settings.ExternalVisible || !c.Equipment.ExternalUsable) {
			result.drop(StepExternal)
			continue
		}

		if c.FusedScore < settings.MinRagScore {
			result.drop(StepMinScore)
			continue
		}

		result.Kept = append(result.Kept, c)
	}

	return result
}

func (r *FilterResult) drop(step string) {
	r.Dropped[step]++
	metrics.PolicyFilterDropped.WithLabelValues(step).Inc()
}

func sameInstitution(a, b string) bool {
	return b != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func normalizeInstitution(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
