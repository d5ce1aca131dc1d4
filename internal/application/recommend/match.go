package recommend

import (
	"fmt"
	"strings"

	"fab-equip-ai-api/internal/domain/entity"
)

const (
	fusedMatchWeight = 0.4
	attrMatchWeight  = 0.6
)

// matchAttributes 按结构化查询对候选做硬性属性过滤与匹配打分。
// 晶圆尺寸、温度窗口、指定机构是硬条件，不满足即淘汰；
// 类别与材料是软条件，只影响匹配分。
// combined = fused*0.4 + match*0.6。
func matchAttributes(candidates []*entity.Candidate, q *entity.StructuredQuery) []*entity.Candidate {
	kept := make([]*entity.Candidate, 0, len(candidates))

	for _, c := range candidates {
		eq := c.Equipment

		if len(q.WaferSizes) > 0 && !supportsAnyWafer(eq, q.WaferSizes) {
			continue
		}
		if !eq.SupportsTempRange(q.TempMin, q.TempMax) {
			continue
		}
		if len(q.Institutions) > 0 && !institutionListed(eq.Institution, q.Institutions) {
			continue
		}

		c.MatchScore, c.MatchReasons = scoreSoftAttributes(eq, q)
		c.CombinedScore = fusedMatchWeight*c.FusedScore + attrMatchWeight*c.MatchScore
		kept = append(kept, c)
	}
	return kept
}

// scoreSoftAttributes 软条件打分：命中比例即匹配分，无软条件时为中性 1.0
func scoreSoftAttributes(eq *entity.Equipment, q *entity.StructuredQuery) (float64, []string) {
	var active, satisfied int
	var reasons []string

	if len(q.MappedCategories) > 0 {
		active++
		if containsFold(q.MappedCategories, eq.Category) {
			satisfied++
			reasons = append(reasons, fmt.Sprintf("공정 카테고리 %s 일치", eq.Category))
		}
	}
	for _, mat := range q.Materials {
		active++
		if eq.SupportsMaterial(mat) {
			satisfied++
			reasons = append(reasons, fmt.Sprintf("재료 %s 지원", mat))
		}
	}
	if len(q.WaferSizes) > 0 {
		// 硬条件已通过，计入理由
		reasons = append(reasons, fmt.Sprintf("%s 웨이퍼 지원", joinInches(q.WaferSizes)))
	}

	if active == 0 {
		return 1.0, reasons
	}
	return float64(satisfied) / float64(active), reasons
}

func supportsAnyWafer(eq *entity.Equipment, sizes []int) bool {
	for _, s := range sizes {
		if eq.SupportsWaferSize(s) {
			return true
		}
	}
	return false
}

func institutionListed(institution string, wanted []string) bool {
	for _, w := range wanted {
		if strings.EqualFold(strings.TrimSpace(institution), strings.TrimSpace(w)) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func joinInches(sizes []int) string {
	parts := make([]string, 0, len(sizes))
	for _, s := range sizes {
		parts = append(parts, fmt.Sprintf("%d인치", s))
	}
	return strings.Join(parts, "/")
}
