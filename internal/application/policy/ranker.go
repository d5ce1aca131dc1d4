package policy

import (
	"sort"

	"fab-equip-ai-api/internal/domain/entity"
)

const (
	fusedWeight    = 0.7
	priorityWeight = 0.3
)

// Ranker 按机构优先级与检索分对候选排序。
// 排位仅由 (优先级升序, 融合分降序, ID 升序) 决定；
// final_score 是展示用元数据，不参与排位。
type Ranker struct{}

func NewRanker() *Ranker {
	return &Ranker{}
}

func (r *Ranker) Rank(candidates []*entity.Candidate, rules *entity.RuleSet, userInstitution string) []*entity.Candidate {
	for _, c := range candidates {
		c.PriorityScore = rules.PriorityFor(c.Equipment.Institution, userInstitution)
		c.FinalScore = fusedWeight*c.FusedScore + priorityWeight*priorityContribution(c.PriorityScore)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore < b.PriorityScore
		}
		if a.FusedScore != b.FusedScore {
			return a.FusedScore > b.FusedScore
		}
		return a.ID() < b.ID()
	})

	return candidates
}

// priorityContribution 将优先级归一化到 [0,1]，优先级越高（数值越小）贡献越大
func priorityContribution(priority int) float64 {
	if priority < 0 {
		priority = 0
	}
	if priority > entity.UnknownInstitutionPriority {
		priority = entity.UnknownInstitutionPriority
	}
	return 1 - float64(priority)/float64(entity.UnknownInstitutionPriority)
}
