package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fab-equip-ai-api/internal/domain/entity"
)

func testRules() *entity.RuleSet {
	return &entity.RuleSet{
		Priorities: map[string]int{
			"나노종합기술원": 1,
			"한국나노기술원": 2,
		},
		Settings: entity.DefaultPolicySettings(),
	}
}

func scored(id, institution string, fused float64) *entity.Candidate {
	return &entity.Candidate{
		Equipment:  &entity.Equipment{ID: id, Institution: institution},
		FusedScore: fused,
	}
}

func TestRank(t *testing.T) {
	r := NewRanker()

	t.Run("우선순위 오름차순이 융합 점수보다 우선", func(t *testing.T) {
		candidates := []*entity.Candidate{
			scored("EQ001", "미등록기관", 0.99),
			scored("EQ002", "한국나노기술원", 0.5),
			scored("EQ003", "나노종합기술원", 0.2),
		}

		ranked := r.Rank(candidates, testRules(), "")
		require.Len(t, ranked, 3)
		assert.Equal(t, "EQ003", ranked[0].ID())
		assert.Equal(t, "EQ002", ranked[1].ID())
		assert.Equal(t, "EQ001", ranked[2].ID())
		assert.Equal(t, entity.UnknownInstitutionPriority, ranked[2].PriorityScore)
	})

	t.Run("사용자 기관은 최상위", func(t *testing.T) {
		candidates := []*entity.Candidate{
			scored("EQ001", "나노종합기술원", 0.9),
			scored("EQ002", "미등록기관", 0.1),
		}

		ranked := r.Rank(candidates, testRules(), "미등록기관")
		assert.Equal(t, "EQ002", ranked[0].ID())
		assert.Zero(t, ranked[0].PriorityScore)
	})

	t.Run("동순위는 융합 점수 내림차순", func(t *testing.T) {
		candidates := []*entity.Candidate{
			scored("EQ001", "나노종합기술원", 0.3),
			scored("EQ002", "나노종합기술원", 0.8),
		}

		ranked := r.Rank(candidates, testRules(), "")
		assert.Equal(t, "EQ002", ranked[0].ID())
	})

	t.Run("완전 동점은 ID 오름차순", func(t *testing.T) {
		candidates := []*entity.Candidate{
			scored("EQ005", "한국나노기술원", 0.5),
			scored("EQ002", "한국나노기술원", 0.5),
		}

		ranked := r.Rank(candidates, testRules(), "")
		assert.Equal(t, "EQ002", ranked[0].ID())
		assert.Equal(t, "EQ005", ranked[1].ID())
	})

	t.Run("final_score는 가중 합산 메타데이터", func(t *testing.T) {
		candidates := []*entity.Candidate{
			scored("EQ001", "나노종합기술원", 0.6),
			scored("EQ002", "미등록기관", 0.6),
		}

		ranked := r.Rank(candidates, testRules(), "")
		assert.InDelta(t, 0.7*0.6+0.3*(1-1.0/999), ranked[0].FinalScore, 1e-9)
		assert.InDelta(t, 0.7*0.6, ranked[1].FinalScore, 1e-9)
	})
}
