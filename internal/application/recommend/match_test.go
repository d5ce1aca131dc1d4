package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fab-equip-ai-api/internal/domain/entity"
)

func tempPtr(v float64) *float64 { return &v }

func matchCand(eq *entity.Equipment, fused float64) *entity.Candidate {
	return &entity.Candidate{Equipment: eq, FusedScore: fused}
}

func TestMatchAttributes(t *testing.T) {
	t.Run("웨이퍼 크기 하드 필터", func(t *testing.T) {
		candidates := []*entity.Candidate{
			matchCand(&entity.Equipment{ID: "EQ001", WaferSizes: []int{4, 6}}, 0.8),
			matchCand(&entity.Equipment{ID: "EQ002", WaferSizes: []int{8, 12}}, 0.9),
		}

		kept := matchAttributes(candidates, &entity.StructuredQuery{WaferSizes: []int{6}})
		require.Len(t, kept, 1)
		assert.Equal(t, "EQ001", kept[0].ID())
	})

	t.Run("온도 윈도 하드 필터", func(t *testing.T) {
		candidates := []*entity.Candidate{
			matchCand(&entity.Equipment{ID: "EQ001", TempMin: tempPtr(20), TempMax: tempPtr(1100)}, 0.5),
			matchCand(&entity.Equipment{ID: "EQ002", TempMin: tempPtr(20), TempMax: tempPtr(300)}, 0.5),
		}

		q := &entity.StructuredQuery{TempMin: tempPtr(400), TempMax: tempPtr(800)}
		kept := matchAttributes(candidates, q)
		require.Len(t, kept, 1)
		assert.Equal(t, "EQ001", kept[0].ID())
	})

	t.Run("온도 미공개 설비는 통과", func(t *testing.T) {
		candidates := []*entity.Candidate{
			matchCand(&entity.Equipment{ID: "EQ001"}, 0.5),
		}

		kept := matchAttributes(candidates, &entity.StructuredQuery{TempMin: tempPtr(400)})
		assert.Len(t, kept, 1)
	})

	t.Run("지정 기관 하드 필터", func(t *testing.T) {
		candidates := []*entity.Candidate{
			matchCand(&entity.Equipment{ID: "EQ001", Institution: "나노종합기술원"}, 0.5),
			matchCand(&entity.Equipment{ID: "EQ002", Institution: "한국나노기술원"}, 0.5),
		}

		q := &entity.StructuredQuery{Institutions: []string{"한국나노기술원"}}
		kept := matchAttributes(candidates, q)
		require.Len(t, kept, 1)
		assert.Equal(t, "EQ002", kept[0].ID())
	})

	t.Run("소프트 조건 점수와 사유", func(t *testing.T) {
		eq := &entity.Equipment{
			ID:         "EQ002",
			Category:   "MOCVD",
			Materials:  []string{"GaN", "AlGaN"},
			WaferSizes: []int{4, 6},
		}
		candidates := []*entity.Candidate{matchCand(eq, 0.5)}

		q := &entity.StructuredQuery{
			WaferSizes:       []int{6},
			Materials:        []string{"GaN", "SiC"},
			MappedCategories: []string{"MOCVD", "MBE"},
		}
		kept := matchAttributes(candidates, q)
		require.Len(t, kept, 1)

		// 카테고리 일치 + GaN 지원, SiC 미지원 → 2/3
		c := kept[0]
		assert.InDelta(t, 2.0/3.0, c.MatchScore, 1e-9)
		assert.InDelta(t, 0.4*0.5+0.6*(2.0/3.0), c.CombinedScore, 1e-9)
		assert.Contains(t, c.MatchReasons, "공정 카테고리 MOCVD 일치")
		assert.Contains(t, c.MatchReasons, "재료 GaN 지원")
		assert.Contains(t, c.MatchReasons, "6인치 웨이퍼 지원")
	})

	t.Run("소프트 조건 없으면 중립 점수", func(t *testing.T) {
		candidates := []*entity.Candidate{
			matchCand(&entity.Equipment{ID: "EQ001"}, 0.5),
		}

		kept := matchAttributes(candidates, &entity.StructuredQuery{RawText: "장비"})
		require.Len(t, kept, 1)
		assert.InDelta(t, 1.0, kept[0].MatchScore, 1e-9)
		assert.InDelta(t, 0.4*0.5+0.6*1.0, kept[0].CombinedScore, 1e-9)
	})
}
