package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fab-equip-ai-api/internal/domain/entity"
)

func cand(id, institution string, fused float64, maintenance, external bool) *entity.Candidate {
	return &entity.Candidate{
		Equipment: &entity.Equipment{
			ID:               id,
			Institution:      institution,
			UnderMaintenance: maintenance,
			ExternalUsable:   external,
		},
		FusedScore: fused,
	}
}

func TestFilterApply(t *testing.T) {
	f := NewFilter()
	settings := entity.DefaultPolicySettings()
	settings.MinRagScore = 0.3

	t.Run("단계 순서대로 탈락 집계", func(t *testing.T) {
		candidates := []*entity.Candidate{
			cand("EQ001", "나노종합기술원", 0.9, true, true),   // 유지보수 중
			cand("EQ002", "한국나노기술원", 0.8, false, false), // 외부 사용 불가
			cand("EQ003", "나노종합기술원", 0.1, false, true),  // 최저 점수 미달
			cand("EQ004", "나노종합기술원", 0.7, false, true),
		}

		result := f.Apply(candidates, settings, "")
		require.Len(t, result.Kept, 1)
		assert.Equal(t, "EQ004", result.Kept[0].ID())
		assert.Equal(t, 1, result.Dropped[StepMaintenance])
		assert.Equal(t, 1, result.Dropped[StepExternal])
		assert.Equal(t, 1, result.Dropped[StepMinScore])
	})

	t.Run("유지보수 탈락이 외부 가시성보다 우선", func(t *testing.T) {
		// 둘 다 해당해도 먼저 실행된 단계에만 집계된다
		candidates := []*entity.Candidate{
			cand("EQ001", "한국나노기술원", 0.9, true, false),
		}

		result := f.Apply(candidates, settings, "")
		assert.Empty(t, result.Kept)
		assert.Equal(t, 1, result.Dropped[StepMaintenance])
		assert.Zero(t, result.Dropped[StepExternal])
	})

	t.Run("사용자 소속 기관은 외부 불가여도 통과", func(t *testing.T) {
		candidates := []*entity.Candidate{
			cand("EQ001", "한국나노기술원", 0.8, false, false),
		}

		result := f.Apply(candidates, settings, "한국나노기술원")
		require.Len(t, result.Kept, 1)
		assert.Zero(t, result.Dropped[StepExternal])
	})

	t.Run("기관 비교는 대소문자 무시", func(t *testing.T) {
		candidates := []*entity.Candidate{
			cand("EQ001", "KANC", 0.8, false, false),
		}

		result := f.Apply(candidates, settings, "kanc")
		require.Len(t, result.Kept, 1)
	})

	t.Run("외부 가시성 꺼지면 타기관 설비만 제외", func(t *testing.T) {
		off := settings
		off.ExternalVisible = false
		candidates := []*entity.Candidate{
			cand("EQ001", "한국나노기술원", 0.8, false, true), // 타기관, 외부 사용 가능이어도 제외
			cand("EQ002", "나노종합기술원", 0.7, false, false),
		}

		result := f.Apply(candidates, off, "나노종합기술원")
		require.Len(t, result.Kept, 1)
		assert.Equal(t, "EQ002", result.Kept[0].ID())
		assert.Equal(t, 1, result.Dropped[StepExternal])
	})

	t.Run("외부 가시성 켜지면 외부 사용 가능 타기관 설비 통과", func(t *testing.T) {
		candidates := []*entity.Candidate{
			cand("EQ001", "한국나노기술원", 0.8, false, true),
		}

		result := f.Apply(candidates, settings, "나노종합기술원")
		require.Len(t, result.Kept, 1)
		assert.Zero(t, result.Dropped[StepExternal])
	})

	t.Run("설정 비활성화 시 탈락 없음", func(t *testing.T) {
		off := entity.PolicySettings{
			MaintenanceExclude: false,
			ExternalVisible:    false,
			MinRagScore:        0,
		}
		candidates := []*entity.Candidate{
			cand("EQ001", "한국나노기술원", 0.0, true, false),
		}

		result := f.Apply(candidates, off, "한국나노기술원")
		assert.Len(t, result.Kept, 1)
		assert.Empty(t, result.Dropped)
	})

	t.Run("nil 후보는 건너뛴다", func(t *testing.T) {
		candidates := []*entity.Candidate{
			nil,
			{FusedScore: 0.9},
			cand("EQ001", "나노종합기술원", 0.8, false, true),
		}

		result := f.Apply(candidates, settings, "")
		require.Len(t, result.Kept, 1)
		assert.Equal(t, "EQ001", result.Kept[0].ID())
	})
}
