package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePolicySettings(t *testing.T) {
	t.Run("정상 파싱", func(t *testing.T) {
		rows := []PolicySettingRule{
			{Key: "maintenance_exclude", Value: "false", Type: "boolean"},
			{Key: "external_visible", Value: "off", Type: "boolean"},
			{Key: "min_rag_score", Value: "0.35", Type: "float"},
			{Key: "max_recommendations", Value: "10", Type: "integer"},
		}

		s := ParsePolicySettings(rows)
		assert.False(t, s.MaintenanceExclude)
		assert.False(t, s.ExternalVisible)
		assert.InDelta(t, 0.35, s.MinRagScore, 1e-9)
		assert.Equal(t, 10, s.MaxRecommendations)
	})

	t.Run("비정상 값은 기본값 유지", func(t *testing.T) {
		rows := []PolicySettingRule{
			{Key: "maintenance_exclude", Value: "maybe", Type: "boolean"},
			{Key: "min_rag_score", Value: "high", Type: "float"},
			{Key: "max_recommendations", Value: "-3", Type: "integer"},
			{Key: "unknown_key", Value: "1", Type: "integer"},
		}

		s := ParsePolicySettings(rows)
		assert.Equal(t, DefaultPolicySettings(), s)
	})

	t.Run("타입 선언 불일치는 무시", func(t *testing.T) {
		rows := []PolicySettingRule{
			{Key: "external_visible", Value: "false", Type: "string"},
		}

		s := ParsePolicySettings(rows)
		assert.True(t, s.ExternalVisible)
	})

	t.Run("integer 선언 값도 float 설정에 허용", func(t *testing.T) {
		rows := []PolicySettingRule{
			{Key: "min_rag_score", Value: "1", Type: "integer"},
		}

		s := ParsePolicySettings(rows)
		assert.InDelta(t, 1.0, s.MinRagScore, 1e-9)
	})
}

func TestDefaultPolicySettings(t *testing.T) {
	s := DefaultPolicySettings()
	assert.True(t, s.MaintenanceExclude)
	assert.True(t, s.ExternalVisible)
	assert.Zero(t, s.MinRagScore)
	assert.Equal(t, 5, s.MaxRecommendations)
}

func TestPriorityFor(t *testing.T) {
	rs := &RuleSet{Priorities: map[string]int{
		"나노종합기술원": 1,
		"kanc":    2,
	}}

	t.Run("사용자 소속 기관은 항상 0", func(t *testing.T) {
		assert.Zero(t, rs.PriorityFor("미등록기관", "미등록기관"))
		assert.Zero(t, rs.PriorityFor("KANC", "kanc"))
	})

	t.Run("등록 기관은 테이블 값", func(t *testing.T) {
		assert.Equal(t, 1, rs.PriorityFor("나노종합기술원", ""))
		assert.Equal(t, 2, rs.PriorityFor("KANC", ""))
	})

	t.Run("미등록 기관은 센티널", func(t *testing.T) {
		assert.Equal(t, UnknownInstitutionPriority, rs.PriorityFor("처음보는기관", ""))
		assert.Equal(t, UnknownInstitutionPriority, rs.PriorityFor("", ""))
	})
}

func TestStructuredQueryClone(t *testing.T) {
	min := 400.0
	q := &StructuredQuery{
		RawText:    "6인치 GaN",
		WaferSizes: []int{6},
		Materials:  []string{"GaN"},
		TempMin:    &min,
	}

	c := q.Clone()
	c.WaferSizes[0] = 8
	*c.TempMin = 500

	assert.Equal(t, []int{6}, q.WaferSizes)
	assert.InDelta(t, 400, *q.TempMin, 1e-9)

	var nilQ *StructuredQuery
	assert.Nil(t, nilQ.Clone())
}
