package milvus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHits(t *testing.T) {
	t.Run("COSINE 유사도는 변환 없이 그대로 전달", func(t *testing.T) {
		hits := toHits([]*SearchResult{
			{EquipmentID: "EQ002", Score: 0.92},
			{EquipmentID: "EQ009", Score: 0.31},
		})

		require.Len(t, hits, 2)
		assert.Equal(t, "EQ002", hits[0].ID)
		assert.InDelta(t, 0.92, hits[0].Score, 1e-6)
		assert.InDelta(t, 0.31, hits[1].Score, 1e-6)
		// 높은 유사도가 더 높은 점수를 유지해야 한다
		assert.Greater(t, hits[0].Score, hits[1].Score)
	})

	t.Run("빈 ID와 nil 결과는 건너뛴다", func(t *testing.T) {
		hits := toHits([]*SearchResult{
			nil,
			{EquipmentID: "", Score: 0.8},
			{EquipmentID: "EQ001", Score: 0.5},
		})

		require.Len(t, hits, 1)
		assert.Equal(t, "EQ001", hits[0].ID)
	})

	t.Run("빈 입력은 빈 결과", func(t *testing.T) {
		assert.Empty(t, toHits(nil))
	})
}

func TestBuildFilterExpr(t *testing.T) {
	t.Run("제외 카테고리를 부정 조건으로 결합", func(t *testing.T) {
		expr := buildFilterExpr([]string{"ALD", "PECVD"})
		assert.Equal(t, `(category != "ALD" && category != "PECVD")`, expr)
	})

	t.Run("공백 항목은 무시", func(t *testing.T) {
		expr := buildFilterExpr([]string{"  ", "MBE", ""})
		assert.Equal(t, `(category != "MBE")`, expr)
	})

	t.Run("빈 목록은 빈 표현식", func(t *testing.T) {
		assert.Empty(t, buildFilterExpr(nil))
	})
}
