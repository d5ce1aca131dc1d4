package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fab-equip-ai-api/internal/domain/entity"
)

func testRuleSet() *entity.RuleSet {
	return &entity.RuleSet{
		Priorities: map[string]int{
			"나노종합기술원": 1,
			"한국나노기술원": 2,
		},
		Settings: entity.DefaultPolicySettings(),
		Mappings: []entity.ProcessMappingRule{
			{Keyword: "에피 성장", Categories: []string{"MOCVD", "MBE"}, Priority: 10},
			{Keyword: "식각", Categories: []string{"ICP-RIE"}, Priority: 10},
			{Keyword: "증착", Categories: []string{"PECVD", "ALD", "Sputter"}, Priority: 20},
			{Keyword: "mbe", Categories: []string{"MBE"}, Priority: 1, Exact: true},
		},
	}
}

func TestInterpret(t *testing.T) {
	it := NewInterpreter()
	rules := testRuleSet()

	t.Run("에피 성장 질의", func(t *testing.T) {
		q := it.Interpret("6인치 GaN 에피 성장 장비 추천해줘", rules)

		assert.Equal(t, []int{6}, q.WaferSizes)
		assert.Equal(t, []string{"GaN"}, q.Materials)
		assert.Equal(t, []string{"MOCVD", "MBE"}, q.MappedCategories)
	})

	t.Run("동일 질의 동일 결과", func(t *testing.T) {
		a := it.Interpret("8인치 식각 장비", rules)
		b := it.Interpret("8인치 식각 장비", rules)
		assert.Equal(t, a, b)
	})

	t.Run("규칙 없이도 하드 속성은 추출", func(t *testing.T) {
		q := it.Interpret("200mm SiC 웨이퍼", nil)
		assert.Equal(t, []int{8}, q.WaferSizes)
		assert.Equal(t, []string{"SiC"}, q.Materials)
		assert.Empty(t, q.MappedCategories)
	})
}

func TestExtractWaferSizes(t *testing.T) {
	t.Run("인치 표기", func(t *testing.T) {
		assert.Equal(t, []int{6}, extractWaferSizes("6인치 장비"))
		assert.Equal(t, []int{4, 8}, extractWaferSizes("4인치 그리고 8 inch"))
	})

	t.Run("mm 환산", func(t *testing.T) {
		assert.Equal(t, []int{6}, extractWaferSizes("150mm 웨이퍼"))
		assert.Equal(t, []int{12}, extractWaferSizes("300 mm"))
	})

	t.Run("인치와 mm 중복 제거", func(t *testing.T) {
		assert.Equal(t, []int{6}, extractWaferSizes("6인치 150mm"))
	})

	t.Run("등록되지 않은 지름은 무시", func(t *testing.T) {
		assert.Empty(t, extractWaferSizes("137mm"))
	})
}

func TestExtractTempBounds(t *testing.T) {
	t.Run("범위 표기", func(t *testing.T) {
		min, max := extractTempBounds("400~800도 공정")
		require.NotNil(t, min)
		require.NotNil(t, max)
		assert.Equal(t, 400.0, *min)
		assert.Equal(t, 800.0, *max)
	})

	t.Run("역순 범위는 정렬", func(t *testing.T) {
		min, max := extractTempBounds("800~400도")
		require.NotNil(t, min)
		require.NotNil(t, max)
		assert.Equal(t, 400.0, *min)
		assert.Equal(t, 800.0, *max)
	})

	t.Run("이상 이하", func(t *testing.T) {
		min, max := extractTempBounds("500도 이상에서 동작")
		require.NotNil(t, min)
		assert.Equal(t, 500.0, *min)
		assert.Nil(t, max)

		min, max = extractTempBounds("300℃ 이하")
		assert.Nil(t, min)
		require.NotNil(t, max)
		assert.Equal(t, 300.0, *max)
	})

	t.Run("고온 저온 표현", func(t *testing.T) {
		min, _ := extractTempBounds("고온 어닐링")
		require.NotNil(t, min)
		assert.Equal(t, 400.0, *min)

		_, max := extractTempBounds("저온 증착")
		require.NotNil(t, max)
		assert.Equal(t, 200.0, *max)
	})

	t.Run("온도 언급 없음", func(t *testing.T) {
		min, max := extractTempBounds("식각 장비")
		assert.Nil(t, min)
		assert.Nil(t, max)
	})
}

func TestExtractMaterials(t *testing.T) {
	it := NewInterpreter()

	t.Run("긴 토큰 우선", func(t *testing.T) {
		// SiC 안의 Si가 중복 매칭되면 안 된다
		assert.Equal(t, []string{"SiC"}, it.extractMaterials("SiC 기판"))
		assert.Equal(t, []string{"Si3N4"}, it.extractMaterials("Si3N4 막"))
	})

	t.Run("복수 재료", func(t *testing.T) {
		found := it.extractMaterials("GaN과 Si 모두 지원")
		assert.Contains(t, found, "GaN")
		assert.Contains(t, found, "Si")
	})

	t.Run("영문 재료는 단어 경계 매칭", func(t *testing.T) {
		assert.Empty(t, it.extractMaterials("Silicon Valley"))
	})

	t.Run("한글 재료", func(t *testing.T) {
		assert.Equal(t, []string{"사파이어"}, it.extractMaterials("사파이어 기판 에피"))
	})
}

func TestMapCategories(t *testing.T) {
	mappings := testRuleSet().Mappings

	t.Run("부분 문자열 매칭", func(t *testing.T) {
		got := MapCategories("6인치 에피 성장 장비", mappings)
		assert.Equal(t, []string{"MOCVD", "MBE"}, got)
	})

	t.Run("정확 매칭 규칙은 전체 일치만", func(t *testing.T) {
		assert.Equal(t, []string{"MBE"}, MapCategories("mbe", mappings))
		assert.Empty(t, MapCategories("mbe 장비 추천", mappings))
	})

	t.Run("복수 명중 시 priority 순 최대 3개", func(t *testing.T) {
		got := MapCategories("에피 성장과 증착 모두", mappings)
		assert.Len(t, got, 3)
		assert.Equal(t, []string{"MOCVD", "MBE", "PECVD"}, got)
	})

	t.Run("무명중", func(t *testing.T) {
		assert.Empty(t, MapCategories("세정 장비", mappings))
	})
}

func TestExtractInstitutions(t *testing.T) {
	priorities := testRuleSet().Priorities

	got := extractInstitutions("나노종합기술원 sem 장비", priorities)
	assert.Equal(t, []string{"나노종합기술원"}, got)

	assert.Empty(t, extractInstitutions("sem 장비", priorities))
}
