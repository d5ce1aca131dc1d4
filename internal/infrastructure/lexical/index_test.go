package lexical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fab-equip-ai-api/internal/application/retrieval"
	pkgerrors "fab-equip-ai-api/pkg/errors"
)

func TestTokenize(t *testing.T) {
	t.Run("숫자+단위 토큰 보존", func(t *testing.T) {
		assert.Contains(t, Tokenize("6인치 웨이퍼"), "6inch")
		assert.Contains(t, Tokenize(`8" wafer`), "8inch")
		assert.Contains(t, Tokenize("150mm 기판"), "150mm")
		assert.Contains(t, Tokenize("800도 열처리"), "800c")
	})

	t.Run("불용어와 한 글자 토큰 제거", func(t *testing.T) {
		tokens := Tokenize("GaN 장비 추천해줘")
		assert.Equal(t, []string{"gan"}, tokens)
	})

	t.Run("숫자 단독은 유지", func(t *testing.T) {
		assert.Contains(t, Tokenize("type 5 furnace"), "5")
	})

	t.Run("구두점 기준 분할", func(t *testing.T) {
		tokens := Tokenize("ICP-RIE, PECVD")
		assert.Equal(t, []string{"icp", "rie", "pecvd"}, tokens)
	})
}

func TestIndexSearch(t *testing.T) {
	ctx := context.Background()
	docs := []retrieval.LexicalDoc{
		{ID: "EQ001", Text: "Hybrid RTA 열처리 어닐링 4인치 6인치"},
		{ID: "EQ002", Text: "MOCVD 에피택시 GaN 성장 4인치 6인치"},
		{ID: "EQ009", Text: "MBE 에피택시 GaN AlGaN 성장 2인치 4인치"},
		{ID: "EQ011", Text: "Furnace 산화 열처리 확산 6인치 8인치"},
	}

	t.Run("재구축 전에는 준비 안 됨", func(t *testing.T) {
		idx := NewIndex()
		assert.False(t, idx.Ready())
		assert.Zero(t, idx.DocCount())

		_, err := idx.Search(ctx, retrieval.SearchInput{Query: "열처리"})
		assert.ErrorIs(t, err, pkgerrors.ErrIndexNotReady)
	})

	idx := NewIndex()
	require.NoError(t, idx.Rebuild(ctx, docs))
	assert.True(t, idx.Ready())
	assert.Equal(t, 4, idx.DocCount())

	t.Run("질의어 동시 명중 문서가 상위", func(t *testing.T) {
		hits, err := idx.Search(ctx, retrieval.SearchInput{Query: "GaN 에피택시"})
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.ElementsMatch(t, []string{"EQ002", "EQ009"}, []string{hits[0].ID, hits[1].ID})

		hits, err = idx.Search(ctx, retrieval.SearchInput{Query: "열처리 어닐링"})
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "EQ001", hits[0].ID)
	})

	t.Run("숫자+단위 명중", func(t *testing.T) {
		hits, err := idx.Search(ctx, retrieval.SearchInput{Query: "8인치 열처리"})
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "EQ011", hits[0].ID)
	})

	t.Run("배제어 포함 문서 제거", func(t *testing.T) {
		hits, err := idx.Search(ctx, retrieval.SearchInput{
			Query:        "에피택시 성장",
			ExcludeTerms: []string{"MBE"},
		})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "EQ002", hits[0].ID)
	})

	t.Run("topN 상한", func(t *testing.T) {
		hits, err := idx.Search(ctx, retrieval.SearchInput{Query: "4인치 6인치", TopN: 2})
		require.NoError(t, err)
		assert.Len(t, hits, 2)
	})

	t.Run("명중 없음", func(t *testing.T) {
		hits, err := idx.Search(ctx, retrieval.SearchInput{Query: "스퍼터링"})
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("재구축은 원자적 교체", func(t *testing.T) {
		require.NoError(t, idx.Rebuild(ctx, docs[:1]))
		assert.Equal(t, 1, idx.DocCount())
	})
}
