package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fab-equip-ai-api/internal/domain/entity"
	"fab-equip-ai-api/internal/domain/repository"
	pkgerrors "fab-equip-ai-api/pkg/errors"
)

type stubSearcher struct {
	hits   map[string][]Hit // query -> hits
	all    []Hit
	err    error
	inputs []SearchInput
}

func (s *stubSearcher) Search(ctx context.Context, in SearchInput) ([]Hit, error) {
	s.inputs = append(s.inputs, in)
	if s.err != nil {
		return nil, s.err
	}
	if s.hits != nil {
		return s.hits[in.Query], nil
	}
	return s.all, nil
}

type stubEquipmentRepo struct {
	byID map[string]*entity.Equipment
}

func newStubEquipmentRepo(eqs ...*entity.Equipment) *stubEquipmentRepo {
	m := map[string]*entity.Equipment{}
	for _, eq := range eqs {
		m[eq.ID] = eq
	}
	return &stubEquipmentRepo{byID: m}
}

func (s *stubEquipmentRepo) Create(ctx context.Context, eq *entity.Equipment) error { return nil }
func (s *stubEquipmentRepo) BatchUpsert(ctx context.Context, eqs []*entity.Equipment) error {
	return nil
}
func (s *stubEquipmentRepo) GetByID(ctx context.Context, id string) (*entity.Equipment, error) {
	return s.byID[id], nil
}
func (s *stubEquipmentRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Equipment, error) {
	out := make([]*entity.Equipment, 0, len(ids))
	for _, id := range ids {
		if eq, ok := s.byID[id]; ok {
			out = append(out, eq)
		}
	}
	return out, nil
}
func (s *stubEquipmentRepo) ListAll(ctx context.Context) ([]*entity.Equipment, error) {
	return nil, nil
}
func (s *stubEquipmentRepo) List(ctx context.Context, p repository.Pagination) (*repository.PagedResult[*entity.Equipment], error) {
	return nil, nil
}
func (s *stubEquipmentRepo) Count(ctx context.Context) (int64, error) { return 0, nil }

func testConfig() Config {
	return Config{VectorWeight: 0.5, BM25Weight: 0.5, CategoryBoost: 0.2, TopN: 20}
}

func TestFuse(t *testing.T) {
	ctx := context.Background()
	repo := newStubEquipmentRepo(
		&entity.Equipment{ID: "EQ001", Name: "Hybrid RTA", Category: "RTA"},
		&entity.Equipment{ID: "EQ002", Name: "MOCVD System", Category: "MOCVD"},
		&entity.Equipment{ID: "EQ003", Name: "ICP-RIE", Category: "ICP-RIE"},
	)

	t.Run("가중 합산과 어휘 점수 정규화", func(t *testing.T) {
		lex := &stubSearcher{all: []Hit{{ID: "EQ001", Score: 8.0}, {ID: "EQ003", Score: 4.0}}}
		sem := &stubSearcher{all: []Hit{{ID: "EQ001", Score: 0.9}}}
		f := NewFusion(lex, sem, repo, testConfig())

		got, err := f.Fuse(ctx, &entity.StructuredQuery{RawText: "열처리 장비"}, nil, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)

		// EQ001: 0.5*0.9 + 0.5*(8/8) = 0.95, EQ003: 0.5*(4/8) = 0.25
		assert.Equal(t, "EQ001", got[0].ID())
		assert.InDelta(t, 0.95, got[0].FusedScore, 1e-9)
		assert.InDelta(t, 0.25, got[1].FusedScore, 1e-9)
	})

	t.Run("매핑 카테고리 평면 부스트", func(t *testing.T) {
		lex := &stubSearcher{all: []Hit{{ID: "EQ002", Score: 5.0}}}
		sem := &stubSearcher{all: nil}
		f := NewFusion(lex, sem, repo, testConfig())

		q := &entity.StructuredQuery{RawText: "에피 성장 장비", MappedCategories: []string{"mocvd"}}
		got, err := f.Fuse(ctx, q, nil, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)

		// 0.5*1.0 + 0.2 boost, 대소문자 무시 매칭
		assert.True(t, got[0].CategoryBoosted)
		assert.InDelta(t, 0.7, got[0].FusedScore, 1e-9)
	})

	t.Run("단일 경로 실패는 강등", func(t *testing.T) {
		lex := &stubSearcher{all: []Hit{{ID: "EQ001", Score: 3.0}}}
		sem := &stubSearcher{err: errors.New("milvus down")}
		f := NewFusion(lex, sem, repo, testConfig())

		got, err := f.Fuse(ctx, &entity.StructuredQuery{RawText: "열처리"}, nil, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Zero(t, got[0].SemanticScore)
	})

	t.Run("양쪽 실패는 오류", func(t *testing.T) {
		lex := &stubSearcher{err: errors.New("index not ready")}
		sem := &stubSearcher{err: errors.New("milvus down")}
		f := NewFusion(lex, sem, repo, testConfig())

		_, err := f.Fuse(ctx, &entity.StructuredQuery{RawText: "열처리"}, nil, 0)
		require.Error(t, err)

		var appErr *pkgerrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, pkgerrors.CodeFusionFailed, appErr.Code)
	})

	t.Run("빈 질의는 오류", func(t *testing.T) {
		f := NewFusion(&stubSearcher{}, &stubSearcher{}, repo, testConfig())
		_, err := f.Fuse(ctx, &entity.StructuredQuery{RawText: "   "}, nil, 0)
		require.Error(t, err)
	})

	t.Run("동점은 ID 오름차순", func(t *testing.T) {
		lex := &stubSearcher{all: []Hit{{ID: "EQ003", Score: 2.0}, {ID: "EQ001", Score: 2.0}}}
		sem := &stubSearcher{all: nil}
		f := NewFusion(lex, sem, repo, testConfig())

		got, err := f.Fuse(ctx, &entity.StructuredQuery{RawText: "장비 검색"}, nil, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "EQ001", got[0].ID())
		assert.Equal(t, "EQ003", got[1].ID())
	})

	t.Run("topN 절단", func(t *testing.T) {
		lex := &stubSearcher{all: []Hit{
			{ID: "EQ001", Score: 3.0}, {ID: "EQ002", Score: 2.0}, {ID: "EQ003", Score: 1.0},
		}}
		sem := &stubSearcher{all: nil}
		f := NewFusion(lex, sem, repo, testConfig())

		got, err := f.Fuse(ctx, &entity.StructuredQuery{RawText: "증착 장비"}, nil, 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestFuseCompoundOR(t *testing.T) {
	ctx := context.Background()
	repo := newStubEquipmentRepo(
		&entity.Equipment{ID: "EQ002", Name: "MOCVD System", Category: "MOCVD"},
		&entity.Equipment{ID: "EQ009", Name: "MBE System", Category: "MBE"},
	)

	lex := &stubSearcher{hits: map[string][]Hit{
		"MOCVD": {{ID: "EQ002", Score: 5.0}, {ID: "EQ009", Score: 1.0}},
		"MBE":   {{ID: "EQ009", Score: 5.0}},
	}}
	sem := &stubSearcher{hits: map[string][]Hit{}}
	f := NewFusion(lex, sem, repo, testConfig())

	intent := &entity.IntentFlags{IsCompoundOR: true}
	got, err := f.Fuse(ctx, &entity.StructuredQuery{RawText: "MOCVD 또는 MBE"}, intent, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// 두 하위 질의 모두 명중한 EQ009가 가산점으로 앞선다
	assert.Equal(t, "EQ009", got[0].ID())
	assert.InDelta(t, 0.5*1.0+compoundHitBonus, got[0].FusedScore, 1e-9)
	assert.InDelta(t, 0.5*1.0, got[1].FusedScore, 1e-9)

	// 하위 질의 단위로 검색이 수행되어야 한다
	queries := []string{lex.inputs[0].Query, lex.inputs[1].Query}
	assert.ElementsMatch(t, []string{"MOCVD", "MBE"}, queries)
}

func TestFuseIntentExclusion(t *testing.T) {
	ctx := context.Background()
	repo := newStubEquipmentRepo(
		&entity.Equipment{ID: "EQ004", Name: "PECVD System", Category: "PECVD"},
		&entity.Equipment{ID: "EQ010", Name: "ALD System", Category: "ALD"},
	)

	lex := &stubSearcher{all: []Hit{{ID: "EQ004", Score: 3.0}, {ID: "EQ010", Score: 3.0}}}
	sem := &stubSearcher{all: nil}
	f := NewFusion(lex, sem, repo, testConfig())

	intent := &entity.IntentFlags{ExcludedCategories: []string{"ald"}}
	got, err := f.Fuse(ctx, &entity.StructuredQuery{RawText: "ALD 제외 증착 장비"}, intent, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "EQ004", got[0].ID())

	// 제외 카테고리는 검색 입력으로도 전달되어 벡터 측 필터에 쓰인다
	require.NotEmpty(t, sem.inputs)
	assert.Equal(t, []string{"ald"}, sem.inputs[0].ExcludeCategories)
}

func TestFuseTempExclusion(t *testing.T) {
	ctx := context.Background()
	f64 := func(v float64) *float64 { return &v }
	repo := newStubEquipmentRepo(
		&entity.Equipment{ID: "EQ001", Name: "Hybrid RTA", Category: "RTA", TempMin: f64(900), TempMax: f64(1200)},
		&entity.Equipment{ID: "EQ004", Name: "PECVD System", Category: "PECVD", TempMin: f64(200), TempMax: f64(400)},
		&entity.Equipment{ID: "EQ010", Name: "ALD System", Category: "ALD"},
	)

	lex := &stubSearcher{all: []Hit{
		{ID: "EQ001", Score: 3.0}, {ID: "EQ004", Score: 2.0}, {ID: "EQ010", Score: 1.0},
	}}
	sem := &stubSearcher{all: nil}
	f := NewFusion(lex, sem, repo, testConfig())

	t.Run("하한이 배제 기준 이상인 고온 설비 제외", func(t *testing.T) {
		// "800도 이상은 빼줘": 설비 하한이 800도 이상이면 제외
		intent := &entity.IntentFlags{ExcludeTempMin: f64(800)}
		got, err := f.Fuse(ctx, &entity.StructuredQuery{RawText: "증착 장비"}, intent, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "EQ004", got[0].ID())
		assert.Equal(t, "EQ010", got[1].ID())
	})

	t.Run("상한이 배제 기준 이하인 저온 설비 제외", func(t *testing.T) {
		intent := &entity.IntentFlags{ExcludeTempMax: f64(500)}
		got, err := f.Fuse(ctx, &entity.StructuredQuery{RawText: "증착 장비"}, intent, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "EQ001", got[0].ID())
		assert.Equal(t, "EQ010", got[1].ID())
	})

	t.Run("온도 범위 미상 설비는 영향 없음", func(t *testing.T) {
		intent := &entity.IntentFlags{ExcludeTempMin: f64(800), ExcludeTempMax: f64(500)}
		got, err := f.Fuse(ctx, &entity.StructuredQuery{RawText: "증착 장비"}, intent, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "EQ010", got[0].ID())
	})
}
