package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fab-equip-ai-api/internal/application/policy"
	"fab-equip-ai-api/internal/application/query"
	"fab-equip-ai-api/internal/application/retrieval"
	"fab-equip-ai-api/internal/application/session"
	"fab-equip-ai-api/internal/domain/entity"
	"fab-equip-ai-api/internal/domain/repository"
)

type svcRuleRepo struct{}

func (svcRuleRepo) ListInstitutionPriorities(ctx context.Context) ([]entity.InstitutionPriorityRule, error) {
	return []entity.InstitutionPriorityRule{
		{Institution: "나노종합기술원", Priority: 1},
		{Institution: "한국나노기술원", Priority: 2},
	}, nil
}

func (svcRuleRepo) ListPolicySettings(ctx context.Context) ([]entity.PolicySettingRule, error) {
	return []entity.PolicySettingRule{
		{Key: "max_recommendations", Value: "2", Type: "integer"},
	}, nil
}

func (svcRuleRepo) ListProcessMappings(ctx context.Context) ([]entity.ProcessMappingRule, error) {
	return []entity.ProcessMappingRule{
		{Keyword: "에피 성장", Categories: []string{"MOCVD", "MBE"}, Priority: 10},
	}, nil
}

type svcSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*entity.Session
}

func (s *svcSessionStore) Get(ctx context.Context, id string) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id], nil
}

func (s *svcSessionStore) Save(ctx context.Context, sess *entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		s.sessions = map[string]*entity.Session{}
	}
	s.sessions[sess.ID] = sess
	return nil
}

func (s *svcSessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

type svcLexical struct{ hits []retrieval.Hit }

func (s svcLexical) Search(ctx context.Context, in retrieval.SearchInput) ([]retrieval.Hit, error) {
	return s.hits, nil
}

type svcSemanticDown struct{}

func (svcSemanticDown) Search(ctx context.Context, in retrieval.SearchInput) ([]retrieval.Hit, error) {
	return nil, errors.New("semantic search not configured")
}

type svcEquipRepo struct{ byID map[string]*entity.Equipment }

func (s svcEquipRepo) Create(ctx context.Context, eq *entity.Equipment) error          { return nil }
func (s svcEquipRepo) BatchUpsert(ctx context.Context, eqs []*entity.Equipment) error  { return nil }
func (s svcEquipRepo) ListAll(ctx context.Context) ([]*entity.Equipment, error)        { return nil, nil }
func (s svcEquipRepo) Count(ctx context.Context) (int64, error)                        { return 0, nil }
func (s svcEquipRepo) GetByID(ctx context.Context, id string) (*entity.Equipment, error) {
	return s.byID[id], nil
}
func (s svcEquipRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Equipment, error) {
	out := make([]*entity.Equipment, 0, len(ids))
	for _, id := range ids {
		if eq, ok := s.byID[id]; ok {
			out = append(out, eq)
		}
	}
	return out, nil
}
func (s svcEquipRepo) List(ctx context.Context, p repository.Pagination) (*repository.PagedResult[*entity.Equipment], error) {
	return nil, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	equipments := map[string]*entity.Equipment{
		"EQ002": {ID: "EQ002", Name: "MOCVD System", Category: "MOCVD",
			Institution: "나노종합기술원", HourlyRate: 120000, ExternalUsable: true},
		"EQ003": {ID: "EQ003", Name: "ICP-RIE", Category: "ICP-RIE",
			Institution: "미등록기관", HourlyRate: 60000, ExternalUsable: true},
		"EQ009": {ID: "EQ009", Name: "MBE System", Category: "MBE",
			Institution: "한국나노기술원", HourlyRate: 90000, ExternalUsable: true},
		"EQ011": {ID: "EQ011", Name: "Furnace", Category: "Furnace",
			Institution: "나노종합기술원", ExternalUsable: true, UnderMaintenance: true},
	}

	lexical := svcLexical{hits: []retrieval.Hit{
		{ID: "EQ002", Score: 5.0},
		{ID: "EQ009", Score: 4.0},
		{ID: "EQ003", Score: 3.0},
		{ID: "EQ011", Score: 2.0},
	}}

	fusion := retrieval.NewFusion(lexical, svcSemanticDown{}, svcEquipRepo{byID: equipments},
		retrieval.Config{VectorWeight: 0.5, BM25Weight: 0.5, CategoryBoost: 0.2, TopN: 20})

	return NewService(
		policy.NewCache(svcRuleRepo{}, time.Minute, time.Second),
		query.NewInterpreter(),
		query.NewClassifier(nil),
		fusion,
		policy.NewFilter(),
		policy.NewRanker(),
		session.NewReconciler(&svcSessionStore{}, time.Hour),
		nil,
		20,
	)
}

func TestChat(t *testing.T) {
	ctx := context.Background()

	t.Run("추천 상한은 정렬 이후 적용", func(t *testing.T) {
		s := newTestService(t)

		out, err := s.Chat(ctx, ChatInput{
			Query:           "에피 성장 장비 추천해줘",
			UserInstitution: "한국나노기술원",
			SkipExplanation: true,
		})
		require.NoError(t, err)

		// 유지보수 중 설비 제외 후 기관 우선순위 순, 상한 2건
		require.Len(t, out.Recommendations, 2)
		assert.Equal(t, "EQ009", out.Recommendations[0].EquipmentID)
		assert.Equal(t, "EQ002", out.Recommendations[1].EquipmentID)
		assert.Equal(t, entity.TurnFresh, out.TurnKind)
		assert.Equal(t, 1, out.FilterDropped["maintenance_exclude"])
		assert.NotEmpty(t, out.SessionID)
	})

	t.Run("top_k는 정책 상한보다 작을 때만 유효", func(t *testing.T) {
		s := newTestService(t)

		out, err := s.Chat(ctx, ChatInput{
			Query:           "에피 성장 장비 추천해줘",
			TopK:            1,
			SkipExplanation: true,
		})
		require.NoError(t, err)
		assert.Len(t, out.Recommendations, 1)

		out, err = s.Chat(ctx, ChatInput{
			Query:           "에피 성장 장비 추천해줘",
			TopK:            10,
			SkipExplanation: true,
		})
		require.NoError(t, err)
		assert.Len(t, out.Recommendations, 2)
	})

	t.Run("빈 질의는 거부", func(t *testing.T) {
		s := newTestService(t)
		_, err := s.Chat(ctx, ChatInput{Query: "   ", SkipExplanation: true})
		require.Error(t, err)
	})

	t.Run("후속 질문은 직전 추천으로 수렴", func(t *testing.T) {
		s := newTestService(t)

		first, err := s.Chat(ctx, ChatInput{
			Query:           "에피 성장 장비 추천해줘",
			SessionID:       "sess-1",
			SkipExplanation: true,
		})
		require.NoError(t, err)
		require.Len(t, first.Recommendations, 2)

		second, err := s.Chat(ctx, ChatInput{
			Query:           "그 중에 더 싼 걸로",
			SessionID:       "sess-1",
			SkipExplanation: true,
		})
		require.NoError(t, err)

		assert.Equal(t, entity.TurnCarryOver, second.TurnKind)
		require.Len(t, second.Recommendations, 2)
		// 시간당 요금 오름차순: MBE(9만) -> MOCVD(12만)
		assert.Equal(t, "EQ009", second.Recommendations[0].EquipmentID)
		assert.Equal(t, "EQ002", second.Recommendations[1].EquipmentID)
		assert.Equal(t, 2, second.TurnCount)
	})
}
