package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fab-equip-ai-api/internal/domain/entity"
	pkgerrors "fab-equip-ai-api/pkg/errors"
)

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*entity.Session
	saves    int
	deletes  int
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[string]*entity.Session{}}
}

func (s *memSessionStore) Get(ctx context.Context, id string) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id], nil
}

func (s *memSessionStore) Save(ctx context.Context, sess *entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.sessions[sess.ID] = sess
	return nil
}

func (s *memSessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	delete(s.sessions, id)
	return nil
}

func TestReconcileFresh(t *testing.T) {
	ctx := context.Background()
	r := NewReconciler(newMemSessionStore(), time.Hour)

	turn, err := r.Begin(ctx, "s1", "한국나노기술원")
	require.NoError(t, err)
	defer r.End(turn)

	assert.Equal(t, entity.SessionStateNew, turn.State)

	parsed := &entity.StructuredQuery{
		RawText:          "GaN 에피 성장 장비 추천해줘",
		Materials:        []string{"GaN"},
		MappedCategories: []string{"MOCVD", "MBE"},
	}
	eff := r.Reconcile(turn, parsed.RawText, parsed)

	assert.Equal(t, entity.TurnFresh, turn.Kind)
	assert.Equal(t, parsed.Materials, eff.Materials)
	require.NoError(t, r.Commit(ctx, turn, parsed.RawText, []string{"EQ002", "EQ009"}))
}

func TestReconcileCarryOver(t *testing.T) {
	ctx := context.Background()
	store := newMemSessionStore()
	r := NewReconciler(store, time.Hour)

	// 1轮: 누적 컨텍스트 구성
	turn, err := r.Begin(ctx, "s1", "")
	require.NoError(t, err)
	first := &entity.StructuredQuery{
		RawText:          "GaN 에피 성장 장비",
		Materials:        []string{"GaN"},
		MappedCategories: []string{"MOCVD", "MBE"},
	}
	r.Reconcile(turn, first.RawText, first)
	require.NoError(t, r.Commit(ctx, turn, first.RawText, []string{"EQ002", "EQ009"}))
	r.End(turn)

	t.Run("지시어 추가 조건은 누적에 병합", func(t *testing.T) {
		turn, err := r.Begin(ctx, "s1", "")
		require.NoError(t, err)
		defer r.End(turn)

		parsed := &entity.StructuredQuery{RawText: "그 중에 6인치만", WaferSizes: []int{6}}
		eff := r.Reconcile(turn, parsed.RawText, parsed)

		assert.Equal(t, entity.TurnCarryOver, turn.Kind)
		assert.Equal(t, []string{"GaN"}, eff.Materials)
		assert.Equal(t, []string{"MOCVD", "MBE"}, eff.MappedCategories)
		assert.Equal(t, []int{6}, eff.WaferSizes)
		require.NoError(t, r.Commit(ctx, turn, parsed.RawText, []string{"EQ002"}))
	})

	t.Run("비교 후속 질문은 저가 선호 설정", func(t *testing.T) {
		turn, err := r.Begin(ctx, "s1", "")
		require.NoError(t, err)
		defer r.End(turn)

		parsed := &entity.StructuredQuery{RawText: "더 싼 걸로 비교해줘"}
		eff := r.Reconcile(turn, parsed.RawText, parsed)

		assert.Equal(t, entity.TurnCarryOver, turn.Kind)
		assert.True(t, eff.PreferLowCost)
		assert.Equal(t, []string{"GaN"}, eff.Materials)
	})
}

func TestReconcileReplace(t *testing.T) {
	ctx := context.Background()
	r := NewReconciler(newMemSessionStore(), time.Hour)

	turn, err := r.Begin(ctx, "s1", "")
	require.NoError(t, err)
	first := &entity.StructuredQuery{
		RawText:          "6인치 GaN 에피 성장 장비",
		WaferSizes:       []int{6},
		Materials:        []string{"GaN"},
		MappedCategories: []string{"MOCVD", "MBE"},
	}
	r.Reconcile(turn, first.RawText, first)
	require.NoError(t, r.Commit(ctx, turn, first.RawText, nil))
	r.End(turn)

	t.Run("명시적 교체 표현", func(t *testing.T) {
		turn, err := r.Begin(ctx, "s1", "")
		require.NoError(t, err)
		defer r.End(turn)

		parsed := &entity.StructuredQuery{RawText: "GaN 말고 SiC으로 해줘", Materials: []string{"SiC"}}
		eff := r.Reconcile(turn, parsed.RawText, parsed)

		assert.Equal(t, entity.TurnReplace, turn.Kind)
		assert.Equal(t, []string{"SiC"}, eff.Materials)
		// 재지정하지 않은 속성은 누적값 유지
		assert.Equal(t, []int{6}, eff.WaferSizes)
		assert.Equal(t, []string{"MOCVD", "MBE"}, eff.MappedCategories)
	})

	t.Run("하드 속성만 있는 짧은 질의", func(t *testing.T) {
		turn, err := r.Begin(ctx, "s1", "")
		require.NoError(t, err)
		defer r.End(turn)

		parsed := &entity.StructuredQuery{RawText: "8인치", WaferSizes: []int{8}}
		eff := r.Reconcile(turn, parsed.RawText, parsed)

		assert.Equal(t, entity.TurnReplace, turn.Kind)
		assert.Equal(t, []int{8}, eff.WaferSizes)
		assert.Equal(t, []string{"GaN"}, eff.Materials)
	})
}

func TestCommitSkippedOnCancel(t *testing.T) {
	store := newMemSessionStore()
	r := NewReconciler(store, time.Hour)

	turn, err := r.Begin(context.Background(), "s1", "")
	require.NoError(t, err)
	defer r.End(turn)

	parsed := &entity.StructuredQuery{RawText: "6인치 장비"}
	r.Reconcile(turn, parsed.RawText, parsed)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.Commit(cancelled, turn, parsed.RawText, nil))
	assert.Zero(t, store.saves)
}

func TestBeginSerializesSameSession(t *testing.T) {
	ctx := context.Background()
	r := NewReconciler(newMemSessionStore(), time.Hour)

	turn, err := r.Begin(ctx, "s1", "")
	require.NoError(t, err)

	// 같은 세션의 두 번째 요청은 거절되지 않고 앞 요청이 끝날 때까지 대기
	done := make(chan error, 1)
	go func() {
		second, err := r.Begin(ctx, "s1", "")
		if err == nil {
			r.End(second)
		}
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("두 번째 요청이 앞 요청 종료 전에 진행됨")
	case <-time.After(50 * time.Millisecond):
	}

	// 다른 세션은 영향 없음
	other, err := r.Begin(ctx, "s2", "")
	require.NoError(t, err)
	r.End(other)

	r.End(turn)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("대기 중인 요청이 잠금 해제 후에도 진행되지 않음")
	}
}

func TestBeginCancelledWhileWaiting(t *testing.T) {
	r := NewReconciler(newMemSessionStore(), time.Hour)

	turn, err := r.Begin(context.Background(), "s1", "")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = r.Begin(waitCtx, "s1", "")
	require.Error(t, err)
	var appErr *pkgerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeSessionBusy, appErr.Code)

	r.End(turn)

	// 취소된 대기자까지 빠지면 잠금 테이블은 비워진다
	r.mu.Lock()
	remaining := len(r.locks)
	r.mu.Unlock()
	assert.Zero(t, remaining)
}

func TestBeginExpiredSession(t *testing.T) {
	ctx := context.Background()
	store := newMemSessionStore()
	r := NewReconciler(store, 10*time.Millisecond)

	turn, err := r.Begin(ctx, "s1", "")
	require.NoError(t, err)
	parsed := &entity.StructuredQuery{RawText: "GaN 장비", Materials: []string{"GaN"}}
	r.Reconcile(turn, parsed.RawText, parsed)
	require.NoError(t, r.Commit(ctx, turn, parsed.RawText, nil))
	r.End(turn)

	time.Sleep(30 * time.Millisecond)

	turn, err = r.Begin(ctx, "s1", "")
	require.NoError(t, err)
	defer r.End(turn)

	assert.Equal(t, entity.SessionStateNew, turn.State)
	assert.Nil(t, turn.Session.Accumulated)
	assert.Equal(t, 1, store.deletes)
}

func TestEndIdempotent(t *testing.T) {
	r := NewReconciler(newMemSessionStore(), time.Hour)

	turn, err := r.Begin(context.Background(), "s1", "")
	require.NoError(t, err)

	r.End(turn)
	r.End(turn)
	r.End(nil)
}
