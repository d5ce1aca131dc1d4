package policy

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fab-equip-ai-api/internal/domain/entity"
	pkgerrors "fab-equip-ai-api/pkg/errors"
)

type fakeRuleRepo struct {
	loads atomic.Int64
	fail  atomic.Bool
}

func (f *fakeRuleRepo) ListInstitutionPriorities(ctx context.Context) ([]entity.InstitutionPriorityRule, error) {
	f.loads.Add(1)
	if f.fail.Load() {
		return nil, errors.New("db unavailable")
	}
	return []entity.InstitutionPriorityRule{
		{Institution: "나노종합기술원", Priority: 1},
		{Institution: "KANC", Priority: 2},
	}, nil
}

func (f *fakeRuleRepo) ListPolicySettings(ctx context.Context) ([]entity.PolicySettingRule, error) {
	if f.fail.Load() {
		return nil, errors.New("db unavailable")
	}
	return []entity.PolicySettingRule{
		{Key: "min_rag_score", Value: "0.25", Type: "float"},
	}, nil
}

func (f *fakeRuleRepo) ListProcessMappings(ctx context.Context) ([]entity.ProcessMappingRule, error) {
	if f.fail.Load() {
		return nil, errors.New("db unavailable")
	}
	return []entity.ProcessMappingRule{
		{Keyword: "에피 성장", Categories: []string{"MOCVD", "MBE"}, Priority: 10},
	}, nil
}

func TestCacheSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("최초 호출에서 적재 후 TTL 내 재사용", func(t *testing.T) {
		repo := &fakeRuleRepo{}
		c := NewCache(repo, time.Minute, time.Second)

		first, err := c.Snapshot(ctx)
		require.NoError(t, err)
		assert.InDelta(t, 0.25, first.Settings.MinRagScore, 1e-9)
		assert.Len(t, first.Mappings, 1)

		second, err := c.Snapshot(ctx)
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, int64(1), repo.loads.Load())
	})

	t.Run("기관 키는 소문자 정규화", func(t *testing.T) {
		repo := &fakeRuleRepo{}
		c := NewCache(repo, time.Minute, time.Second)

		rs, err := c.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, rs.Priorities["kanc"])
		assert.Equal(t, 2, rs.PriorityFor("kanc", ""))
		assert.Equal(t, 2, rs.PriorityFor("KANC", ""))
	})

	t.Run("재적재 실패 시 이전 스냅샷 유지", func(t *testing.T) {
		repo := &fakeRuleRepo{}
		c := NewCache(repo, time.Nanosecond, time.Second)

		first, err := c.Snapshot(ctx)
		require.NoError(t, err)

		repo.fail.Store(true)
		time.Sleep(time.Millisecond)

		stale, err := c.Snapshot(ctx)
		require.NoError(t, err)
		assert.Same(t, first, stale)
	})

	t.Run("스냅샷 없이 적재 실패하면 오류", func(t *testing.T) {
		repo := &fakeRuleRepo{}
		repo.fail.Store(true)
		c := NewCache(repo, time.Minute, time.Second)

		_, err := c.Snapshot(ctx)
		require.Error(t, err)

		var appErr *pkgerrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, pkgerrors.CodePolicyLoadFailed, appErr.Code)
	})
}

func TestCacheForceReload(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRuleRepo{}
	c := NewCache(repo, time.Hour, time.Second)

	first, err := c.Snapshot(ctx)
	require.NoError(t, err)

	fresh, err := c.ForceReload(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
	assert.Equal(t, int64(2), repo.loads.Load())
	assert.Same(t, fresh, c.Current())
}

func TestCacheCurrent(t *testing.T) {
	c := NewCache(&fakeRuleRepo{}, time.Minute, time.Second)
	assert.Nil(t, c.Current())
}
