// Package policy 提供策略规则快照缓存与策略过滤、排序能力
package policy

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"fab-equip-ai-api/internal/domain/entity"
	"fab-equip-ai-api/internal/domain/repository"
	pkgerrors "fab-equip-ai-api/pkg/errors"
	"fab-equip-ai-api/pkg/logger"
	"fab-equip-ai-api/pkg/metrics"
)

const defaultCacheTTL = 300 * time.Second

// Cache 持有三张规则表的一致性快照。
// 快照整体原子替换，读取方不加锁；并发触发的重载由 singleflight 合并。
type Cache struct {
	rules       repository.RuleRepository
	ttl         time.Duration
	loadTimeout time.Duration

	snapshot atomic.Pointer[entity.RuleSet]
	group    singleflight.Group
}

func NewCache(rules repository.RuleRepository, ttl, loadTimeout time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if loadTimeout <= 0 {
		loadTimeout = 10 * time.Second
	}
	return &Cache{
		rules:       rules,
		ttl:         ttl,
		loadTimeout: loadTimeout,
	}
}

// Snapshot 返回当前规则快照，过期则重载。
// 重载失败时保留上一份快照继续服务；无任何快照可用才返回错误。
func (c *Cache) Snapshot(ctx context.Context) (*entity.RuleSet, error) {
	if cur := c.snapshot.Load(); cur != nil && cur.Age() < c.ttl {
		metrics.PolicySnapshotAge.Set(cur.Age().Seconds())
		return cur, nil
	}

	fresh, err := c.reload(ctx)
	if err != nil {
		if stale := c.snapshot.Load(); stale != nil {
			logger.Warn(ctx, "policy reload failed, serving stale snapshot",
				"age", stale.Age().String(), "error", err.Error())
			return stale, nil
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodePolicyLoadFailed, "policy rules load failed")
	}
	return fresh, nil
}

// ForceReload 绕过 TTL 立即重载
func (c *Cache) ForceReload(ctx context.Context) (*entity.RuleSet, error) {
	fresh, err := c.reload(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodePolicyLoadFailed, "policy rules reload failed")
	}
	return fresh, nil
}

// Current 返回当前快照，不触发重载。未加载时返回 nil。
func (c *Cache) Current() *entity.RuleSet {
	return c.snapshot.Load()
}

func (c *Cache) reload(ctx context.Context) (*entity.RuleSet, error) {
	v, err, _ := c.group.Do("reload", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		rs, err := c.load(loadCtx)
		if err != nil {
			metrics.PolicyReloadTotal.WithLabelValues("error").Inc()
			return nil, err
		}

		c.snapshot.Store(rs)
		metrics.PolicyReloadTotal.WithLabelValues("success").Inc()
		metrics.PolicySnapshotAge.Set(0)
		logger.Info(ctx, "policy snapshot reloaded",
			"institutions", len(rs.Priorities),
			"mappings", len(rs.Mappings))
		return rs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entity.RuleSet), nil
}

func (c *Cache) load(ctx context.Context) (*entity.RuleSet, error) {
	priorities, err := c.rules.ListInstitutionPriorities(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := c.rules.ListPolicySettings(ctx)
	if err != nil {
		return nil, err
	}
	mappings, err := c.rules.ListProcessMappings(ctx)
	if err != nil {
		return nil, err
	}

	rs := &entity.RuleSet{
		Priorities: make(map[string]int, len(priorities)),
		Settings:   entity.ParsePolicySettings(settings),
		Mappings:   mappings,
		LoadedAt:   time.Now(),
	}
	for _, p := range priorities {
		rs.Priorities[normalizeInstitution(p.Institution)] = p.Priority
	}
	return rs, nil
}
