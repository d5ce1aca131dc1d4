// Package session 提供多轮会话的状态管理与条件合并
package session

import (
	"context"
	"regexp"
	"sync"
	"time"

	"fab-equip-ai-api/internal/domain/entity"
	"fab-equip-ai-api/internal/domain/repository"
	pkgerrors "fab-equip-ai-api/pkg/errors"
	"fab-equip-ai-api/pkg/logger"
	"fab-equip-ai-api/pkg/metrics"
)

const defaultTTL = time.Hour

// 追问轮次的指代模式：指向上一轮结果的查询按 carry-over 处理
var carryOverRe = regexp.MustCompile(`그\s*중|이\s*중|그것|위\s*(결과|목록)|비교|더\s*(싼|저렴|작은|낮은)|저렴한\s*(걸|것|쪽)|among|cheaper|compare`)

// 条件替换模式：明确要求换掉此前条件的查询按 replace 处理
var replaceRe = regexp.MustCompile(`대신|말고|바꿔|변경|으로\s*해|로\s*해\s*줘|instead|change\s+to`)

// Reconciler 会话协调器。
// 同一会话的请求串行执行；上下文取消时不提交会话状态。
type Reconciler struct {
	store repository.SessionStore
	ttl   time.Duration

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock 按会话引用计数的信号量，最后一个持有者释放时从表中移除
type sessionLock struct {
	ch   chan struct{}
	refs int
}

func NewReconciler(store repository.SessionStore, ttl time.Duration) *Reconciler {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Reconciler{
		store: store,
		ttl:   ttl,
		locks: map[string]*sessionLock{},
	}
}

// Turn 一轮请求的会话上下文
type Turn struct {
	Session   *entity.Session
	State     entity.SessionState
	Kind      entity.TurnKind
	Effective *entity.StructuredQuery

	unlock func()
}

// Begin 获取会话锁并装载会话。
// 同会话并发请求排队等待前一轮结束；等待期间上下文取消返回 busy 错误。
// 过期会话视作不存在。
func (r *Reconciler) Begin(ctx context.Context, sessionID, userInstitution string) (*Turn, error) {
	unlock, err := r.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess, err := r.store.Get(ctx, sessionID)
	if err != nil {
		unlock()
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeCacheError, "session load failed")
	}

	now := time.Now()
	state := entity.SessionStateNew
	if sess != nil {
		state = sess.StateAt(now, r.ttl)
	}
	if state == entity.SessionStateExpired {
		logger.Debug(ctx, "session expired, starting over", "session_id", sessionID)
		if err := r.store.Delete(ctx, sessionID); err != nil {
			logger.Warn(ctx, "expired session cleanup failed", "error", err.Error())
		}
		sess = nil
		state = entity.SessionStateNew
	}
	if sess == nil {
		sess = entity.NewSession(sessionID, userInstitution)
	}

	return &Turn{
		Session: sess,
		State:   state,
		unlock:  unlock,
	}, nil
}

// Reconcile 判定轮次类型并合并出本轮生效的结构化查询：
//   - fresh: 丢弃累积上下文，使用本轮解析结果
//   - replace: 以累积查询为基，仅覆盖本轮重新指定的硬性属性
//   - carry-over: 沿用累积查询，比较类追问追加低成本偏好
func (r *Reconciler) Reconcile(t *Turn, rawQuery string, parsed *entity.StructuredQuery) *entity.StructuredQuery {
	t.Kind = classify(t, rawQuery, parsed)
	metrics.SessionTurnsTotal.WithLabelValues(string(t.Kind)).Inc()

	switch t.Kind {
	case entity.TurnCarryOver:
		t.Effective = t.Session.Accumulated.Clone()
		if t.Effective == nil {
			t.Effective = parsed.Clone()
		}
		t.Effective.RawText = rawQuery
		if carryOverRe.MatchString(rawQuery) {
			t.Effective.PreferLowCost = t.Effective.PreferLowCost || preferLowCost(rawQuery)
		}
		mergeMissing(t.Effective, parsed)

	case entity.TurnReplace:
		t.Effective = t.Session.Accumulated.Clone()
		if t.Effective == nil {
			t.Effective = &entity.StructuredQuery{}
		}
		t.Effective.RawText = rawQuery
		overwriteSpecified(t.Effective, parsed)

	default:
		t.Effective = parsed.Clone()
	}

	return t.Effective
}

// Commit 记录本轮并持久化会话。
// 请求已取消时放弃提交，避免半成品状态落库。
func (r *Reconciler) Commit(ctx context.Context, t *Turn, rawQuery string, recommendedIDs []string) error {
	if ctx.Err() != nil {
		logger.Debug(ctx, "request cancelled, session commit skipped", "session_id", t.Session.ID)
		return nil
	}

	t.Session.Accumulated = t.Effective
	t.Session.AppendTurn(entity.SessionTurn{
		Query:          rawQuery,
		Kind:           t.Kind,
		RecommendedIDs: recommendedIDs,
		At:             time.Now(),
	})
	if err := r.store.Save(ctx, t.Session); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeCacheError, "session save failed")
	}
	return nil
}

// End 释放会话锁，必须在 Begin 成功后调用
func (r *Reconciler) End(t *Turn) {
	if t != nil && t.unlock != nil {
		t.unlock()
		t.unlock = nil
	}
}

// acquire 等待会话锁可用，返回幂等的释放函数。
// 等待期间上下文取消时撤销排队并返回 CodeSessionBusy 错误。
func (r *Reconciler) acquire(ctx context.Context, sessionID string) (func(), error) {
	r.mu.Lock()
	lock, ok := r.locks[sessionID]
	if !ok {
		lock = &sessionLock{ch: make(chan struct{}, 1)}
		r.locks[sessionID] = lock
	}
	lock.refs++
	r.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		r.release(sessionID, lock, false)
		return nil, pkgerrors.Wrap(ctx.Err(), pkgerrors.CodeSessionBusy,
			"session is processing another request")
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.release(sessionID, lock, true)
		})
	}, nil
}

func (r *Reconciler) release(sessionID string, lock *sessionLock, held bool) {
	if held {
		<-lock.ch
	}
	r.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(r.locks, sessionID)
	}
	r.mu.Unlock()
}

// classify 轮次判定：
// 无累积上下文一律 fresh；指代/比较表述为 carry-over；
// 明确替换表述或仅重新给出硬性属性的短查询为 replace；其余 fresh。
func classify(t *Turn, rawQuery string, parsed *entity.StructuredQuery) entity.TurnKind {
	if t.State == entity.SessionStateNew || t.Session.Accumulated == nil {
		return entity.TurnFresh
	}
	if carryOverRe.MatchString(rawQuery) {
		return entity.TurnCarryOver
	}
	if replaceRe.MatchString(rawQuery) {
		return entity.TurnReplace
	}
	// 短查询只带硬性属性（如 "8인치로"）视作条件替换
	if parsed.HasHardAttributes() && len([]rune(rawQuery)) <= 20 && len(parsed.MappedCategories) == 0 {
		return entity.TurnReplace
	}
	return entity.TurnFresh
}

// overwriteSpecified 仅覆盖本轮重新指定的硬性属性，未提及的保持累积值
func overwriteSpecified(base, parsed *entity.StructuredQuery) {
	if len(parsed.WaferSizes) > 0 {
		base.WaferSizes = append([]int(nil), parsed.WaferSizes...)
	}
	if parsed.TempMin != nil {
		v := *parsed.TempMin
		base.TempMin = &v
	}
	if parsed.TempMax != nil {
		v := *parsed.TempMax
		base.TempMax = &v
	}
	if len(parsed.Materials) > 0 {
		base.Materials = append([]string(nil), parsed.Materials...)
	}
	if len(parsed.Institutions) > 0 {
		base.Institutions = append([]string(nil), parsed.Institutions...)
	}
	if len(parsed.MappedCategories) > 0 {
		base.MappedCategories = append([]string(nil), parsed.MappedCategories...)
	}
}

// mergeMissing 追问轮次补充累积查询缺失的属性，已有属性不动
func mergeMissing(base, parsed *entity.StructuredQuery) {
	if len(base.WaferSizes) == 0 {
		base.WaferSizes = append([]int(nil), parsed.WaferSizes...)
	}
	if base.TempMin == nil && parsed.TempMin != nil {
		v := *parsed.TempMin
		base.TempMin = &v
	}
	if base.TempMax == nil && parsed.TempMax != nil {
		v := *parsed.TempMax
		base.TempMax = &v
	}
	if len(base.Materials) == 0 {
		base.Materials = append([]string(nil), parsed.Materials...)
	}
	if len(base.MappedCategories) == 0 {
		base.MappedCategories = append([]string(nil), parsed.MappedCategories...)
	}
}

var lowCostRe = regexp.MustCompile(`싼|저렴|cheap`)

func preferLowCost(rawQuery string) bool {
	return lowCostRe.MatchString(rawQuery)
}
