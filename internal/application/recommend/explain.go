package recommend

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"fab-equip-ai-api/internal/domain/entity"
	"fab-equip-ai-api/pkg/logger"
)

// ExplanationGenerator 推荐解释生成 port，由 LLM 基础设施实现
type ExplanationGenerator interface {
	Generate(ctx context.Context, query string, recs []entity.Recommendation) (string, error)
	GenerateStream(ctx context.Context, query string, recs []entity.Recommendation) (*schema.StreamReader[*schema.Message], error)
}

// ResultCache 解释结果缓存 port，Redis 缓存实现满足此接口
type ResultCache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
}

// Explainer 带结果缓存的解释生成。
// 超时仅重试一次；彻底失败时返回空解释并标记可重试，不阻塞推荐结果。
type Explainer struct {
	generator ExplanationGenerator
	cache     ResultCache
	timeout   time.Duration
	cacheTTL  time.Duration
}

func NewExplainer(generator ExplanationGenerator, cache ResultCache, timeout, cacheTTL time.Duration) *Explainer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if cacheTTL <= 0 {
		cacheTTL = 300 * time.Second
	}
	return &Explainer{
		generator: generator,
		cache:     cache,
		timeout:   timeout,
		cacheTTL:  cacheTTL,
	}
}

// Explain 生成推荐解释。返回 (解释, 是否可重试)。
func (e *Explainer) Explain(ctx context.Context, query string, recs []entity.Recommendation) (string, bool) {
	if e == nil || e.generator == nil || len(recs) == 0 {
		return "", false
	}

	key := explanationKey(query, recs)
	if e.cache != nil {
		raw, err := e.cache.GetOrLoadSafe(ctx, key, e.cacheTTL, func() (interface{}, error) {
			return e.generate(ctx, query, recs)
		})
		if err == nil {
			var text string
			if jsonErr := json.Unmarshal(raw, &text); jsonErr == nil {
				return text, false
			}
			return string(raw), false
		}
		logger.Warn(ctx, "explanation generation failed", "error", err.Error())
		return "", true
	}

	text, err := e.generate(ctx, query, recs)
	if err != nil {
		logger.Warn(ctx, "explanation generation failed", "error", err.Error())
		return "", true
	}
	return text, false
}

// generate 带超时调用生成器，超时重试一次
func (e *Explainer) generate(ctx context.Context, query string, recs []entity.Recommendation) (string, error) {
	text, err := e.generateOnce(ctx, query, recs)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		logger.Warn(ctx, "explanation timed out, retrying once")
		text, err = e.generateOnce(ctx, query, recs)
	}
	return text, err
}

func (e *Explainer) generateOnce(ctx context.Context, query string, recs []entity.Recommendation) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.generator.Generate(callCtx, query, recs)
}

// explanationKey 以查询和推荐 ID 集合（有序）为键
func explanationKey(query string, recs []entity.Recommendation) string {
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.EquipmentID)
	}
	sort.Strings(ids)
	sum := md5.Sum([]byte(query + "|" + strings.Join(ids, ",")))
	return "explain:" + hex.EncodeToString(sum[:])
}
