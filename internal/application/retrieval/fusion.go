package retrieval

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fab-equip-ai-api/internal/domain/entity"
	"fab-equip-ai-api/internal/domain/repository"
	pkgerrors "fab-equip-ai-api/pkg/errors"
	"fab-equip-ai-api/pkg/logger"
	"fab-equip-ai-api/pkg/metrics"
)

const (
	defaultTopN = 20

	// 复合 OR 查询中命中多个子条件的候选加分
	compoundHitBonus = 0.1
)

var orSplitRe = regexp.MustCompile(`또는|이나|혹은|\bor\b|/`)

// Config 融合权重配置
type Config struct {
	VectorWeight  float64
	BM25Weight    float64
	CategoryBoost float64
	TopN          int
	Timeout       time.Duration
}

// Fusion 并发调用词法与语义检索并按权重融合。
// 单路失败降级为另一路，双路全部失败才返回错误。
type Fusion struct {
	lexical   LexicalSearcher
	semantic  SemanticSearcher
	equipment repository.EquipmentRepository
	cfg       Config
}

func NewFusion(lexical LexicalSearcher, semantic SemanticSearcher, equipment repository.EquipmentRepository, cfg Config) *Fusion {
	if cfg.TopN <= 0 {
		cfg.TopN = defaultTopN
	}
	if cfg.VectorWeight == 0 && cfg.BM25Weight == 0 {
		cfg.VectorWeight, cfg.BM25Weight = 0.5, 0.5
	}
	return &Fusion{
		lexical:   lexical,
		semantic:  semantic,
		equipment: equipment,
		cfg:       cfg,
	}
}

// Fuse 对结构化查询执行混合检索，返回按融合分降序的候选
func (f *Fusion) Fuse(ctx context.Context, q *entity.StructuredQuery, intent *entity.IntentFlags, topN int) ([]*entity.Candidate, error) {
	if topN <= 0 {
		topN = f.cfg.TopN
	}
	if intent == nil {
		intent = &entity.IntentFlags{}
	}

	queryText := strings.TrimSpace(q.RawText)
	if intent.RefinedQuery != "" {
		queryText = intent.RefinedQuery
	}
	if queryText == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidParam, "empty query")
	}

	subQueries := []string{queryText}
	if intent.IsCompoundOR {
		if parts := splitOR(queryText); len(parts) > 1 {
			subQueries = parts
		}
	}

	merged := map[string]*fusedHit{}
	for _, sub := range subQueries {
		lexHits, semHits, err := f.searchBoth(ctx, SearchInput{
			Query:             sub,
			TopN:              topN,
			ExcludeTerms:      intent.NegatedTerms,
			ExcludeCategories: intent.ExcludedCategories,
		})
		if err != nil {
			return nil, err
		}
		mergeHits(merged, lexHits, semHits, f.cfg, len(subQueries) > 1)
	}

	candidates, err := f.attach(ctx, merged, q, intent)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].FusedScore != candidates[j].FusedScore {
			return candidates[i].FusedScore > candidates[j].FusedScore
		}
		return candidates[i].ID() < candidates[j].ID()
	})
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates, nil
}

// searchBoth 并发执行双路检索。单路失败记录降级指标并置空结果。
func (f *Fusion) searchBoth(ctx context.Context, in SearchInput) ([]Hit, []Hit, error) {
	var (
		lexHits, semHits []Hit
		lexErr, semErr   error
	)

	searchCtx := ctx
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(searchCtx)
	g.Go(func() error {
		start := time.Now()
		lexHits, lexErr = f.lexical.Search(gctx, in)
		observeSearch("lexical", start, lexErr)
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		semHits, semErr = f.semantic.Search(gctx, in)
		observeSearch("semantic", start, semErr)
		return nil
	})
	_ = g.Wait()

	if lexErr != nil && semErr != nil {
		return nil, nil, pkgerrors.Wrap(semErr, pkgerrors.CodeFusionFailed,
			"both search modalities failed").WithDetail(lexErr.Error())
	}
	if lexErr != nil {
		metrics.SearchDegraded.WithLabelValues("lexical").Inc()
		logger.Warn(ctx, "lexical search degraded", "error", lexErr.Error())
		lexHits = nil
	}
	if semErr != nil {
		metrics.SearchDegraded.WithLabelValues("semantic").Inc()
		logger.Warn(ctx, "semantic search degraded", "error", semErr.Error())
		semHits = nil
	}
	return lexHits, semHits, nil
}

type fusedHit struct {
	lexical  float64
	semantic float64
	subHits  int
}

// mergeHits 取双路命中的并集。
// 词法分先归一化到本路最大值，缺失的一路按 0 计入。
func mergeHits(merged map[string]*fusedHit, lexHits, semHits []Hit, cfg Config, compound bool) {
	var lexMax float64
	for _, h := range lexHits {
		if h.Score > lexMax {
			lexMax = h.Score
		}
	}

	touched := map[string]bool{}
	get := func(id string) *fusedHit {
		fh, ok := merged[id]
		if !ok {
			fh = &fusedHit{}
			merged[id] = fh
		}
		if compound && !touched[id] {
			touched[id] = true
			fh.subHits++
		}
		return fh
	}

	for _, h := range lexHits {
		score := h.Score
		if lexMax > 0 {
			score = h.Score / lexMax
		}
		fh := get(h.ID)
		if score > fh.lexical {
			fh.lexical = score
		}
	}
	for _, h := range semHits {
		fh := get(h.ID)
		if h.Score > fh.semantic {
			fh.semantic = h.Score
		}
	}
}

// attach 补全设备实体并计算融合分：
// fused = vector_weight*semantic + bm25_weight*lexical，
// 命中映射类别再加平坦 boost，不设上限。
func (f *Fusion) attach(ctx context.Context, merged map[string]*fusedHit, q *entity.StructuredQuery, intent *entity.IntentFlags) ([]*entity.Candidate, error) {
	if len(merged) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	equipments, err := f.equipment.GetByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError, "load candidate equipments failed")
	}

	mappedSet := map[string]bool{}
	for _, cat := range q.MappedCategories {
		mappedSet[strings.ToLower(cat)] = true
	}

	candidates := make([]*entity.Candidate, 0, len(equipments))
	for _, eq := range equipments {
		if eq == nil {
			continue
		}
		if excludedByIntent(eq, intent) {
			continue
		}
		fh := merged[eq.ID]
		if fh == nil {
			continue
		}

		c := &entity.Candidate{
			Equipment:     eq,
			LexicalScore:  fh.lexical,
			SemanticScore: fh.semantic,
			FusedScore:    f.cfg.VectorWeight*fh.semantic + f.cfg.BM25Weight*fh.lexical,
		}
		if mappedSet[strings.ToLower(eq.Category)] {
			c.FusedScore += f.cfg.CategoryBoost
			c.CategoryBoosted = true
		}
		if fh.subHits > 1 {
			c.FusedScore += compoundHitBonus
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// excludedByIntent 意图排除条件的后置过滤
func excludedByIntent(eq *entity.Equipment, intent *entity.IntentFlags) bool {
	for _, cat := range intent.ExcludedCategories {
		if strings.EqualFold(eq.Category, cat) {
			return true
		}
	}
	for _, mat := range intent.ExcludedMaterials {
		if eq.SupportsMaterial(mat) {
			return true
		}
	}
	// "800도 이상 빼고" 类否定：设备下限已达排除下限、
	// 或上限不超过排除上限时剔除
	if intent.ExcludeTempMin != nil && eq.TempMin != nil && *eq.TempMin >= *intent.ExcludeTempMin {
		return true
	}
	if intent.ExcludeTempMax != nil && eq.TempMax != nil && *eq.TempMax <= *intent.ExcludeTempMax {
		return true
	}
	haystack := strings.ToLower(eq.Name + " " + eq.Description)
	for _, term := range intent.NegatedTerms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

func observeSearch(modality string, start time.Time, err error) {
	metrics.SearchDuration.WithLabelValues(modality).Observe(time.Since(start).Seconds())
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SearchTotal.WithLabelValues(modality, status).Inc()
}

func splitOR(text string) []string {
	parts := orSplitRe.Split(text, -1)
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
