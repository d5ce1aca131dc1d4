package recommend

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"fab-equip-ai-api/internal/application/policy"
	"fab-equip-ai-api/internal/application/query"
	"fab-equip-ai-api/internal/application/retrieval"
	"fab-equip-ai-api/internal/application/session"
	"fab-equip-ai-api/internal/domain/entity"
	pkgerrors "fab-equip-ai-api/pkg/errors"
	"fab-equip-ai-api/pkg/logger"
	"fab-equip-ai-api/pkg/metrics"
)

// Service 推荐管线编排：
// 会话协调 -> 查询解析 -> 意图分类 -> 混合检索 -> 属性匹配 ->
// 策略过滤 -> 优先级排序 -> 截断 -> 解释生成
type Service struct {
	policyCache *policy.Cache
	interpreter *query.Interpreter
	classifier  *query.Classifier
	fusion      *retrieval.Fusion
	filter      *policy.Filter
	ranker      *policy.Ranker
	reconciler  *session.Reconciler
	explainer   *Explainer

	searchTopN int
}

func NewService(
	policyCache *policy.Cache,
	interpreter *query.Interpreter,
	classifier *query.Classifier,
	fusion *retrieval.Fusion,
	filter *policy.Filter,
	ranker *policy.Ranker,
	reconciler *session.Reconciler,
	explainer *Explainer,
	searchTopN int,
) *Service {
	if searchTopN <= 0 {
		searchTopN = 20
	}
	return &Service{
		policyCache: policyCache,
		interpreter: interpreter,
		classifier:  classifier,
		fusion:      fusion,
		filter:      filter,
		ranker:      ranker,
		reconciler:  reconciler,
		explainer:   explainer,
		searchTopN:  searchTopN,
	}
}

// Chat 处理一轮推荐请求
func (s *Service) Chat(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	start := time.Now()

	in.Query = strings.TrimSpace(in.Query)
	if in.Query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidParam, "query is required")
	}
	if in.SessionID == "" {
		in.SessionID = uuid.NewString()
	}
	ctx = logger.WithContext(ctx, logger.SessionIDKey, in.SessionID)

	turn, err := s.reconciler.Begin(ctx, in.SessionID, in.UserInstitution)
	if err != nil {
		return nil, err
	}
	defer s.reconciler.End(turn)

	rules, err := s.policyCache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	parsed := s.interpreter.Interpret(in.Query, rules)
	effective := s.reconciler.Reconcile(turn, in.Query, parsed)
	intent := s.classifier.Classify(ctx, in.Query)

	candidates, err := s.fusion.Fuse(ctx, effective, intent, s.searchTopN)
	if err != nil {
		metrics.RecommendTotal.WithLabelValues(string(turn.Kind), "error").Inc()
		return nil, err
	}

	candidates = matchAttributes(candidates, effective)
	filtered := s.filter.Apply(candidates, rules.Settings, in.UserInstitution)
	ranked := s.ranker.Rank(filtered.Kept, rules, in.UserInstitution)

	if turn.Kind == entity.TurnCarryOver {
		ranked = s.narrowToPrevious(turn, ranked, effective.PreferLowCost)
	}

	// 条数上限只在排序之后生效
	limit := rules.Settings.MaxRecommendations
	if in.TopK > 0 && in.TopK < limit {
		limit = in.TopK
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	recs := buildRecommendations(ranked)
	var explanation string
	var retryable bool
	if !in.SkipExplanation {
		explanation, retryable = s.explainer.Explain(ctx, in.Query, recs)
		if explanation == "" && !retryable {
			fillReasonFallback(recs)
		}
	}

	if err := s.reconciler.Commit(ctx, turn, in.Query, recommendationIDs(recs)); err != nil {
		logger.Warn(ctx, "session commit failed", "error", err.Error())
	}

	elapsed := time.Since(start)
	metrics.RecommendTotal.WithLabelValues(string(turn.Kind), "success").Inc()
	metrics.RecommendDuration.WithLabelValues(string(turn.Kind)).Observe(elapsed.Seconds())
	metrics.RecommendResultCount.WithLabelValues(string(turn.Kind)).Observe(float64(len(recs)))
	logger.Info(ctx, "recommendation completed",
		"turn_kind", turn.Kind,
		"results", len(recs),
		"elapsed_ms", elapsed.Milliseconds())

	return &ChatOutput{
		Query:           in.Query,
		Recommendations: recs,
		Explanation:     explanation,
		Retryable:       retryable,
		SessionID:       in.SessionID,
		TurnCount:       turn.Session.TurnCount(),
		TurnKind:        turn.Kind,
		ProcessingTime:  elapsed,
		FilterDropped:   filtered.Dropped,
	}, nil
}

// StreamExplanation 为 SSE 端点透出解释生成的 token 流
func (s *Service) StreamExplanation(ctx context.Context, q string, recs []entity.Recommendation) (*schema.StreamReader[*schema.Message], error) {
	if s.explainer == nil || s.explainer.generator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeServiceUnavailable, "explanation generator not configured")
	}
	return s.explainer.generator.GenerateStream(ctx, q, recs)
}

// narrowToPrevious 追问轮次收敛到上一轮推荐集合。
// 低成本偏好时按时薪升序展示，未定价的排在最后。
func (s *Service) narrowToPrevious(turn *session.Turn, ranked []*entity.Candidate, preferLowCost bool) []*entity.Candidate {
	prev := turn.Session.LastRecommendedIDs()
	if len(prev) == 0 {
		return ranked
	}
	prevSet := map[string]bool{}
	for _, id := range prev {
		prevSet[id] = true
	}

	narrowed := make([]*entity.Candidate, 0, len(prev))
	for _, c := range ranked {
		if prevSet[c.ID()] {
			narrowed = append(narrowed, c)
		}
	}
	if len(narrowed) == 0 {
		return ranked
	}

	if preferLowCost {
		sort.SliceStable(narrowed, func(i, j int) bool {
			ri, rj := narrowed[i].Equipment.HourlyRate, narrowed[j].Equipment.HourlyRate
			if (ri > 0) != (rj > 0) {
				return ri > 0
			}
			return ri < rj
		})
	}
	return narrowed
}

func buildRecommendations(ranked []*entity.Candidate) []entity.Recommendation {
	recs := make([]entity.Recommendation, 0, len(ranked))
	for _, c := range ranked {
		recs = append(recs, entity.Recommendation{
			EquipmentID: c.Equipment.ID,
			Name:        c.Equipment.Name,
			Category:    c.Equipment.Category,
			Score:       c.FinalScore,
			Reason:      strings.Join(c.MatchReasons, ", "),
			Institution: c.Equipment.Institution,
			WaferSizes:  c.Equipment.WaferSizes,
			Materials:   c.Equipment.Materials,
		})
	}
	return recs
}

// fillReasonFallback 解释缺失时保证 reason 至少有可读内容
func fillReasonFallback(recs []entity.Recommendation) {
	for i := range recs {
		if recs[i].Reason == "" {
			recs[i].Reason = "검색 점수 기반 추천"
		}
	}
}

func recommendationIDs(recs []entity.Recommendation) []string {
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.EquipmentID)
	}
	return ids
}
