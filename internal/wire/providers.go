// Package wire 提供依赖注入配置
package wire

import (
	"context"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/google/wire"

	"fab-equip-ai-api/internal/application/policy"
	"fab-equip-ai-api/internal/application/query"
	"fab-equip-ai-api/internal/application/recommend"
	appretrieval "fab-equip-ai-api/internal/application/retrieval"
	"fab-equip-ai-api/internal/application/session"
	"fab-equip-ai-api/internal/config"
	"fab-equip-ai-api/internal/domain/repository"
	infraembedding "fab-equip-ai-api/internal/infrastructure/embedding"
	"fab-equip-ai-api/internal/infrastructure/lexical"
	"fab-equip-ai-api/internal/infrastructure/llm"
	"fab-equip-ai-api/internal/infrastructure/llm/prompt"
	"fab-equip-ai-api/internal/infrastructure/messaging"
	"fab-equip-ai-api/internal/infrastructure/persistence/milvus"
	"fab-equip-ai-api/internal/infrastructure/persistence/postgres"
	"fab-equip-ai-api/internal/infrastructure/persistence/redis"
	"fab-equip-ai-api/internal/interfaces/http/handler"
	"fab-equip-ai-api/internal/interfaces/http/router"
	"fab-equip-ai-api/pkg/logger"
)

// PostgresOnlyDataLayer 仅包含 PostgreSQL 的数据层（用于 bootstrap）
type PostgresOnlyDataLayer struct {
	PgClient      *postgres.Client
	TxManager     *postgres.TxManager
	EquipmentRepo *postgres.EquipmentRepository
	RuleRepo      *postgres.RuleRepository
}

// App API 网关依赖容器。
// Router 之外额外暴露启动期预热所需的索引器与策略缓存。
type App struct {
	Router      *router.Router
	Indexer     *appretrieval.Indexer
	PolicyCache *policy.Cache
}

// Worker 索引/策略后台进程的依赖容器
type Worker struct {
	RedisClient   *redis.Client
	Indexer       *appretrieval.Indexer
	PolicyCache   *policy.Cache
	EquipmentRepo repository.EquipmentRepository
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewEquipmentRepository,
	postgres.NewRuleRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	wire.Bind(new(repository.EquipmentRepository), new(*postgres.EquipmentRepository)),
	wire.Bind(new(repository.RuleRepository), new(*postgres.RuleRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	ProvideSessionStore,
	wire.Bind(new(recommend.ResultCache), new(*redis.Cache)),
	wire.Bind(new(repository.SessionStore), new(*redis.SessionStore)),
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
)

// MilvusAppSet 可选 Milvus（不可达时退化为纯词法检索，不阻塞启动）
var MilvusAppSet = wire.NewSet(
	ProvideMilvusClientOptional,
	ProvideMilvusRepositoryOptional,
	ProvideSemanticSearcher,
	ProvideVectorIndexOptional,
)

// EmbeddingSet 可选 Embedder（不可用时禁用向量检索/索引）
var EmbeddingSet = wire.NewSet(
	ProvideEmbedderOptional,
)

// LexicalSet 进程内 BM25 词法索引
var LexicalSet = wire.NewSet(
	lexical.NewIndex,
	wire.Bind(new(appretrieval.LexicalSearcher), new(*lexical.Index)),
	wire.Bind(new(appretrieval.LexicalIndex), new(*lexical.Index)),
)

// LLMSet LLM 意图解析与解释生成提供者集合
var LLMSet = wire.NewSet(
	llm.NewEinoFactory,
	prompt.NewRegistry,
	ProvideIntentClassifier,
	ProvideExplanationClient,
	wire.Bind(new(query.IntentParser), new(*llm.IntentClassifier)),
	wire.Bind(new(recommend.ExplanationGenerator), new(*llm.ExplanationClient)),
)

// AppSet 应用层编排提供者集合
var AppSet = wire.NewSet(
	query.NewInterpreter,
	ProvideQueryClassifier,
	policy.NewFilter,
	policy.NewRanker,
	ProvidePolicyCache,
	ProvideSessionReconciler,
	ProvideFusion,
	ProvideRetrievalIndexer,
	ProvideExplainer,
	ProvideRecommendService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	handler.NewHealthHandler,
	handler.NewChatHandler,
	handler.NewStreamHandler,
	handler.NewPolicyHandler,
	handler.NewEquipmentHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideSessionStore 提供会话存储（TTL 来自会话配置）
func ProvideSessionStore(client *redis.Client, cfg *config.Config) *redis.SessionStore {
	return redis.NewSessionStore(client, cfg.Session.TTL)
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(redisClient.Redis(), int64(maxLen))
}

func ProvideMilvusClientOptional(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Warn(ctx, "milvus not available, semantic search disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

func ProvideMilvusRepositoryOptional(client *milvus.Client) *milvus.Repository {
	if client == nil {
		return nil
	}
	return milvus.NewRepository(client)
}

// ProvideSemanticSearcher 提供语义检索 port。
// Milvus 或 Embedder 不可用时适配器内部返回错误，由融合层降级。
func ProvideSemanticSearcher(repo *milvus.Repository, embedder einoembedding.Embedder) appretrieval.SemanticSearcher {
	return milvus.NewSemanticAdapter(repo, embedder)
}

func ProvideVectorIndexOptional(repo *milvus.Repository) appretrieval.VectorIndex {
	if repo == nil {
		return nil
	}
	return milvus.NewIndexAdapter(repo)
}

func ProvideEmbedderOptional(ctx context.Context, cfg *config.Config) (einoembedding.Embedder, error) {
	embedder, err := infraembedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		logger.Warn(ctx, "embedding not available, semantic search disabled", "error", err.Error())
		return nil, nil
	}
	return embedder, nil
}

// ProvideIntentClassifier 提供 LLM 意图解析器
func ProvideIntentClassifier(factory *llm.EinoFactory, registry *prompt.Registry, cfg *config.Config) *llm.IntentClassifier {
	return llm.NewIntentClassifier(factory, registry, cfg.LLM.DefaultProvider)
}

// ProvideExplanationClient 提供 LLM 解释生成器
func ProvideExplanationClient(factory *llm.EinoFactory, registry *prompt.Registry, cfg *config.Config) *llm.ExplanationClient {
	return llm.NewExplanationClient(factory, registry, cfg.LLM.DefaultProvider)
}

// ProvideQueryClassifier 提供意图分类器
func ProvideQueryClassifier(parser query.IntentParser) *query.Classifier {
	return query.NewClassifier(parser)
}

// ProvidePolicyCache 提供策略规则缓存
func ProvidePolicyCache(rules repository.RuleRepository, cfg *config.Config) *policy.Cache {
	return policy.NewCache(rules, cfg.Policy.CacheTTL, cfg.Policy.LoadTimeout)
}

// ProvideSessionReconciler 提供会话对账器
func ProvideSessionReconciler(store repository.SessionStore, cfg *config.Config) *session.Reconciler {
	return session.NewReconciler(store, cfg.Session.TTL)
}

// ProvideFusion 提供双路融合检索
func ProvideFusion(
	lexicalSearcher appretrieval.LexicalSearcher,
	semanticSearcher appretrieval.SemanticSearcher,
	equipmentRepo repository.EquipmentRepository,
	cfg *config.Config,
) *appretrieval.Fusion {
	return appretrieval.NewFusion(lexicalSearcher, semanticSearcher, equipmentRepo, appretrieval.Config{
		VectorWeight:  cfg.Search.VectorWeight,
		BM25Weight:    cfg.Search.BM25Weight,
		CategoryBoost: cfg.Search.CategoryBoost,
		TopN:          cfg.Search.TopN,
		Timeout:       cfg.Search.Timeout,
	})
}

// ProvideRetrievalIndexer 提供索引重建器
func ProvideRetrievalIndexer(
	embedder einoembedding.Embedder,
	vector appretrieval.VectorIndex,
	lexicalIndex appretrieval.LexicalIndex,
	equipmentRepo repository.EquipmentRepository,
	cfg *config.Config,
) *appretrieval.Indexer {
	return appretrieval.NewIndexer(embedder, vector, lexicalIndex, equipmentRepo, cfg.Embedding.BatchSize)
}

// ProvideExplainer 提供带缓存的解释生成
func ProvideExplainer(generator recommend.ExplanationGenerator, cache recommend.ResultCache, cfg *config.Config) *recommend.Explainer {
	return recommend.NewExplainer(generator, cache, cfg.Explanation.Timeout, cfg.Explanation.CacheTTL)
}

// ProvideRecommendService 提供推荐编排服务
func ProvideRecommendService(
	policyCache *policy.Cache,
	interpreter *query.Interpreter,
	classifier *query.Classifier,
	fusion *appretrieval.Fusion,
	filter *policy.Filter,
	ranker *policy.Ranker,
	reconciler *session.Reconciler,
	explainer *recommend.Explainer,
	cfg *config.Config,
) *recommend.Service {
	return recommend.NewService(policyCache, interpreter, classifier, fusion, filter, ranker, reconciler, explainer, cfg.Search.TopN)
}
