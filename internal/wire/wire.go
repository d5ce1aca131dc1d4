//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	appretrieval "fab-equip-ai-api/internal/application/retrieval"
	"fab-equip-ai-api/internal/config"
	"fab-equip-ai-api/internal/infrastructure/lexical"
	"fab-equip-ai-api/internal/infrastructure/persistence/postgres"
)

// InitializePostgresOnly 仅初始化 PostgreSQL 数据层（用于 bootstrap）
func InitializePostgresOnly(ctx context.Context, cfg *config.Config) (*PostgresOnlyDataLayer, func(), error) {
	wire.Build(
		PostgresSet,
		postgres.NewTxManager,
		wire.Struct(new(PostgresOnlyDataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		EmbeddingSet,
		MilvusAppSet,
		LexicalSet,
		LLMSet,
		AppSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeWorker 初始化后台 worker（流消费侧自行基于 RedisClient 组装）
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		RepoSet,
		ProvideRedisClient,
		EmbeddingSet,
		ProvideMilvusClientOptional,
		ProvideMilvusRepositoryOptional,
		ProvideVectorIndexOptional,
		lexical.NewIndex,
		wire.Bind(new(appretrieval.LexicalIndex), new(*lexical.Index)),
		ProvideRetrievalIndexer,
		ProvidePolicyCache,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}
