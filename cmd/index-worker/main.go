// Package main 目录索引/策略重载后台执行器入口（index-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fab-equip-ai-api/internal/config"
	"fab-equip-ai-api/internal/infrastructure/messaging"
	"fab-equip-ai-api/internal/wire"
	"fab-equip-ai-api/pkg/logger"
	"fab-equip-ai-api/pkg/tracer"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "index-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	worker, cleanup, err := wire.InitializeWorker(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize worker", err)
	}
	defer cleanup()

	consumerCfg := func(stream messaging.Stream, group messaging.ConsumerGroup) messaging.ConsumerConfig {
		return messaging.ConsumerConfig{
			Stream:        stream,
			Group:         group,
			ConsumerName:  hostnameConsumerName(),
			BlockTimeout:  cfg.Messaging.RedisStream.BlockTimeout,
			ClaimInterval: cfg.Messaging.RedisStream.ClaimInterval,
			RetryLimit:    cfg.Messaging.RedisStream.RetryLimit,
			Backoff: messaging.BackoffConfig{
				Initial:    cfg.Messaging.RedisStream.RetryBackoff.Initial,
				Max:        cfg.Messaging.RedisStream.RetryBackoff.Max,
				Multiplier: cfg.Messaging.RedisStream.RetryBackoff.Multiplier,
			},
		}
	}

	reindexConsumer := messaging.NewConsumer(worker.RedisClient.Redis(),
		consumerCfg(messaging.StreamCatalogReindex, messaging.ConsumerGroupIndexWorker))
	reindexConsumer.RegisterHandler("catalog_reindex", func(msgCtx context.Context, msg *messaging.Message) error {
		var payload messaging.ReindexJobMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}

		logger.Info(msgCtx, "reindex job received",
			"job_id", payload.JobID, "scope", payload.Scope, "reason", payload.Reason)

		if payload.Scope == "partial" && len(payload.EquipmentIDs) > 0 {
			indexed, err := worker.Indexer.ReindexByIDs(msgCtx, payload.EquipmentIDs)
			if err != nil {
				return err
			}
			logger.Info(msgCtx, "partial reindex done", "job_id", payload.JobID, "indexed", indexed)
			return nil
		}

		indexed, err := worker.Indexer.ReindexAll(msgCtx)
		if err != nil {
			return err
		}
		logger.Info(msgCtx, "full reindex done", "job_id", payload.JobID, "indexed", indexed)
		return nil
	})

	policyConsumer := messaging.NewConsumer(worker.RedisClient.Redis(),
		consumerCfg(messaging.StreamPolicyReload, messaging.ConsumerGroupPolicyWorker))
	policyConsumer.RegisterHandler("policy_reload", func(msgCtx context.Context, msg *messaging.Message) error {
		var payload messaging.PolicyReloadMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}

		ruleSet, err := worker.PolicyCache.ForceReload(msgCtx)
		if err != nil {
			return err
		}
		logger.Info(msgCtx, "policy snapshot reloaded",
			"requested_by", payload.RequestedBy,
			"priorities", len(ruleSet.Priorities),
			"mappings", len(ruleSet.Mappings))
		return nil
	})

	if err := reindexConsumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start reindex consumer", err)
	}
	if err := policyConsumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start policy consumer", err)
	}

	log := logger.FromContext(ctx)
	log.Info("index-worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("index-worker shutting down")
	reindexConsumer.Stop()
	policyConsumer.Stop()
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
