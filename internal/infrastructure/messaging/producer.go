// Package messaging 提供消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishReindexJob 发布目录重建任务
func (p *Producer) PublishReindexJob(ctx context.Context, job *ReindexJobMessage) (string, error) {
	msg, err := NewMessage(job.JobID, "catalog_reindex", job)
	if err != nil {
		return "", err
	}

	if job.RequestID != "" {
		msg.SetMetadata("request_id", job.RequestID)
	}
	msg.SetMetadata("scope", job.Scope)

	return p.Publish(ctx, StreamCatalogReindex, msg)
}

// PublishPolicyReload 发布策略快照重载通知
func (p *Producer) PublishPolicyReload(ctx context.Context, notice *PolicyReloadMessage) (string, error) {
	msg, err := NewMessage(notice.RequestID, "policy_reload", notice)
	if err != nil {
		return "", err
	}

	return p.Publish(ctx, StreamPolicyReload, msg)
}

// ReindexJobMessage 目录重建任务消息
type ReindexJobMessage struct {
	JobID        string   `json:"job_id"`
	Scope        string   `json:"scope"` // full 或 partial
	EquipmentIDs []string `json:"equipment_ids,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	RequestID    string   `json:"request_id,omitempty"`
}

// PolicyReloadMessage 策略快照重载通知消息
type PolicyReloadMessage struct {
	RequestID   string `json:"request_id"`
	RequestedBy string `json:"requested_by,omitempty"`
	Reason      string `json:"reason,omitempty"`
}
