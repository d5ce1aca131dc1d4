// Package redis 提供 Redis 缓存和消息队列实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fab-equip-ai-api/internal/domain/entity"
	"fab-equip-ai-api/internal/domain/repository"
)

const sessionKeyPrefix = "session:"

// SessionStore 基于 Redis 的会话快照存储，键按 TTL 过期
type SessionStore struct {
	client *Client
	ttl    time.Duration
}

// NewSessionStore 创建会话存储
func NewSessionStore(client *Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionStore{client: client, ttl: ttl}
}

var _ repository.SessionStore = (*SessionStore)(nil)

// Get 读取会话快照，不存在或已过期返回 (nil, nil)
func (s *SessionStore) Get(ctx context.Context, id string) (*entity.Session, error) {
	ctx, span := tracer.Start(ctx, "session.Get",
		trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	val, err := s.client.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.Bool("session.found", false))
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session entity.Session
	if err := json.Unmarshal(val, &session); err != nil {
		// 序列化格式变更后的旧快照按不存在处理
		span.RecordError(err)
		return nil, nil
	}

	span.SetAttributes(attribute.Bool("session.found", true))
	return &session, nil
}

// Save 写入会话快照并刷新 TTL
func (s *SessionStore) Save(ctx context.Context, session *entity.Session) error {
	ctx, span := tracer.Start(ctx, "session.Save",
		trace.WithAttributes(
			attribute.String("session.id", session.ID),
			attribute.Int("session.turns", session.TurnCount()),
		))
	defer span.End()

	bytes, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.rdb.Set(ctx, sessionKeyPrefix+session.ID, bytes, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete 删除会话快照
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "session.Delete",
		trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	if err := s.client.rdb.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Count 当前存活的会话数，供健康与指标采集使用
func (s *SessionStore) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "session.Count")
	defer span.End()

	var total int64
	iter := s.client.rdb.Scan(ctx, 0, sessionKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		total++
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return 0, err
	}
	return total, nil
}
