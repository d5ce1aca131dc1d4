// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"fab-equip-ai-api/internal/domain/entity"
)

// SessionStore 会话快照存储。
// Get 在会话不存在或已过期时返回 (nil, nil)。
type SessionStore interface {
	Get(ctx context.Context, id string) (*entity.Session, error)
	Save(ctx context.Context, session *entity.Session) error
	Delete(ctx context.Context, id string) error
}
