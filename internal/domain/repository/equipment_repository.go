// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"fab-equip-ai-api/internal/domain/entity"
)

// EquipmentRepository 设备目录仓储
type EquipmentRepository interface {
	Create(ctx context.Context, equipment *entity.Equipment) error
	BatchUpsert(ctx context.Context, equipments []*entity.Equipment) error
	GetByID(ctx context.Context, id string) (*entity.Equipment, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Equipment, error)
	ListAll(ctx context.Context) ([]*entity.Equipment, error)
	List(ctx context.Context, pagination Pagination) (*PagedResult[*entity.Equipment], error)
	Count(ctx context.Context) (int64, error)
}
