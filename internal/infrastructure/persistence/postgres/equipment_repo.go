// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fab-equip-ai-api/internal/domain/entity"
	"fab-equip-ai-api/internal/domain/repository"
)

type EquipmentRepository struct {
	client *Client
}

func NewEquipmentRepository(client *Client) *EquipmentRepository {
	return &EquipmentRepository{client: client}
}

var _ repository.EquipmentRepository = (*EquipmentRepository)(nil)

func (r *EquipmentRepository) Create(ctx context.Context, equipment *entity.Equipment) error {
	ctx, span := tracer.Start(ctx, "postgres.EquipmentRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(equipment).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create equipment: %w", err)
	}
	return nil
}

// BatchUpsert 批量写入设备目录，主键冲突时整行更新
func (r *EquipmentRepository) BatchUpsert(ctx context.Context, equipments []*entity.Equipment) error {
	ctx, span := tracer.Start(ctx, "postgres.EquipmentRepository.BatchUpsert")
	defer span.End()

	if len(equipments) == 0 {
		return nil
	}

	db := getDB(ctx, r.client.db)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).CreateInBatches(equipments, 100).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to batch upsert equipments: %w", err)
	}
	return nil
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id string) (*entity.Equipment, error) {
	ctx, span := tracer.Start(ctx, "postgres.EquipmentRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var equipment entity.Equipment
	if err := db.First(&equipment, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get equipment: %w", err)
	}
	return &equipment, nil
}

func (r *EquipmentRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.Equipment, error) {
	ctx, span := tracer.Start(ctx, "postgres.EquipmentRepository.GetByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	db := getDB(ctx, r.client.db)
	var equipments []*entity.Equipment
	if err := db.Where("id IN ?", ids).Find(&equipments).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get equipments by ids: %w", err)
	}
	return equipments, nil
}

func (r *EquipmentRepository) ListAll(ctx context.Context) ([]*entity.Equipment, error) {
	ctx, span := tracer.Start(ctx, "postgres.EquipmentRepository.ListAll")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var equipments []*entity.Equipment
	if err := db.Order("id ASC").Find(&equipments).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list equipments: %w", err)
	}
	return equipments, nil
}

func (r *EquipmentRepository) List(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Equipment], error) {
	ctx, span := tracer.Start(ctx, "postgres.EquipmentRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)

	var total int64
	if err := db.Model(&entity.Equipment{}).Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count equipments: %w", err)
	}

	var equipments []*entity.Equipment
	err := db.Order("id ASC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&equipments).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list equipments: %w", err)
	}

	return repository.NewPagedResult(equipments, total, pagination), nil
}

func (r *EquipmentRepository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.EquipmentRepository.Count")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var total int64
	if err := db.Model(&entity.Equipment{}).Count(&total).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count equipments: %w", err)
	}
	return total, nil
}
