// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"fab-equip-ai-api/internal/domain/entity"
	"fab-equip-ai-api/internal/domain/repository"
)

// RuleRepository 三张策略规则表的只读仓储
type RuleRepository struct {
	client *Client
}

func NewRuleRepository(client *Client) *RuleRepository {
	return &RuleRepository{client: client}
}

var _ repository.RuleRepository = (*RuleRepository)(nil)

func (r *RuleRepository) ListInstitutionPriorities(ctx context.Context) ([]entity.InstitutionPriorityRule, error) {
	ctx, span := tracer.Start(ctx, "postgres.RuleRepository.ListInstitutionPriorities")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rules []entity.InstitutionPriorityRule
	if err := db.Order("institution ASC").Find(&rules).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list institution priorities: %w", err)
	}
	return rules, nil
}

func (r *RuleRepository) ListPolicySettings(ctx context.Context) ([]entity.PolicySettingRule, error) {
	ctx, span := tracer.Start(ctx, "postgres.RuleRepository.ListPolicySettings")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rules []entity.PolicySettingRule
	if err := db.Order("setting_key ASC").Find(&rules).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list policy settings: %w", err)
	}
	return rules, nil
}

func (r *RuleRepository) ListProcessMappings(ctx context.Context) ([]entity.ProcessMappingRule, error) {
	ctx, span := tracer.Start(ctx, "postgres.RuleRepository.ListProcessMappings")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rules []entity.ProcessMappingRule
	if err := db.Order("priority ASC, keyword ASC").Find(&rules).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list process mappings: %w", err)
	}
	return rules, nil
}
