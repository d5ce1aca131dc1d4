// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"fab-equip-ai-api/internal/domain/entity"
)

// RuleRepository 策略规则表仓储，供策略快照加载器读取
type RuleRepository interface {
	ListInstitutionPriorities(ctx context.Context) ([]entity.InstitutionPriorityRule, error)
	ListPolicySettings(ctx context.Context) ([]entity.PolicySettingRule, error)
	ListProcessMappings(ctx context.Context) ([]entity.ProcessMappingRule, error)
}
