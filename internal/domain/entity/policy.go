package entity

import (
	"strconv"
	"strings"
	"time"
)

// UnknownInstitutionPriority 未登记机构的哨兵优先级
const UnknownInstitutionPriority = 999

// InstitutionPriorityRule 机构优先级规则行
type InstitutionPriorityRule struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Institution string    `json:"institution" gorm:"type:varchar(128);uniqueIndex;not null"`
	Priority    int       `json:"priority" gorm:"not null"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (InstitutionPriorityRule) TableName() string {
	return "institution_priorities"
}

// PolicySettingRule 策略设置规则行，value 按 type 解析
type PolicySettingRule struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Key       string    `json:"key" gorm:"type:varchar(64);uniqueIndex;not null;column:setting_key"`
	Value     string    `json:"value" gorm:"type:varchar(255);not null;column:setting_value"`
	Type      string    `json:"type" gorm:"type:varchar(16);not null;column:setting_type"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (PolicySettingRule) TableName() string {
	return "policy_settings"
}

// ProcessMappingRule 工艺关键词到设备类别的映射规则行
type ProcessMappingRule struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Keyword    string    `json:"keyword" gorm:"type:varchar(128);uniqueIndex;not null"`
	Categories []string  `json:"categories" gorm:"type:jsonb;serializer:json"`
	Priority   int       `json:"priority" gorm:"not null;default:100"`
	Exact      bool      `json:"exact" gorm:"default:false"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ProcessMappingRule) TableName() string {
	return "process_mappings"
}

// PolicySettings 已解析的策略设置，解析失败的键回落到默认值
type PolicySettings struct {
	MaintenanceExclude bool    `json:"maintenance_exclude"`
	ExternalVisible    bool    `json:"external_visible"`
	MinRagScore        float64 `json:"min_rag_score"`
	MaxRecommendations int     `json:"max_recommendations"`
}

// DefaultPolicySettings 各设置键的默认值
func DefaultPolicySettings() PolicySettings {
	return PolicySettings{
		MaintenanceExclude: true,
		ExternalVisible:    true,
		MinRagScore:        0.0,
		MaxRecommendations: 5,
	}
}

// ParsePolicySettings 将设置行按声明类型解析，非法值保留默认
func ParsePolicySettings(rows []PolicySettingRule) PolicySettings {
	s := DefaultPolicySettings()
	for _, row := range rows {
		switch row.Key {
		case "maintenance_exclude":
			if v, ok := parseBool(row); ok {
				s.MaintenanceExclude = v
			}
		case "external_visible":
			if v, ok := parseBool(row); ok {
				s.ExternalVisible = v
			}
		case "min_rag_score":
			if v, ok := parseFloat(row); ok {
				s.MinRagScore = v
			}
		case "max_recommendations":
			if v, ok := parseInt(row); ok && v > 0 {
				s.MaxRecommendations = v
			}
		}
	}
	return s
}

func parseBool(row PolicySettingRule) (bool, bool) {
	if row.Type != "boolean" {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(row.Value)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}

func parseInt(row PolicySettingRule) (int, bool) {
	if row.Type != "integer" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(row.Value))
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseFloat(row PolicySettingRule) (float64, bool) {
	if row.Type != "float" && row.Type != "integer" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row.Value), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// RuleSet 三张规则表的一致性快照，加载后只读
type RuleSet struct {
	Priorities map[string]int
	Settings   PolicySettings
	Mappings   []ProcessMappingRule
	LoadedAt   time.Time
}

// PriorityFor 返回机构的优先级分值。
// 用户所属机构恒为 0，未登记机构为哨兵值 999。
func (r *RuleSet) PriorityFor(institution, userInstitution string) int {
	if institution != "" && strings.EqualFold(institution, userInstitution) {
		return 0
	}
	if p, ok := r.Priorities[strings.ToLower(institution)]; ok {
		return p
	}
	return UnknownInstitutionPriority
}

// Age 返回快照自加载以来经过的时长
func (r *RuleSet) Age() time.Duration {
	return time.Since(r.LoadedAt)
}
