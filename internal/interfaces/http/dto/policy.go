// Package dto 提供 HTTP 层数据传输对象
package dto

// PolicyStatusResponse 策略快照状态响应
type PolicyStatusResponse struct {
	LoadedAt           string         `json:"loaded_at"`
	AgeSeconds         float64        `json:"age_seconds"`
	InstitutionCount   int            `json:"institution_count"`
	MappingCount       int            `json:"mapping_count"`
	Settings           map[string]any `json:"settings"`
	MaintenanceExclude bool           `json:"maintenance_exclude"`
	ExternalVisible    bool           `json:"external_visible"`
	MinRagScore        float64        `json:"min_rag_score"`
	MaxRecommendations int            `json:"max_recommendations"`
}

// PolicyReloadResponse 策略重载响应
type PolicyReloadResponse struct {
	LoadedAt         string `json:"loaded_at"`
	InstitutionCount int    `json:"institution_count"`
	MappingCount     int    `json:"mapping_count"`
}

// ProcessMappingItem 工艺映射条目
type ProcessMappingItem struct {
	Keyword    string   `json:"keyword"`
	Categories []string `json:"categories"`
	Priority   int      `json:"priority"`
	Exact      bool     `json:"exact"`
}

// ProcessMappingResponse 工艺映射列表响应
type ProcessMappingResponse struct {
	Mappings []ProcessMappingItem `json:"mappings"`
}
