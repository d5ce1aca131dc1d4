// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"fab-equip-ai-api/internal/domain/entity"
)

// ChatRequest 自然语言推荐请求
type ChatRequest struct {
	Query           string `json:"query" binding:"required"`
	SessionID       string `json:"session_id,omitempty"`
	UserInstitution string `json:"user_institution,omitempty"`
	TopK            int    `json:"top_k,omitempty"`
}

// RecommendationItem 单条推荐
type RecommendationItem struct {
	EquipmentID string   `json:"equipment_id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Institution string   `json:"institution,omitempty"`
	Score       float64  `json:"score"`
	Reason      string   `json:"reason,omitempty"`
	WaferSizes  []int    `json:"wafer_sizes,omitempty"`
	Materials   []string `json:"materials,omitempty"`
}

// ChatResponse 一轮推荐响应
type ChatResponse struct {
	SessionID        string               `json:"session_id"`
	TurnCount        int                  `json:"turn_count"`
	TurnKind         string               `json:"turn_kind"`
	Recommendations  []RecommendationItem `json:"recommendations"`
	Explanation      string               `json:"explanation,omitempty"`
	Retryable        bool                 `json:"retryable,omitempty"`
	ProcessingTimeMs int64                `json:"processing_time_ms"`
	FilterDropped    map[string]int       `json:"filter_dropped,omitempty"`
}

// NewRecommendationItems 将领域推荐转换为响应条目
func NewRecommendationItems(recs []entity.Recommendation) []RecommendationItem {
	items := make([]RecommendationItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, RecommendationItem{
			EquipmentID: rec.EquipmentID,
			Name:        rec.Name,
			Category:    rec.Category,
			Institution: rec.Institution,
			Score:       rec.Score,
			Reason:      rec.Reason,
			WaferSizes:  rec.WaferSizes,
			Materials:   rec.Materials,
		})
	}
	return items
}
