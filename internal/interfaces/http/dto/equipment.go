// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"fab-equip-ai-api/internal/domain/entity"
)

// EquipmentResponse 设备详情响应
type EquipmentResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Category         string   `json:"category"`
	Institution      string   `json:"institution,omitempty"`
	WaferSizes       []int    `json:"wafer_sizes,omitempty"`
	Materials        []string `json:"materials,omitempty"`
	Processes        []string `json:"processes,omitempty"`
	TempMin          *float64 `json:"temp_min,omitempty"`
	TempMax          *float64 `json:"temp_max,omitempty"`
	HourlyRate       float64  `json:"hourly_rate,omitempty"`
	Description      string   `json:"description,omitempty"`
	UnderMaintenance bool     `json:"under_maintenance"`
	ExternalUsable   bool     `json:"external_usable"`
}

// NewEquipmentResponse 将设备实体转换为响应
func NewEquipmentResponse(e *entity.Equipment) *EquipmentResponse {
	if e == nil {
		return nil
	}
	return &EquipmentResponse{
		ID:               e.ID,
		Name:             e.Name,
		Category:         e.Category,
		Institution:      e.Institution,
		WaferSizes:       e.WaferSizes,
		Materials:        e.Materials,
		Processes:        e.Processes,
		TempMin:          e.TempMin,
		TempMax:          e.TempMax,
		HourlyRate:       e.HourlyRate,
		Description:      e.Description,
		UnderMaintenance: e.UnderMaintenance,
		ExternalUsable:   e.ExternalUsable,
	}
}

// EquipmentListResponse 设备列表响应
type EquipmentListResponse struct {
	Equipments []*EquipmentResponse `json:"equipments"`
}

// EquipmentCountResponse 设备统计响应
type EquipmentCountResponse struct {
	Total        int64 `json:"total"`
	IndexedDocs  int   `json:"indexed_docs"`
	LexicalReady bool  `json:"lexical_ready"`
}

// ReindexRequest 目录重建请求
type ReindexRequest struct {
	Scope        string   `json:"scope,omitempty"` // full（默认）或 partial
	EquipmentIDs []string `json:"equipment_ids,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	Async        bool     `json:"async,omitempty"`
}

// ReindexResponse 目录重建响应
type ReindexResponse struct {
	JobID   string `json:"job_id,omitempty"`
	Indexed int    `json:"indexed,omitempty"`
	Queued  bool   `json:"queued"`
}
