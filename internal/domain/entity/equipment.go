// Package entity 定义领域实体
package entity

import (
	"fmt"
	"strings"
	"time"
)

// Equipment 半导体工艺设备目录条目
type Equipment struct {
	ID               string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	Name             string    `json:"name" gorm:"type:varchar(255);not null"`
	Category         string    `json:"category" gorm:"type:varchar(64);index;not null"`
	Institution      string    `json:"institution" gorm:"type:varchar(128);index"`
	WaferSizes       []int     `json:"wafer_sizes" gorm:"type:jsonb;serializer:json"`
	Materials        []string  `json:"materials" gorm:"type:jsonb;serializer:json"`
	Processes        []string  `json:"processes" gorm:"type:jsonb;serializer:json"`
	TempMin          *float64  `json:"temp_min,omitempty"`
	TempMax          *float64  `json:"temp_max,omitempty"`
	HourlyRate       float64   `json:"hourly_rate" gorm:"default:0"`
	Description      string    `json:"description" gorm:"type:text"`
	UnderMaintenance bool      `json:"under_maintenance" gorm:"default:false"`
	ExternalUsable   bool      `json:"external_usable" gorm:"default:true"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Equipment) TableName() string {
	return "equipments"
}

// SearchText 拼装用于索引的文档文本
func (e *Equipment) SearchText() string {
	parts := []string{e.Name, e.Category}
	parts = append(parts, e.Materials...)
	parts = append(parts, e.Processes...)
	for _, size := range e.WaferSizes {
		parts = append(parts, fmt.Sprintf("%d인치", size))
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	return strings.Join(parts, " ")
}

// SupportsWaferSize 判断设备是否支持指定晶圆尺寸
func (e *Equipment) SupportsWaferSize(inch int) bool {
	if len(e.WaferSizes) == 0 {
		return false
	}
	for _, size := range e.WaferSizes {
		if size == inch {
			return true
		}
	}
	return false
}

// SupportsTempRange 判断设备温度窗口是否覆盖给定区间
func (e *Equipment) SupportsTempRange(min, max *float64) bool {
	if min != nil && e.TempMax != nil && *e.TempMax < *min {
		return false
	}
	if max != nil && e.TempMin != nil && *e.TempMin > *max {
		return false
	}
	return true
}

// SupportsMaterial 判断设备是否支持指定材料（大小写不敏感）
func (e *Equipment) SupportsMaterial(material string) bool {
	for _, m := range e.Materials {
		if strings.EqualFold(m, material) {
			return true
		}
	}
	return false
}
