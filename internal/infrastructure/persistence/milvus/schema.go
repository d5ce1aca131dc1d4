// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// CollectionEquipmentDocs 设备文档集合
	CollectionEquipmentDocs = "equipment_docs"

	// VectorDimension 向量维度
	VectorDimension = 1024
)

// EquipmentDocsSchema 设备文档 Collection Schema
func EquipmentDocsSchema() *entity.Schema {
	return &entity.Schema{
		CollectionName: CollectionEquipmentDocs,
		Description:    "Equipment catalog documents for semantic search",
		Fields: []*entity.Field{
			{
				Name:       "equipment_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": "1024",
				},
			},
			{
				Name:     "category",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "institution",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "128",
				},
			},
			{
				Name:     "text_content",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
		},
	}
}

// EquipmentDoc 设备文档数据结构
type EquipmentDoc struct {
	EquipmentID string    `json:"equipment_id"`
	Vector      []float32 `json:"vector"`
	Category    string    `json:"category"`
	Institution string    `json:"institution"`
	TextContent string    `json:"text_content"`
}
