// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fab-equip-ai-api/pkg/metrics"
)

// Repository 设备文档向量仓储
type Repository struct {
	client *Client
}

// NewRepository 创建向量检索仓储
func NewRepository(client *Client) *Repository {
	return &Repository{client: client}
}

// SearchParams 检索参数
type SearchParams struct {
	QueryVector []float32
	TopK        int
	// ExcludeCategories 在向量库侧裁剪被否定的类别
	ExcludeCategories []string
}

// SearchResult 检索结果
type SearchResult struct {
	EquipmentID string
	Score       float32
	Category    string
	Institution string
	TextContent string
}

// EnsureEquipmentCollection 确保设备文档集合存在并已加载
func (r *Repository) EnsureEquipmentCollection(ctx context.Context) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.EnsureEquipmentCollection")
	defer span.End()

	has, err := r.client.HasCollection(ctx, CollectionEquipmentDocs)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !has {
		schema := EquipmentDocsSchema()
		schema.CollectionName = r.client.CollectionName(CollectionEquipmentDocs)
		if err := r.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create collection: %w", err)
		}

		idx, err := entity.NewIndexHNSW(
			entity.COSINE,
			r.client.config.HNSWM,
			r.client.config.HNSWEfConstruction,
		)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create index: %w", err)
		}
		if err := r.client.milvus.CreateIndex(ctx, schema.CollectionName, "vector", idx, false); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return r.client.LoadCollection(ctx, CollectionEquipmentDocs)
}

// SearchEquipments 向量检索设备文档
func (r *Repository) SearchEquipments(ctx context.Context, params *SearchParams) ([]*SearchResult, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.SearchEquipments",
		trace.WithAttributes(attribute.Int("top_k", params.TopK)))
	defer span.End()

	start := time.Now()
	collName := r.client.CollectionName(CollectionEquipmentDocs)

	filter := buildFilterExpr(params.ExcludeCategories)

	sp, err := entity.NewIndexHNSWSearchParam(128)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	results, err := r.client.milvus.Search(ctx,
		collName,
		nil,
		filter,
		[]string{"equipment_id", "category", "institution", "text_content"},
		[]entity.Vector{entity.FloatVector(params.QueryVector)},
		"vector",
		entity.COSINE,
		params.TopK,
		sp,
	)
	metrics.MilvusSearchDuration.WithLabelValues(CollectionEquipmentDocs).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MilvusSearchTotal.WithLabelValues(CollectionEquipmentDocs, "error").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	metrics.MilvusSearchTotal.WithLabelValues(CollectionEquipmentDocs, "success").Inc()

	var searchResults []*SearchResult
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			sr := &SearchResult{
				Score: result.Scores[i],
			}
			if idCol, ok := result.Fields.GetColumn("equipment_id").(*entity.ColumnVarChar); ok {
				sr.EquipmentID = idCol.Data()[i]
			}
			if catCol, ok := result.Fields.GetColumn("category").(*entity.ColumnVarChar); ok {
				sr.Category = catCol.Data()[i]
			}
			if instCol, ok := result.Fields.GetColumn("institution").(*entity.ColumnVarChar); ok {
				sr.Institution = instCol.Data()[i]
			}
			if textCol, ok := result.Fields.GetColumn("text_content").(*entity.ColumnVarChar); ok {
				sr.TextContent = textCol.Data()[i]
			}
			searchResults = append(searchResults, sr)
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(searchResults)))
	return searchResults, nil
}

// buildFilterExpr 构造类别排除过滤表达式，空列表返回空串
func buildFilterExpr(excludeCategories []string) string {
	var parts []string
	for _, cat := range excludeCategories {
		cat = strings.TrimSpace(cat)
		if cat == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf(`category != "%s"`, cat))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " && ") + ")"
}

// UpsertEquipmentDocs 写入/覆盖设备文档
func (r *Repository) UpsertEquipmentDocs(ctx context.Context, docs []*EquipmentDoc) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.UpsertEquipmentDocs",
		trace.WithAttributes(attribute.Int("count", len(docs))))
	defer span.End()

	if len(docs) == 0 {
		return nil
	}

	collName := r.client.CollectionName(CollectionEquipmentDocs)

	ids := make([]string, len(docs))
	vectors := make([][]float32, len(docs))
	categories := make([]string, len(docs))
	institutions := make([]string, len(docs))
	texts := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.EquipmentID
		vectors[i] = doc.Vector
		categories[i] = doc.Category
		institutions[i] = doc.Institution
		texts[i] = doc.TextContent
	}

	idCol := entity.NewColumnVarChar("equipment_id", ids)
	vectorCol := entity.NewColumnFloatVector("vector", VectorDimension, vectors)
	catCol := entity.NewColumnVarChar("category", categories)
	instCol := entity.NewColumnVarChar("institution", institutions)
	textCol := entity.NewColumnVarChar("text_content", texts)

	_, err := r.client.milvus.Upsert(ctx, collName, "",
		idCol, vectorCol, catCol, instCol, textCol)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert equipment docs: %w", err)
	}
	return nil
}

// DeleteByIDs 删除指定设备文档
func (r *Repository) DeleteByIDs(ctx context.Context, ids []string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.DeleteByIDs",
		trace.WithAttributes(attribute.Int("count", len(ids))))
	defer span.End()

	if len(ids) == 0 {
		return nil
	}

	collName := r.client.CollectionName(CollectionEquipmentDocs)
	var quoted []string
	for _, id := range ids {
		quoted = append(quoted, fmt.Sprintf(`"%s"`, id))
	}
	expr := fmt.Sprintf("equipment_id in [%s]", strings.Join(quoted, ","))

	if err := r.client.milvus.Delete(ctx, collName, "", expr); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete equipment docs: %w", err)
	}
	return nil
}
