package milvus

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	"fab-equip-ai-api/internal/application/retrieval"
)

// SemanticAdapter 将 Milvus 仓储适配为应用层语义检索 port
type SemanticAdapter struct {
	repo     *Repository
	embedder embedding.Embedder
}

func NewSemanticAdapter(repo *Repository, embedder embedding.Embedder) *SemanticAdapter {
	return &SemanticAdapter{repo: repo, embedder: embedder}
}

var _ retrieval.SemanticSearcher = (*SemanticAdapter)(nil)

// Search 嵌入查询文本后做向量检索。
// COSINE 度量下 Milvus 返回的 score 即相似度，原样透传。
func (a *SemanticAdapter) Search(ctx context.Context, in retrieval.SearchInput) ([]retrieval.Hit, error) {
	if a == nil || a.repo == nil || a.embedder == nil {
		return nil, fmt.Errorf("semantic search not configured")
	}

	q := strings.TrimSpace(in.Query)
	if q == "" {
		return nil, nil
	}

	v64, err := a.embedder.EmbedStrings(ctx, []string{q})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(v64) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	vec := make([]float32, 0, len(v64[0]))
	for _, x := range v64[0] {
		vec = append(vec, float32(x))
	}

	results, err := a.repo.SearchEquipments(ctx, &SearchParams{
		QueryVector:       vec,
		TopK:              in.TopN,
		ExcludeCategories: in.ExcludeCategories,
	})
	if err != nil {
		return nil, err
	}
	return toHits(results), nil
}

// toHits 将仓储检索结果转换为应用层命中，跳过空 ID
func toHits(results []*SearchResult) []retrieval.Hit {
	hits := make([]retrieval.Hit, 0, len(results))
	for _, r := range results {
		if r == nil || r.EquipmentID == "" {
			continue
		}
		hits = append(hits, retrieval.Hit{
			ID:    r.EquipmentID,
			Score: float64(r.Score),
		})
	}
	return hits
}

// IndexAdapter 将 Milvus 仓储适配为应用层向量索引写入 port
type IndexAdapter struct {
	repo *Repository
}

func NewIndexAdapter(repo *Repository) *IndexAdapter {
	return &IndexAdapter{repo: repo}
}

var _ retrieval.VectorIndex = (*IndexAdapter)(nil)

func (a *IndexAdapter) EnsureEquipmentCollection(ctx context.Context) error {
	return a.repo.EnsureEquipmentCollection(ctx)
}

func (a *IndexAdapter) UpsertEquipmentDocs(ctx context.Context, docs []*retrieval.VectorEquipmentDoc) error {
	out := make([]*EquipmentDoc, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		out = append(out, &EquipmentDoc{
			EquipmentID: d.EquipmentID,
			Vector:      d.Vector,
			Category:    d.Category,
			Institution: d.Institution,
			TextContent: d.Text,
		})
	}
	return a.repo.UpsertEquipmentDocs(ctx, out)
}
