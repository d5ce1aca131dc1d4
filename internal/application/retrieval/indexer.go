package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	"fab-equip-ai-api/internal/domain/entity"
	"fab-equip-ai-api/internal/domain/repository"
	"fab-equip-ai-api/pkg/logger"
)

const defaultEmbeddingBatch = 32

// VectorIndex 定义应用层对向量存储写入侧的最小依赖（port）。
// 由基础设施层提供具体实现（例如 Milvus）。
type VectorIndex interface {
	EnsureEquipmentCollection(ctx context.Context) error
	UpsertEquipmentDocs(ctx context.Context, docs []*VectorEquipmentDoc) error
}

// VectorEquipmentDoc 向量库中的设备文档
type VectorEquipmentDoc struct {
	EquipmentID string
	Category    string
	Institution string
	Text        string
	Vector      []float32
}

// LexicalDoc 词法索引文档
type LexicalDoc struct {
	ID   string
	Text string
}

// LexicalIndex 词法索引重建 port
type LexicalIndex interface {
	Rebuild(ctx context.Context, docs []LexicalDoc) error
}

// Indexer 将设备目录同步到词法索引与向量库
type Indexer struct {
	embedder  embedding.Embedder
	vector    VectorIndex
	lexical   LexicalIndex
	equipment repository.EquipmentRepository

	embeddingBatchSize int
}

func NewIndexer(embedder embedding.Embedder, vector VectorIndex, lexical LexicalIndex, equipment repository.EquipmentRepository, embeddingBatchSize int) *Indexer {
	bs := embeddingBatchSize
	if bs <= 0 {
		bs = defaultEmbeddingBatch
	}
	return &Indexer{
		embedder:           embedder,
		vector:             vector,
		lexical:            lexical,
		equipment:          equipment,
		embeddingBatchSize: bs,
	}
}

// ReindexAll 全量重建：先重建词法索引，再分批嵌入并写入向量库。
// 返回已索引的设备数。
func (i *Indexer) ReindexAll(ctx context.Context) (int, error) {
	equipments, err := i.equipment.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load equipment catalog: %w", err)
	}
	if len(equipments) == 0 {
		return 0, nil
	}

	lexDocs := make([]LexicalDoc, 0, len(equipments))
	for _, eq := range equipments {
		lexDocs = append(lexDocs, LexicalDoc{ID: eq.ID, Text: eq.SearchText()})
	}
	if err := i.lexical.Rebuild(ctx, lexDocs); err != nil {
		return 0, fmt.Errorf("rebuild lexical index: %w", err)
	}

	if i.embedder == nil || i.vector == nil {
		// 向量侧未配置时仅维护词法索引
		logger.Warn(ctx, "vector index disabled, lexical only", "count", len(lexDocs))
		return len(equipments), nil
	}

	if err := i.vector.EnsureEquipmentCollection(ctx); err != nil {
		return 0, err
	}

	for start := 0; start < len(equipments); start += i.embeddingBatchSize {
		end := start + i.embeddingBatchSize
		if end > len(equipments) {
			end = len(equipments)
		}
		if err := i.indexBatch(ctx, equipments[start:end]); err != nil {
			return 0, fmt.Errorf("index batch [%d:%d]: %w", start, end, err)
		}
	}

	logger.Info(ctx, "equipment catalog reindexed", "count", len(equipments))
	return len(equipments), nil
}

// ReindexByIDs 部分重建：仅对给定设备更新向量库。
// 词法索引是全量结构，部分更新不触碰词法侧。
func (i *Indexer) ReindexByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if i.embedder == nil || i.vector == nil {
		logger.Warn(ctx, "vector index disabled, partial reindex skipped", "count", len(ids))
		return 0, nil
	}

	equipments, err := i.equipment.GetByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("load equipments: %w", err)
	}
	if len(equipments) == 0 {
		return 0, nil
	}

	if err := i.vector.EnsureEquipmentCollection(ctx); err != nil {
		return 0, err
	}

	for start := 0; start < len(equipments); start += i.embeddingBatchSize {
		end := start + i.embeddingBatchSize
		if end > len(equipments) {
			end = len(equipments)
		}
		if err := i.indexBatch(ctx, equipments[start:end]); err != nil {
			return 0, fmt.Errorf("index batch [%d:%d]: %w", start, end, err)
		}
	}

	logger.Info(ctx, "equipment docs reindexed", "count", len(equipments))
	return len(equipments), nil
}

func (i *Indexer) indexBatch(ctx context.Context, batch []*entity.Equipment) error {
	texts := make([]string, 0, len(batch))
	for _, eq := range batch {
		texts = append(texts, strings.TrimSpace(eq.SearchText()))
	}

	vectors, err := i.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedding count mismatch: got %d want %d", len(vectors), len(batch))
	}

	docs := make([]*VectorEquipmentDoc, 0, len(batch))
	for idx, eq := range batch {
		vec := make([]float32, 0, len(vectors[idx]))
		for _, x := range vectors[idx] {
			vec = append(vec, float32(x))
		}
		docs = append(docs, &VectorEquipmentDoc{
			EquipmentID: eq.ID,
			Category:    eq.Category,
			Institution: eq.Institution,
			Text:        texts[idx],
			Vector:      vec,
		})
	}
	return i.vector.UpsertEquipmentDocs(ctx, docs)
}
