// Package retrieval 提供词法与语义双路检索的融合
package retrieval

import "context"

// Hit 单路检索命中
type Hit struct {
	ID    string
	Score float64
}

// SearchInput 单路检索输入
type SearchInput struct {
	Query        string
	TopN         int
	ExcludeTerms []string
	// ExcludeCategories 意图否定的类别，语义检索下推到向量库过滤
	ExcludeCategories []string
}

// LexicalSearcher 词法检索 port（BM25 索引实现）
type LexicalSearcher interface {
	Search(ctx context.Context, in SearchInput) ([]Hit, error)
}

// SemanticSearcher 语义检索 port（向量库实现）
type SemanticSearcher interface {
	Search(ctx context.Context, in SearchInput) ([]Hit, error)
}
