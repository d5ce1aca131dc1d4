package lexical

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fab-equip-ai-api/internal/application/retrieval"
	pkgerrors "fab-equip-ai-api/pkg/errors"
)

var tracer = otel.Tracer("lexical")

// Okapi BM25 参数
const (
	k1 = 1.5
	b  = 0.75
)

type document struct {
	id     string
	tf     map[string]int
	length int
}

type corpus struct {
	docs  []document
	df    map[string]int
	avgdl float64
}

// Index 进程内 BM25 索引。
// 重建产生新语料整体原子替换，检索方无锁读取。
type Index struct {
	corpus atomic.Pointer[corpus]
}

func NewIndex() *Index {
	return &Index{}
}

// Rebuild 全量重建索引，实现 retrieval.LexicalIndex
func (i *Index) Rebuild(ctx context.Context, docs []retrieval.LexicalDoc) error {
	_, span := tracer.Start(ctx, "lexical.Rebuild",
		trace.WithAttributes(attribute.Int("doc_count", len(docs))))
	defer span.End()

	c := &corpus{
		docs: make([]document, 0, len(docs)),
		df:   map[string]int{},
	}

	var totalLen int
	for _, d := range docs {
		tokens := Tokenize(d.Text)
		doc := document{
			id:     d.ID,
			tf:     make(map[string]int, len(tokens)),
			length: len(tokens),
		}
		for _, t := range tokens {
			doc.tf[t]++
		}
		for t := range doc.tf {
			c.df[t]++
		}
		totalLen += doc.length
		c.docs = append(c.docs, doc)
	}
	if len(c.docs) > 0 {
		c.avgdl = float64(totalLen) / float64(len(c.docs))
	}

	i.corpus.Store(c)
	return nil
}

// Ready 索引是否已装载
func (i *Index) Ready() bool {
	return i.corpus.Load() != nil
}

// DocCount 已索引文档数
func (i *Index) DocCount() int {
	c := i.corpus.Load()
	if c == nil {
		return 0
	}
	return len(c.docs)
}

// Search 实现 retrieval.LexicalSearcher。
// 包含排除词的文档直接剔除。
func (i *Index) Search(ctx context.Context, in retrieval.SearchInput) ([]retrieval.Hit, error) {
	_, span := tracer.Start(ctx, "lexical.Search",
		trace.WithAttributes(attribute.String("query", in.Query)))
	defer span.End()

	c := i.corpus.Load()
	if c == nil {
		return nil, pkgerrors.ErrIndexNotReady
	}

	terms := Tokenize(in.Query)
	if len(terms) == 0 {
		return nil, nil
	}

	var excludeTokens []string
	for _, term := range in.ExcludeTerms {
		excludeTokens = append(excludeTokens, Tokenize(term)...)
	}

	n := float64(len(c.docs))
	hits := make([]retrieval.Hit, 0, 16)
	for _, doc := range c.docs {
		if containsAny(doc.tf, excludeTokens) {
			continue
		}

		var score float64
		for _, term := range terms {
			f := float64(doc.tf[term])
			if f == 0 {
				continue
			}
			idf := math.Log(1 + (n-float64(c.df[term])+0.5)/(float64(c.df[term])+0.5))
			norm := f * (k1 + 1) / (f + k1*(1-b+b*float64(doc.length)/c.avgdl))
			score += idf * norm
		}
		if score > 0 {
			hits = append(hits, retrieval.Hit{ID: doc.id, Score: score})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].ID < hits[b].ID
	})
	if in.TopN > 0 && len(hits) > in.TopN {
		hits = hits[:in.TopN]
	}

	span.SetAttributes(attribute.Int("hit_count", len(hits)))
	return hits, nil
}

func containsAny(tf map[string]int, tokens []string) bool {
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t != "" && tf[t] > 0 {
			return true
		}
	}
	return false
}
