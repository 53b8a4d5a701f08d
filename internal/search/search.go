// Package search implements the hybrid search engine: vector
// kNN against the store, structural post-filters, optional cross-encoder
// reranking, and per-file/per-symbol result caps.
package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/codesearch/hybrid-search/internal/coreerrors"
	"github.com/codesearch/hybrid-search/internal/embed"
	"github.com/codesearch/hybrid-search/internal/store"
)

// Query is one search request.
type Query struct {
	Text         string
	Limit        int
	Filters      store.FilterSet
	Rerank       bool
	MaxPerFile   int
	MaxPerSymbol int
	MinScore     float64
}

// Hit is one ranked result.
type Hit struct {
	File        string
	StartLine   int
	EndLine     int
	Content     string
	SymbolName  string
	SymbolType  string
	Relevance   float64
	RerankScore *float64
	Complexity  int
	IsExported  bool
	ParentScope string
}

// Engine ties a vector store to an embeddings provider and an optional
// reranker.
type Engine struct {
	store    *store.Store
	provider embed.Provider
	reranker embed.Reranker
}

// New builds a search Engine. reranker may be nil; Query.Rerank is then
// ignored.
func New(st *store.Store, provider embed.Provider, reranker embed.Reranker) *Engine {
	return &Engine{store: st, provider: provider, reranker: reranker}
}

// Search runs the full pipeline: kNN + structural filter, relevance
// from distance, optional rerank, minScore floor, then per-file/per-symbol
// caps applied by a single stable pass over the ranked list.
func (e *Engine) Search(ctx context.Context, q Query) ([]Hit, []store.InvalidClause, error) {
	select {
	case <-ctx.Done():
		return nil, nil, coreerrors.ErrCancelled
	default:
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	// Pull more candidates than the final limit up front: reranking can
	// reorder significantly, and the per-file/per-symbol caps can reject
	// hits that were within the raw top-N.
	fanout := limit
	if q.Rerank || q.MaxPerFile > 0 || q.MaxPerSymbol > 0 {
		fanout = limit * 4
	}

	results, dropped, err := e.store.SearchByText(ctx, e.provider, q.Text, q.Filters, fanout)
	if err != nil {
		return nil, dropped, err
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		// Cosine distance ranges over [0, 2]; anti-correlated vectors would
		// otherwise push relevance below zero.
		relevance := 1 - r.Distance
		if relevance < 0 {
			relevance = 0
		}
		hits[i] = Hit{
			File:        r.Row.File,
			StartLine:   r.Row.StartLine,
			EndLine:     r.Row.EndLine,
			Content:     r.Row.Content,
			SymbolName:  r.Row.SymbolName,
			SymbolType:  r.Row.SymbolType,
			Relevance:   relevance,
			Complexity:  r.Row.Complexity,
			IsExported:  r.Row.IsExported,
			ParentScope: r.Row.ParentScope,
		}
	}

	if q.Rerank && e.reranker != nil && len(hits) > 0 {
		hits, err = e.rerank(ctx, q.Text, hits)
		if err != nil {
			return nil, dropped, err
		}
	}

	if q.MinScore > 0 {
		filtered := hits[:0:0]
		for _, h := range hits {
			if h.Relevance >= q.MinScore {
				filtered = append(filtered, h)
			}
		}
		hits = filtered
	}

	hits = applyCaps(hits, q.MaxPerFile, q.MaxPerSymbol)

	if len(hits) > limit {
		hits = hits[:limit]
	}

	return hits, dropped, nil
}

// rerank calls the cross-encoder over the current hit set's content and
// reorders descending by rerankScore.
func (e *Engine) rerank(ctx context.Context, query string, hits []Hit) ([]Hit, error) {
	docs := make([]string, len(hits))
	for i, h := range hits {
		docs[i] = h.Content
	}

	results, err := e.reranker.Rerank(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("%w: rerank: %v", coreerrors.ErrEmbedding, err)
	}

	for _, r := range results {
		if r.Index < 0 || r.Index >= len(hits) {
			continue
		}
		score := r.Score
		hits[r.Index].RerankScore = &score
	}

	sort.SliceStable(hits, func(i, j int) bool {
		si, sj := hits[i].RerankScore, hits[j].RerankScore
		if si == nil && sj == nil {
			return false
		}
		if si == nil {
			return false
		}
		if sj == nil {
			return true
		}
		return *si > *sj
	})
	return hits, nil
}

// applyCaps streams from the top, accepting a hit only while its file and
// symbol counts are both still under their caps. A cap
// of 0 means unbounded.
func applyCaps(hits []Hit, maxPerFile, maxPerSymbol int) []Hit {
	if maxPerFile <= 0 && maxPerSymbol <= 0 {
		return hits
	}
	fileCount := make(map[string]int)
	symbolCount := make(map[string]int)

	out := hits[:0:0]
	for _, h := range hits {
		if maxPerFile > 0 && fileCount[h.File] >= maxPerFile {
			continue
		}
		symbolKey := h.File + "::" + h.SymbolName
		if maxPerSymbol > 0 && h.SymbolName != "" && symbolCount[symbolKey] >= maxPerSymbol {
			continue
		}
		fileCount[h.File]++
		if h.SymbolName != "" {
			symbolCount[symbolKey]++
		}
		out = append(out, h)
	}
	return out
}
