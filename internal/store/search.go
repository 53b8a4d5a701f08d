package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/codesearch/hybrid-search/internal/coreerrors"
	"github.com/codesearch/hybrid-search/internal/embed"
	"github.com/codesearch/hybrid-search/internal/model"
)

// SearchResult pairs a stored row with its cosine distance from the query
// vector (lower is better; relevance is 1 - distance).
type SearchResult struct {
	Row      model.EmbeddingRow
	Distance float64
}

// candidateFanout widens the initial kNN pull so that, after joining with
// the scalar predicate, at least `limit` rows usually survive without a
// second round trip.
const candidateFanout = 8

// SearchByVector runs vec0's kNN search, then applies the structural
// predicate as a post-filter over the joined scalar columns.
func (s *Store) SearchByVector(v []float32, fs FilterSet, limit int) ([]SearchResult, []InvalidClause, error) {
	if len(v) != s.dimensions {
		return nil, nil, fmt.Errorf("%w: query vector has %d dims, store has %d", coreerrors.ErrDimensionMismatch, len(v), s.dimensions)
	}
	if limit <= 0 {
		limit = 10
	}

	pred, dropped := Compile(fs)

	embBytes, err := serializeVector(v)
	if err != nil {
		return nil, dropped, fmt.Errorf("%w: serialize query vector: %v", coreerrors.ErrStore, err)
	}

	fanout := limit * candidateFanout
	rows, err := s.db.Query(
		`SELECT id, distance FROM chunks_vec WHERE embedding MATCH ? AND k = ? ORDER BY distance`,
		embBytes, fanout,
	)
	if err != nil {
		return nil, dropped, fmt.Errorf("%w: vector search: %v", coreerrors.ErrStore, err)
	}
	defer rows.Close()

	type candidate struct {
		id       string
		distance float64
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.distance); err != nil {
			return nil, dropped, fmt.Errorf("%w: scan vector result: %v", coreerrors.ErrStore, err)
		}
		if c.id == sentinelID {
			continue
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dropped, fmt.Errorf("%w: %v", coreerrors.ErrStore, err)
	}
	if len(candidates) == 0 {
		return nil, dropped, nil
	}

	ids := make([]any, len(candidates))
	byID := make(map[string]float64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
		byID[c.id] = c.distance
	}

	q := sq.Select(rowColumns...).From("chunks").
		Where(sq.Eq{"id": ids}).
		Where(pred)

	scanned, err := q.RunWith(s.db).Query()
	if err != nil {
		return nil, dropped, fmt.Errorf("%w: filter joined rows: %v", coreerrors.ErrStore, err)
	}
	defer scanned.Close()

	matched, err := scanRows(scanned)
	if err != nil {
		return nil, dropped, err
	}

	out := make([]SearchResult, len(matched))
	for i, r := range matched {
		out[i] = SearchResult{Row: r, Distance: byID[r.ID]}
	}
	sortByDistance(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, dropped, nil
}

// SearchByText embeds query with mode=query, then delegates to
// SearchByVector.
func (s *Store) SearchByText(ctx context.Context, provider embed.Provider, query string, fs FilterSet, limit int) ([]SearchResult, []InvalidClause, error) {
	vectors, err := provider.Embed(ctx, []string{query}, embed.EmbedModeQuery)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", coreerrors.ErrEmbedding, err)
	}
	if len(vectors) != 1 {
		return nil, nil, fmt.Errorf("%w: expected 1 query vector, got %d", coreerrors.ErrEmbedding, len(vectors))
	}
	return s.SearchByVector(vectors[0], fs, limit)
}

func sortByDistance(results []SearchResult) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j-1].Distance > results[j].Distance; j-- {
			results[j-1], results[j] = results[j], results[j-1]
		}
	}
}
