package store

import (
	"fmt"

	"github.com/codesearch/hybrid-search/internal/coreerrors"
)

// VectorsByIDs loads stored embedding vectors for a set of row ids, for
// callers (the duplicate detector) that need the raw vector after a
// scalar-only List() call.
func (s *Store) VectorsByIDs(ids []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(ids))
	for i := 0; i < len(ids); i += deleteIDBatch {
		end := i + deleteIDBatch
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[i:end]

		args := make([]any, len(batch))
		placeholders := make([]byte, 0, len(batch)*2)
		for j, id := range batch {
			args[j] = id
			if j > 0 {
				placeholders = append(placeholders, ',')
			}
			placeholders = append(placeholders, '?')
		}

		rows, err := s.db.Query(fmt.Sprintf(`SELECT id, embedding FROM chunks_vec WHERE id IN (%s)`, string(placeholders)), args...)
		if err != nil {
			return nil, fmt.Errorf("%w: load vectors: %v", coreerrors.ErrStore, err)
		}
		for rows.Next() {
			var id string
			var blob []byte
			if err := rows.Scan(&id, &blob); err != nil {
				rows.Close()
				return nil, fmt.Errorf("%w: scan vector: %v", coreerrors.ErrStore, err)
			}
			out[id] = deserializeVector(blob)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: %v", coreerrors.ErrStore, err)
		}
		rows.Close()
	}
	return out, nil
}
