package store

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/codesearch/hybrid-search/internal/coreerrors"
	"github.com/codesearch/hybrid-search/internal/model"
)

// deleteIDBatch is the chunk size for `IN (...)` deletes, keeping each
// statement well under SQLite's bound-parameter limit.
const deleteIDBatch = 200

// AddDocuments appends rows to both the scalar table and the vector
// index. Callers have already called the embeddings client; this layer
// only persists.
func (s *Store) AddDocuments(rows []model.EmbeddingRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", coreerrors.ErrStore, err)
	}
	defer tx.Rollback()

	for _, r := range rows {
		if err := insertRow(tx, r); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit add: %v", coreerrors.ErrStore, err)
	}
	return nil
}

func insertRow(tx *sql.Tx, r model.EmbeddingRow) error {
	if len(r.Vector) == 0 {
		return fmt.Errorf("%w: row %s has no vector", coreerrors.ErrStore, r.ID)
	}

	_, err := sq.Insert("chunks").
		Columns(
			"id", "content", "content_raw", "file", "start_line", "end_line", "chunk_index",
			"type", "symbol_name", "symbol_type", "complexity", "is_exported", "parent_scope",
			"scope_depth", "has_documentation", "language", "imports", "variant",
			"is_async", "is_static", "is_abstract", "decorators",
		).
		Values(
			r.ID, r.Content, r.ContentRaw, r.File, r.StartLine, r.EndLine, r.ChunkIndex,
			r.Type, r.SymbolName, r.SymbolType, r.Complexity, r.IsExported, r.ParentScope,
			r.ScopeDepth, r.HasDocumentation, r.Language, r.Imports, r.Variant,
			r.IsAsync, r.IsStatic, r.IsAbstract, r.Decorators,
		).
		RunWith(tx).
		Exec()
	if err != nil {
		return fmt.Errorf("%w: insert row %s: %v", coreerrors.ErrStore, r.ID, err)
	}

	embBytes, err := serializeVector(r.Vector)
	if err != nil {
		return fmt.Errorf("%w: serialize vector for %s: %v", coreerrors.ErrStore, r.ID, err)
	}
	if _, err := tx.Exec(`INSERT INTO chunks_vec (id, embedding) VALUES (?, ?)`, r.ID, embBytes); err != nil {
		return fmt.Errorf("%w: insert vector for %s: %v", coreerrors.ErrStore, r.ID, err)
	}
	return nil
}

// UpdateDocuments is the delete-by-id-then-add upsert
// (chunks are "never mutated after insert — updates happen by
// delete-and-reinsert").
func (s *Store) UpdateDocuments(rows []model.EmbeddingRow) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	if err := s.DeleteDocuments(ids); err != nil {
		return err
	}
	return s.AddDocuments(rows)
}

// DeleteDocuments removes rows by id, batching the IN (...) clause.
func (s *Store) DeleteDocuments(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", coreerrors.ErrStore, err)
	}
	defer tx.Rollback()

	for start := 0; start < len(ids); start += deleteIDBatch {
		end := start + deleteIDBatch
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		if _, err := sq.Delete("chunks").Where(sq.Eq{"id": batch}).RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("%w: delete chunk batch: %v", coreerrors.ErrStore, err)
		}
		if _, err := sq.Delete("chunks_vec").Where(sq.Eq{"id": batch}).RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("%w: delete vector batch: %v", coreerrors.ErrStore, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit delete: %v", coreerrors.ErrStore, err)
	}
	return nil
}

// DeleteByFile removes every row belonging to path, used on file removal
// and full-reindex of a single file.
func (s *Store) DeleteByFile(path string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", coreerrors.ErrStore, err)
	}
	defer tx.Rollback()

	ids, err := idsForFile(tx, path)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return tx.Commit()
	}

	if _, err := sq.Delete("chunks_vec").Where(sq.Eq{"id": ids}).RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("%w: delete vectors for %s: %v", coreerrors.ErrStore, path, err)
	}
	if _, err := sq.Delete("chunks").Where(sq.Eq{"file": path}).RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("%w: delete rows for %s: %v", coreerrors.ErrStore, path, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit delete-by-file: %v", coreerrors.ErrStore, err)
	}
	return nil
}

func idsForFile(tx *sql.Tx, path string) ([]string, error) {
	rows, err := sq.Select("id").From("chunks").Where(sq.Eq{"file": path}).RunWith(tx).Query()
	if err != nil {
		return nil, fmt.Errorf("%w: list ids for %s: %v", coreerrors.ErrStore, path, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan id: %v", coreerrors.ErrStore, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// List runs a predicate-only scan, returning up to limit rows (0 = no
// limit) in id order for determinism in tests; stored row order itself
// is not observable.
func (s *Store) List(fs FilterSet, limit int) ([]model.EmbeddingRow, []InvalidClause, error) {
	pred, dropped := Compile(fs)

	q := sq.Select(rowColumns...).From("chunks").Where(pred).Where(sq.NotEq{"id": sentinelID}).OrderBy("id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	rows, err := q.RunWith(s.db).Query()
	if err != nil {
		return nil, dropped, fmt.Errorf("%w: list: %v", coreerrors.ErrStore, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, dropped, err
	}
	return out, dropped, nil
}

var rowColumns = []string{
	"id", "content", "content_raw", "file", "start_line", "end_line", "chunk_index",
	"type", "symbol_name", "symbol_type", "complexity", "is_exported", "parent_scope",
	"scope_depth", "has_documentation", "language", "imports", "variant",
	"is_async", "is_static", "is_abstract", "decorators",
}

func scanRows(rows *sql.Rows) ([]model.EmbeddingRow, error) {
	var out []model.EmbeddingRow
	for rows.Next() {
		var r model.EmbeddingRow
		if err := rows.Scan(
			&r.ID, &r.Content, &r.ContentRaw, &r.File, &r.StartLine, &r.EndLine, &r.ChunkIndex,
			&r.Type, &r.SymbolName, &r.SymbolType, &r.Complexity, &r.IsExported, &r.ParentScope,
			&r.ScopeDepth, &r.HasDocumentation, &r.Language, &r.Imports, &r.Variant,
			&r.IsAsync, &r.IsStatic, &r.IsAbstract, &r.Decorators,
		); err != nil {
			return nil, fmt.Errorf("%w: scan row: %v", coreerrors.ErrStore, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
