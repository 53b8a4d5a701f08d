// Package store implements the vector store and filter compiler:
// a per-project SQLite database holding the embedding table plus a
// sqlite-vec virtual table for approximate nearest-neighbor search.
package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	sqlitevec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlitevec.Auto()
}

// chunksTable holds every scalar column of the embedding row,
// minus the vector itself, which lives in the paired chunks_vec virtual
// table keyed by the same id.
const createChunksTable = `
CREATE TABLE IF NOT EXISTS chunks (
	id                TEXT PRIMARY KEY,
	content           TEXT NOT NULL,
	content_raw       TEXT NOT NULL,
	file              TEXT NOT NULL,
	start_line        INTEGER NOT NULL,
	end_line          INTEGER NOT NULL,
	chunk_index       INTEGER NOT NULL,
	type              TEXT NOT NULL,
	symbol_name       TEXT NOT NULL DEFAULT '',
	symbol_type       TEXT NOT NULL DEFAULT '',
	complexity        INTEGER NOT NULL DEFAULT 0,
	is_exported       INTEGER NOT NULL DEFAULT 0,
	parent_scope      TEXT NOT NULL DEFAULT '',
	scope_depth       INTEGER NOT NULL DEFAULT 0,
	has_documentation INTEGER NOT NULL DEFAULT 0,
	language          TEXT NOT NULL DEFAULT '',
	imports           TEXT NOT NULL DEFAULT '',
	variant           TEXT NOT NULL DEFAULT '',
	is_async          INTEGER NOT NULL DEFAULT 0,
	is_static         INTEGER NOT NULL DEFAULT 0,
	is_abstract       INTEGER NOT NULL DEFAULT 0,
	decorators        TEXT NOT NULL DEFAULT ''
)`

const createFileIndex = `CREATE INDEX IF NOT EXISTS idx_chunks_file ON chunks(file)`
const createSymbolTypeIndex = `CREATE INDEX IF NOT EXISTS idx_chunks_symbol_type ON chunks(symbol_type)`

// createVectorTable builds the sqlite-vec virtual table for dimensions-wide
// float vectors, mirroring the chunks table by primary key. The column is
// declared with distance_metric=cosine so MATCH queries return cosine
// distance rather than vec0's default L2 — relevance is computed as
// 1 - distance downstream and must stay in [0, 1].
func createVectorTable(dimensions int) string {
	return fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS chunks_vec USING vec0(
			id TEXT PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		)`, dimensions)
}

// sentinelID pins the schema: inserted then deleted once per open so a
// freshly-created table always has a concrete row shape to validate
// against.
const sentinelID = "__init__"

func createSchema(db *sql.DB, dimensions int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ddl := range []string{createChunksTable, createFileIndex, createSymbolTypeIndex} {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}

	// vec0 virtual tables must be created outside a transaction.
	if _, err := db.Exec(createVectorTable(dimensions)); err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}

	return pinSentinel(db, dimensions)
}

// pinSentinel inserts and deletes the sentinel row so the vec0 table's
// dimension is exercised once at creation time, catching a dimension typo
// immediately instead of on the first real write.
func pinSentinel(db *sql.DB, dimensions int) error {
	vec := make([]float32, dimensions)
	embBytes, err := sqlitevec.SerializeFloat32(vec)
	if err != nil {
		return fmt.Errorf("serialize sentinel vector: %w", err)
	}

	if _, err := db.Exec(
		`INSERT OR REPLACE INTO chunks (id, content, content_raw, file, start_line, end_line, chunk_index, type) VALUES (?, '', '', '', 0, 0, 0, 'code')`,
		sentinelID,
	); err != nil {
		return fmt.Errorf("insert sentinel row: %w", err)
	}
	if _, err := db.Exec(`DELETE FROM chunks_vec WHERE id = ?`, sentinelID); err != nil {
		return fmt.Errorf("clear sentinel vector: %w", err)
	}
	if _, err := db.Exec(`INSERT INTO chunks_vec (id, embedding) VALUES (?, ?)`, sentinelID, embBytes); err != nil {
		return fmt.Errorf("insert sentinel vector: %w", err)
	}
	if _, err := db.Exec(`DELETE FROM chunks_vec WHERE id = ?`, sentinelID); err != nil {
		return fmt.Errorf("delete sentinel vector: %w", err)
	}
	if _, err := db.Exec(`DELETE FROM chunks WHERE id = ?`, sentinelID); err != nil {
		return fmt.Errorf("delete sentinel row: %w", err)
	}
	return nil
}

// existingDimensions inspects chunks_vec's declared schema to recover the
// dimension an already-created table was built with.
func existingDimensions(db *sql.DB) (int, error) {
	var sqlText string
	err := db.QueryRow(`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'chunks_vec'`).Scan(&sqlText)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("inspect vector table schema: %w", err)
	}
	return parseDimensionFromDDL(sqlText), nil
}

func parseDimensionFromDDL(ddl string) int {
	const marker = "float["
	idx := strings.Index(ddl, marker)
	if idx < 0 {
		return 0
	}
	rest := ddl[idx+len(marker):]
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return 0
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0
	}
	return n
}
