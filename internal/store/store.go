package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"

	"github.com/codesearch/hybrid-search/internal/coreerrors"
	"github.com/codesearch/hybrid-search/internal/fingerprint"
)

// Store is the per-project vector table. Every operation is
// scoped to the single SQLite file it wraps. No handle cache sits in front
// of it: the indexer and the CLI each open their own with OpenOrCreate.
type Store struct {
	db         *sql.DB
	dimensions int
	path       string
}

// OpenOrCreate opens the project's embedding table under
// <dataDir>/<project-hash>/chunks.db, creating the schema if absent. If an
// existing table's dimension disagrees with expectedDim, it fails with
// coreerrors.ErrDimensionMismatch instructing a full reindex rather than
// silently truncating or padding vectors.
func OpenOrCreate(dataDir, projectRoot string, expectedDim int) (*Store, error) {
	dir := filepath.Join(dataDir, fingerprint.ProjectHash(projectRoot))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create project data dir: %v", coreerrors.ErrStore, err)
	}
	dbPath := filepath.Join(dir, "chunks.db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", coreerrors.ErrStore, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enable WAL: %v", coreerrors.ErrStore, err)
	}

	existing, err := existingDimensions(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", coreerrors.ErrStore, err)
	}

	if existing == 0 {
		if err := createSchema(db, expectedDim); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %v", coreerrors.ErrStore, err)
		}
	} else if existing != expectedDim {
		db.Close()
		return nil, fmt.Errorf("%w: stored dimension %d, expected %d", coreerrors.ErrDimensionMismatch, existing, expectedDim)
	}

	return &Store{db: db, dimensions: expectedDim, path: dbPath}, nil
}

// Dimensions reports the vector width this store was opened with.
func (s *Store) Dimensions() int { return s.dimensions }

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close database: %v", coreerrors.ErrStore, err)
	}
	return nil
}

// HasCollection reports whether the embedding table has ever been created
// for this project (it always has once OpenOrCreate succeeds; this exists
// for the rare caller that wants to check without opening one).
func HasCollection(dataDir, projectRoot string) bool {
	dbPath := filepath.Join(dataDir, fingerprint.ProjectHash(projectRoot), "chunks.db")
	_, err := os.Stat(dbPath)
	return err == nil
}

// DeleteCollection drops the project's embedding table entirely, used
// before a full reindex.
func DeleteCollection(dataDir, projectRoot string) error {
	dbPath := filepath.Join(dataDir, fingerprint.ProjectHash(projectRoot), "chunks.db")
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: remove %s: %v", coreerrors.ErrStore, dbPath+suffix, err)
		}
	}
	return nil
}

func (s *Store) squirrel() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question).RunWith(s.db)
}
