package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codesearch/hybrid-search/internal/coreerrors"
	"github.com/codesearch/hybrid-search/internal/fingerprint"
)

// Stats reports the embedding table's row count.
type Stats struct {
	Count int
}

// GetStats counts stored rows, excluding the sentinel.
func (s *Store) GetStats() (Stats, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks WHERE id != ?`, sentinelID).Scan(&count)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: count rows: %v", coreerrors.ErrStore, err)
	}
	return Stats{Count: count}, nil
}

// GetMostRecentIndexedProject scans every project's sidecar under dataDir
// and returns the absolute root with the newest updatedAt.
// Returns "" if no project has been indexed yet.
func GetMostRecentIndexedProject(dataDir string) (string, error) {
	entries, err := os.ReadDir(dataDir)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: list data dir: %v", coreerrors.ErrStore, err)
	}

	var bestRoot, bestUpdatedAt string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sidecarPath := filepath.Join(dataDir, entry.Name(), fingerprint.SidecarFileName)
		data, err := os.ReadFile(sidecarPath)
		if err != nil {
			continue
		}
		var meta struct {
			Root      string `json:"root"`
			UpdatedAt string `json:"updatedAt"`
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		if meta.UpdatedAt > bestUpdatedAt {
			bestUpdatedAt = meta.UpdatedAt
			bestRoot = meta.Root
		}
	}
	return bestRoot, nil
}
