package fingerprint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/codesearch/hybrid-search/internal/model"
)

// SidecarFileName is the fixed name of the per-project sidecar document,
// "<data-dir>/<project-hash>/index-meta.json".
const SidecarFileName = "index-meta.json"

// SidecarVersion is the current on-disk sidecar format.
const SidecarVersion = 1

// Sidecar owns the single JSON document mapping path -> FileRecord for one
// project. It is a single-writer resource: the indexer is the
// only writer, guarded here by an advisory file lock so two indexer
// processes on the same project directory never interleave writes.
type Sidecar struct {
	dir  string // "<data-dir>/<project-hash>"
	lock *flock.Flock
}

// Open resolves (and creates, if absent) the project's data directory and
// returns a Sidecar handle bound to it. dataDir is the root data directory
// configured for the process; projectRoot is the absolute path being
// indexed.
func Open(dataDir, projectRoot string) (*Sidecar, error) {
	dir := filepath.Join(dataDir, ProjectHash(projectRoot))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create project data dir: %w", err)
	}
	return &Sidecar{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".sidecar.lock")),
	}, nil
}

// Dir returns the project's data directory, "<data-dir>/<project-hash>".
func (s *Sidecar) Dir() string { return s.dir }

func (s *Sidecar) path() string { return filepath.Join(s.dir, SidecarFileName) }

// Load reads the sidecar document. A missing file is not an error: it
// returns a fresh, empty IndexMeta (first index of this project).
func (s *Sidecar) Load() (model.IndexMeta, error) {
	data, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		return model.IndexMeta{Version: SidecarVersion, Files: map[string]model.FileRecord{}}, nil
	}
	if err != nil {
		return model.IndexMeta{}, fmt.Errorf("read sidecar: %w", err)
	}

	// Decode through a raw map first so unknown fields are preserved on
	// round-trip.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.IndexMeta{}, fmt.Errorf("parse sidecar: %w", err)
	}

	var meta model.IndexMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return model.IndexMeta{}, fmt.Errorf("parse sidecar: %w", err)
	}
	if meta.Files == nil {
		meta.Files = map[string]model.FileRecord{}
	}
	meta.Extra = raw
	return meta, nil
}

// Save writes the sidecar atomically: write to a temp file in the same
// directory, then rename over the final path. It is guarded by an
// advisory flock so concurrent indexer processes serialize their writes.
func (s *Sidecar) Save(meta model.IndexMeta) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock sidecar: %w", err)
	}
	defer s.lock.Unlock()

	meta.Version = SidecarVersion
	meta.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := marshalWithExtra(meta)
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}

	final := s.path()
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write sidecar temp file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename sidecar into place: %w", err)
	}
	return nil
}

// marshalWithExtra re-merges any unknown top-level keys captured at Load
// time before encoding, so a round trip through this process never drops
// fields a newer writer added.
func marshalWithExtra(meta model.IndexMeta) ([]byte, error) {
	body, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, err
	}
	if len(meta.Extra) == 0 {
		return body, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(body, &merged); err != nil {
		return nil, err
	}
	for k, v := range meta.Extra {
		if _, known := merged[k]; !known {
			merged[k] = v
		}
	}
	return json.MarshalIndent(merged, "", "  ")
}
