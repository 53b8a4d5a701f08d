package indexer

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/codesearch/hybrid-search/internal/chunker"
	"github.com/codesearch/hybrid-search/internal/coreerrors"
	"github.com/codesearch/hybrid-search/internal/embed"
	"github.com/codesearch/hybrid-search/internal/fingerprint"
	"github.com/codesearch/hybrid-search/internal/model"
	"github.com/codesearch/hybrid-search/internal/parsers"
	"github.com/codesearch/hybrid-search/internal/store"
)

// Indexer owns one project's chunker, parser registry, embeddings
// provider, vector store, and sidecar, and implements the six operations
// the engine exposes: IndexFull, IndexIncremental, UpdateFile,
// RemoveFile, Verify, Stats.
type Indexer struct {
	cfg      Config
	registry *parsers.Registry
	chunker  *chunker.Chunker
	provider embed.Provider
	store    *store.Store
	sidecar  *fingerprint.Sidecar
	bus      *Bus
	key      model.EmbeddingsKey
}

// New opens (creating if absent) the project's vector store and sidecar
// and returns an Indexer ready to run. provider's {Provider name, Model,
// Dimensions} together form the index compatibility key.
func New(cfg Config, providerName, modelName string, provider embed.Provider, bus *Bus) (*Indexer, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 256
	}
	if bus == nil {
		bus = NewBus()
	}

	key := model.EmbeddingsKey{Provider: providerName, Model: modelName, Dimension: provider.Dimensions()}

	sc, err := fingerprint.Open(cfg.DataDir, cfg.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: open sidecar: %v", coreerrors.ErrStore, err)
	}

	meta, err := sc.Load()
	if err != nil {
		return nil, err
	}

	st, err := openOrRebuild(cfg, meta, key)
	if err != nil {
		return nil, err
	}

	registry := parsers.NewRegistry()
	ck := chunker.New(registry, chunker.DefaultOptions())

	return &Indexer{
		cfg:      cfg,
		registry: registry,
		chunker:  ck,
		provider: provider,
		store:    st,
		sidecar:  sc,
		bus:      bus,
		key:      key,
	}, nil
}

// openOrRebuild opens the store at the current compatibility key, dropping
// any stale collection from a prior key first.
func openOrRebuild(cfg Config, meta model.IndexMeta, key model.EmbeddingsKey) (*store.Store, error) {
	if meta.Version != 0 && !meta.Embeddings.Equal(key) {
		_ = store.DeleteCollection(cfg.DataDir, cfg.ProjectRoot)
	}
	return store.OpenOrCreate(cfg.DataDir, cfg.ProjectRoot, key.Dimension)
}

// Close releases the provider and store handles.
func (idx *Indexer) Close() error {
	var firstErr error
	if err := idx.store.Close(); err != nil {
		firstErr = err
	}
	if err := idx.provider.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Bus exposes the progress publisher so callers can Subscribe before
// calling IndexFull/IndexIncremental.
func (idx *Indexer) Bus() *Bus { return idx.bus }

// IndexFull rebuilds from nothing: drop the collection
// and sidecar, enumerate, prepare with bounded concurrency, flush in
// embedding batches, and write a fresh sidecar.
func (idx *Indexer) IndexFull(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	if err := store.DeleteCollection(idx.cfg.DataDir, idx.cfg.ProjectRoot); err != nil {
		log.Printf("warning: drop collection before full index: %v", err)
	}
	st, err := store.OpenOrCreate(idx.cfg.DataDir, idx.cfg.ProjectRoot, idx.key.Dimension)
	if err != nil {
		return Result{RunID: runID, Mode: ModeFull}, err
	}
	idx.store = st

	idx.bus.Publish(Event{RunID: runID, Phase: PhaseScanning})
	d, err := newDiscovery(idx.cfg)
	if err != nil {
		return Result{RunID: runID, Mode: ModeFull}, err
	}
	relPaths, err := d.walk()
	if err != nil {
		return Result{RunID: runID, Mode: ModeFull}, fmt.Errorf("%w: enumerate files: %v", coreerrors.ErrStore, err)
	}

	idx.bus.Publish(Event{RunID: runID, Phase: PhaseIndexing, Total: len(relPaths)})

	result := Result{RunID: runID, Mode: ModeFull}
	files := make(map[string]model.FileRecord, len(relPaths))

	flusher := newBatchFlusher(idx)
	processed := 0
	for i := 0; i < len(relPaths); i += idx.cfg.Workers {
		select {
		case <-ctx.Done():
			return result, coreerrors.ErrCancelled
		default:
		}

		end := i + idx.cfg.Workers
		if end > len(relPaths) {
			end = len(relPaths)
		}
		batchPaths := relPaths[i:end]

		prepped, err := idx.prepareAll(ctx, batchPaths)
		if err != nil {
			return result, coreerrors.ErrCancelled
		}

		for _, p := range prepped {
			if p.err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: %w", p.relPath, p.err))
				idx.bus.Publish(Event{RunID: runID, Phase: PhaseError, File: p.relPath, Message: p.err.Error()})
				continue
			}
			files[p.relPath] = p.record
			if err := flusher.add(ctx, p.relPath, p.chunks); err != nil {
				return result, err
			}
			result.Files++
			processed++
			idx.bus.Publish(Event{RunID: runID, Phase: PhaseIndexing, Current: processed, Total: len(relPaths), File: p.relPath})
		}
	}
	if err := flusher.flushRemaining(ctx); err != nil {
		return result, err
	}

	meta := model.IndexMeta{Version: fingerprint.SidecarVersion, Root: idx.cfg.ProjectRoot, Embeddings: idx.key, Files: files}
	if err := idx.sidecar.Save(meta); err != nil {
		return result, err
	}

	idx.bus.Publish(Event{RunID: runID, Phase: PhaseComplete})
	return result, nil
}

// IndexIncremental brings the store up to date with minimum work, including the
// transparent promotion to a full rebuild on a compatibility-key change.
func (idx *Indexer) IndexIncremental(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	prior, err := idx.sidecar.Load()
	if err != nil {
		return Result{RunID: runID, Mode: ModeIncremental}, err
	}
	if prior.Version != 0 && len(prior.Files) > 0 && !prior.Embeddings.Equal(idx.key) {
		return idx.IndexFull(ctx)
	}

	idx.bus.Publish(Event{RunID: runID, Phase: PhaseScanning})
	d, err := newDiscovery(idx.cfg)
	if err != nil {
		return Result{RunID: runID, Mode: ModeIncremental}, err
	}
	relPaths, err := d.walk()
	if err != nil {
		return Result{RunID: runID, Mode: ModeIncremental}, fmt.Errorf("%w: enumerate files: %v", coreerrors.ErrStore, err)
	}

	idx.bus.Publish(Event{RunID: runID, Phase: PhaseIndexing, Total: len(relPaths)})

	result := Result{RunID: runID, Mode: ModeIncremental}
	seen := make(map[string]bool, len(relPaths))
	files := make(map[string]model.FileRecord, len(prior.Files))
	for k, v := range prior.Files {
		files[k] = v
	}

	flusher := newBatchFlusher(idx)

	for i, rel := range relPaths {
		select {
		case <-ctx.Done():
			return result, coreerrors.ErrCancelled
		default:
		}
		seen[rel] = true

		priorRecord, ok := prior.Files[rel]
		action, record, chunks, perr := idx.planFile(rel, priorRecord, ok)
		if perr != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", rel, perr))
			idx.bus.Publish(Event{RunID: runID, Phase: PhaseError, File: rel, Message: perr.Error()})
			continue
		}

		switch action {
		case ActionSkip:
			files[rel] = record
			result.Skipped++
		case ActionDelete:
			if err := idx.store.DeleteByFile(rel); err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			delete(files, rel)
			result.Removed++
		case ActionFullReindex:
			if err := idx.store.DeleteByFile(rel); err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			if err := flusher.add(ctx, rel, chunks); err != nil {
				return result, err
			}
			files[rel] = record
			result.Files++
		case ActionPartialUpdate:
			changedIdx := diffChunkHashes(priorRecord.ChunkHashes, record.ChunkHashes)
			var changedIDs []string
			var changedChunks []model.Chunk
			for _, ci := range changedIdx {
				if ci < len(chunks) {
					changedChunks = append(changedChunks, chunks[ci])
					changedIDs = append(changedIDs, chunks[ci].ID())
				}
			}
			if len(changedIDs) > 0 {
				if err := idx.store.DeleteDocuments(changedIDs); err != nil {
					result.Errors = append(result.Errors, err)
					continue
				}
				if err := flusher.add(ctx, rel, changedChunks); err != nil {
					return result, err
				}
			}
			files[rel] = record
			result.Files++
		}

		idx.bus.Publish(Event{RunID: runID, Phase: PhaseIndexing, Current: i + 1, Total: len(relPaths), File: rel})
	}

	if err := flusher.flushRemaining(ctx); err != nil {
		return result, err
	}

	// Files present in the prior sidecar but missing from this pass's
	// enumeration.
	for rel := range prior.Files {
		if seen[rel] {
			continue
		}
		if err := idx.store.DeleteByFile(rel); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		delete(files, rel)
		result.Removed++
	}

	meta := model.IndexMeta{Version: fingerprint.SidecarVersion, Root: idx.cfg.ProjectRoot, Embeddings: idx.key, Files: files}
	if err := idx.sidecar.Save(meta); err != nil {
		return result, err
	}

	idx.bus.Publish(Event{RunID: runID, Phase: PhaseComplete})
	return result, nil
}

// planFile prepares the file in full (read, hash, chunk, regions) and then
// classifies it against the prior record with the stat/hash tiers; the
// chunk pass runs even for a file that is then skipped.
func (idx *Indexer) planFile(relPath string, prior model.FileRecord, priorOK bool) (Action, model.FileRecord, []model.Chunk, error) {
	p := idx.prepareOne(relPath)
	if p.err != nil {
		return "", model.FileRecord{}, nil, p.err
	}

	empty := p.record.Size == 0
	action := classify(prior, priorOK, p.record, empty)
	return action, p.record, p.chunks, nil
}

// UpdateFile re-indexes a single file as if it were the only change in an
// incremental pass: classify against the sidecar, then apply the matching
// action.
func (idx *Indexer) UpdateFile(ctx context.Context, relPath string) error {
	prior, err := idx.sidecar.Load()
	if err != nil {
		return err
	}
	priorRecord, ok := prior.Files[relPath]

	action, record, chunks, err := idx.planFile(relPath, priorRecord, ok)
	if err != nil {
		return err
	}

	flusher := newBatchFlusher(idx)
	switch action {
	case ActionSkip:
		return nil
	case ActionDelete:
		if err := idx.store.DeleteByFile(relPath); err != nil {
			return err
		}
		delete(prior.Files, relPath)
	case ActionFullReindex:
		if err := idx.store.DeleteByFile(relPath); err != nil {
			return err
		}
		if err := flusher.add(ctx, relPath, chunks); err != nil {
			return err
		}
		if err := flusher.flushRemaining(ctx); err != nil {
			return err
		}
		prior.Files[relPath] = record
	case ActionPartialUpdate:
		changedIdx := diffChunkHashes(priorRecord.ChunkHashes, record.ChunkHashes)
		var changedIDs []string
		var changedChunks []model.Chunk
		for _, ci := range changedIdx {
			if ci < len(chunks) {
				changedChunks = append(changedChunks, chunks[ci])
				changedIDs = append(changedIDs, chunks[ci].ID())
			}
		}
		if len(changedIDs) > 0 {
			if err := idx.store.DeleteDocuments(changedIDs); err != nil {
				return err
			}
			if err := flusher.add(ctx, relPath, changedChunks); err != nil {
				return err
			}
			if err := flusher.flushRemaining(ctx); err != nil {
				return err
			}
		}
		prior.Files[relPath] = record
	}

	prior.Embeddings = idx.key
	prior.Root = idx.cfg.ProjectRoot
	return idx.sidecar.Save(prior)
}

// RemoveFile deletes every row for relPath and drops it from the sidecar.
func (idx *Indexer) RemoveFile(ctx context.Context, relPath string) error {
	if err := idx.store.DeleteByFile(relPath); err != nil {
		return err
	}
	meta, err := idx.sidecar.Load()
	if err != nil {
		return err
	}
	delete(meta.Files, relPath)
	meta.Embeddings = idx.key
	meta.Root = idx.cfg.ProjectRoot
	return idx.sidecar.Save(meta)
}

// Verify re-enumerates and rehashes the tree, comparing against the
// sidecar without writing anything.
func (idx *Indexer) Verify(ctx context.Context) (VerifyResult, error) {
	meta, err := idx.sidecar.Load()
	if err != nil {
		return VerifyResult{}, err
	}

	d, err := newDiscovery(idx.cfg)
	if err != nil {
		return VerifyResult{}, err
	}
	relPaths, err := d.walk()
	if err != nil {
		return VerifyResult{}, err
	}

	seen := make(map[string]bool, len(relPaths))
	out := VerifyResult{Embeddings: meta.Embeddings, UpdatedAt: meta.UpdatedAt}

	for _, rel := range relPaths {
		select {
		case <-ctx.Done():
			return out, coreerrors.ErrCancelled
		default:
		}
		seen[rel] = true
		out.Files++

		prior, ok := meta.Files[rel]
		if !ok {
			out.Changed = append(out.Changed, rel)
			continue
		}

		absPath := idx.cfg.ProjectRoot + "/" + rel
		content, err := readFileQuiet(absPath)
		if err != nil {
			out.Missing = append(out.Missing, rel)
			continue
		}
		if fingerprint.Hex(content) != prior.ContentHash {
			out.Changed = append(out.Changed, rel)
		}
	}

	for rel := range meta.Files {
		if !seen[rel] {
			out.Removed = append(out.Removed, rel)
		}
	}

	return out, nil
}

// Stats reports the store's row count alongside the compatibility key.
func (idx *Indexer) Stats() (Stats, error) {
	s, err := idx.store.GetStats()
	if err != nil {
		return Stats{}, err
	}
	meta, err := idx.sidecar.Load()
	if err != nil {
		return Stats{}, err
	}
	return Stats{RowCount: s.Count, Embeddings: idx.key, UpdatedAt: meta.UpdatedAt}, nil
}
