package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/codesearch/hybrid-search/internal/chunker"
	"github.com/codesearch/hybrid-search/internal/fingerprint"
	"github.com/codesearch/hybrid-search/internal/model"
	"github.com/codesearch/hybrid-search/internal/region"
)

// prepareAll runs the prepare phase over relPaths with
// bounded concurrency and no vector-store I/O: stat, read, hash, extract
// regions, chunk. It honors ctx cancellation between files.
func (idx *Indexer) prepareAll(ctx context.Context, relPaths []string) ([]prepared, error) {
	results := make([]prepared, len(relPaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.cfg.Workers)

	for i, rel := range relPaths {
		i, rel := i, rel
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = idx.prepareOne(rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// prepareOne does the CPU-bound work for a single file. Errors are carried
// on the result rather than returned, so one bad file never aborts the
// whole batch.
func (idx *Indexer) prepareOne(relPath string) prepared {
	absPath := filepath.Join(idx.cfg.ProjectRoot, relPath)

	info, err := os.Stat(absPath)
	if err != nil {
		return prepared{relPath: relPath, err: err}
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return prepared{relPath: relPath, err: err}
	}

	chunks, err := idx.chunker.Chunk(content, relPath)
	if err != nil {
		return prepared{relPath: relPath, err: err}
	}
	if len(chunks) > 0 && chunks[0].Kind == model.ChunkKindText {
		chunks = chunker.ApplyOverlap(chunks, idx.chunker.OverlapSize())
	}

	regions := idx.extractRegions(relPath, content)

	chunkHashes := make([]string, len(chunks))
	for i, c := range chunks {
		chunkHashes[i] = fingerprint.HexString(c.Content)
	}

	record := model.FileRecord{
		Path:               relPath,
		Size:               info.Size(),
		MtimeMs:            info.ModTime().UnixMilli(),
		ContentHash:        fingerprint.Hex(content),
		ChunkHashes:        chunkHashes,
		CollapsibleRegions: regions,
	}

	return prepared{relPath: relPath, record: record, chunks: chunks}
}

// extractRegions runs the region extractor for files with a
// registered grammar. It is a second, independent parse from the
// chunker's — region extraction is its own component and
// the chunker does not expose its AST.
func (idx *Indexer) extractRegions(relPath string, content []byte) []model.CollapsibleRegion {
	ext := strings.TrimPrefix(filepath.Ext(relPath), ".")
	if idx.registry == nil || !idx.registry.Supported(ext) {
		return nil
	}
	plugin, err := idx.registry.Get(ext)
	if err != nil {
		return nil
	}
	ast, err := plugin.Parse(content)
	if err != nil {
		return nil
	}
	defer ast.Close()

	lines := strings.Split(string(content), "\n")
	return region.Extract(ast, lines)
}
