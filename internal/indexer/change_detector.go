package indexer

import "github.com/codesearch/hybrid-search/internal/model"

// classify picks the incremental action for one file from its prior and
// current fingerprints.
// prior is the sidecar's record for this path from the last index; ok is
// false if the path is new. current is this pass's freshly computed
// record, with size, mtime, content hash and ChunkHashes all filled in.
func classify(prior model.FileRecord, ok bool, current model.FileRecord, empty bool) Action {
	if empty {
		return ActionDelete
	}
	if !ok {
		return ActionFullReindex
	}
	if prior.Size == current.Size && prior.MtimeMs == current.MtimeMs {
		return ActionSkip
	}
	if prior.ContentHash == current.ContentHash {
		return ActionSkip
	}
	if len(prior.ChunkHashes) == len(current.ChunkHashes) {
		return ActionPartialUpdate
	}
	return ActionFullReindex
}

// diffChunkHashes returns the indices where prior and current chunk hashes
// disagree, for the partial_update path's "update only the differing
// indices".
func diffChunkHashes(prior, current []string) []int {
	var changed []int
	for i, h := range current {
		if i >= len(prior) || prior[i] != h {
			changed = append(changed, i)
		}
	}
	return changed
}
