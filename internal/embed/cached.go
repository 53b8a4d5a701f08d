package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the embedding LRU. At 384 dims x 4 bytes x 1024
// entries this is under 2 MB.
const DefaultCacheSize = 1024

// CachedProvider wraps a Provider with an in-memory LRU so repeated texts
// (query re-runs, unchanged chunks re-flushed after a partial batch
// failure) skip the model entirely. Keys include the embed mode: BGE
// prefixes queries, so the same text embeds differently per mode.
type CachedProvider struct {
	inner Provider
	model string
	cache *lru.Cache[string, []float32]
}

// NewCachedProvider wraps inner. model participates in the cache key so a
// handle reused across a model switch can never serve stale vectors.
// size <= 0 selects DefaultCacheSize.
func NewCachedProvider(inner Provider, model string, size int) *CachedProvider {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](size)
	return &CachedProvider{inner: inner, model: model, cache: cache}
}

func (c *CachedProvider) key(text string, mode EmbedMode) string {
	sum := sha256.Sum256([]byte(string(mode) + "\x00" + c.model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Embed serves cached vectors where possible and forwards only the misses
// to the inner provider, preserving input order.
func (c *CachedProvider) Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if vec, ok := c.cache.Get(c.key(text, mode)); ok {
			results[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return results, nil
	}

	fresh, err := c.inner.Embed(ctx, missTexts, mode)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		results[i] = fresh[j]
		c.cache.Add(c.key(texts[i], mode), fresh[j])
	}
	return results, nil
}

func (c *CachedProvider) Dimensions() int { return c.inner.Dimensions() }

func (c *CachedProvider) Close() error { return c.inner.Close() }
