package embed

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider wraps MockProvider, counting how many texts actually
// reach the inner Embed.
type countingProvider struct {
	*MockProvider
	mu    sync.Mutex
	seen  int
	calls int
}

func (p *countingProvider) Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	p.mu.Lock()
	p.seen += len(texts)
	p.calls++
	p.mu.Unlock()
	return p.MockProvider.Embed(ctx, texts, mode)
}

func TestCachedProviderServesRepeatsFromCache(t *testing.T) {
	inner := &countingProvider{MockProvider: NewMockProvider()}
	c := NewCachedProvider(inner, "test-model", 16)
	ctx := context.Background()

	first, err := c.Embed(ctx, []string{"alpha", "beta"}, EmbedModePassage)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 2, inner.seen)

	second, err := c.Embed(ctx, []string{"alpha", "beta"}, EmbedModePassage)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, inner.seen, "a full cache hit must not reach the inner provider")
}

func TestCachedProviderForwardsOnlyMissesInOrder(t *testing.T) {
	inner := &countingProvider{MockProvider: NewMockProvider()}
	c := NewCachedProvider(inner, "test-model", 16)
	ctx := context.Background()

	warm, err := c.Embed(ctx, []string{"alpha"}, EmbedModePassage)
	require.NoError(t, err)

	mixed, err := c.Embed(ctx, []string{"beta", "alpha", "gamma"}, EmbedModePassage)
	require.NoError(t, err)
	require.Len(t, mixed, 3)
	assert.Equal(t, warm[0], mixed[1], "cached entry must land at its input position")
	assert.Equal(t, 3, inner.seen, "only the two misses go to the inner provider")
}

func TestCachedProviderKeysByMode(t *testing.T) {
	inner := &countingProvider{MockProvider: NewMockProvider()}
	c := NewCachedProvider(inner, "test-model", 16)
	ctx := context.Background()

	_, err := c.Embed(ctx, []string{"alpha"}, EmbedModePassage)
	require.NoError(t, err)
	_, err = c.Embed(ctx, []string{"alpha"}, EmbedModeQuery)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.seen, "the same text embeds separately per mode")
}

func TestCachedProviderPropagatesErrorsWithoutCaching(t *testing.T) {
	inner := &countingProvider{MockProvider: NewMockProvider()}
	c := NewCachedProvider(inner, "test-model", 16)
	ctx := context.Background()

	inner.SetEmbedError(errors.New("provider down"))
	_, err := c.Embed(ctx, []string{"alpha"}, EmbedModePassage)
	require.Error(t, err)

	inner.SetEmbedError(nil)
	_, err = c.Embed(ctx, []string{"alpha"}, EmbedModePassage)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.seen, "a failed call must not poison the cache")
}

func TestCachedProviderEvictsBeyondCapacity(t *testing.T) {
	inner := &countingProvider{MockProvider: NewMockProvider()}
	c := NewCachedProvider(inner, "test-model", 2)
	ctx := context.Background()

	_, err := c.Embed(ctx, []string{"a", "b", "c"}, EmbedModePassage)
	require.NoError(t, err)

	// "a" was evicted by capacity 2; re-embedding it is a miss.
	_, err = c.Embed(ctx, []string{"a"}, EmbedModePassage)
	require.NoError(t, err)
	assert.Equal(t, 4, inner.seen)
}

func TestEmbedBatchedSplitsByTextCount(t *testing.T) {
	inner := &countingProvider{MockProvider: NewMockProvider()}
	texts := []string{"one", "two", "three", "four", "five"}

	var progress []BatchProgress
	vectors, err := EmbedBatched(context.Background(), inner, texts, EmbedModePassage, BatchOptions{
		MaxTexts: 2,
		Progress: func(p BatchProgress) { progress = append(progress, p) },
	})
	require.NoError(t, err)
	require.Len(t, vectors, 5)
	assert.Equal(t, 3, inner.calls)
	require.Len(t, progress, 3)
	assert.Equal(t, 5, progress[2].ProcessedTexts)
	assert.Equal(t, 5, progress[2].TotalTexts)

	// Order preserved: batching must equal a single direct call.
	direct, err := inner.MockProvider.Embed(context.Background(), texts, EmbedModePassage)
	require.NoError(t, err)
	assert.Equal(t, direct, vectors)
}

func TestEmbedBatchedSplitsByTokenBudget(t *testing.T) {
	inner := &countingProvider{MockProvider: NewMockProvider()}
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	texts := []string{string(long), string(long), string(long)}

	_, err := EmbedBatched(context.Background(), inner, texts, EmbedModePassage, BatchOptions{
		MaxTexts:  100,
		MaxTokens: CountTokens(string(long)) + 1, // each batch fits exactly one text
	})
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestEmbedBatchedOversizedTextStillEmbeds(t *testing.T) {
	inner := &countingProvider{MockProvider: NewMockProvider()}

	vectors, err := EmbedBatched(context.Background(), inner, []string{"this text alone exceeds the budget"}, EmbedModePassage, BatchOptions{
		MaxTokens: 1,
	})
	require.NoError(t, err)
	assert.Len(t, vectors, 1)
}

func TestEmbedBatchedEmptyInput(t *testing.T) {
	inner := &countingProvider{MockProvider: NewMockProvider()}
	vectors, err := EmbedBatched(context.Background(), inner, nil, EmbedModePassage, BatchOptions{})
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, inner.calls)
}

func TestCountTokensIsPositiveForText(t *testing.T) {
	assert.Greater(t, CountTokens("func add(x, y int) int { return x + y }"), 0)
	assert.Greater(t, CountTokens("hello world"), 1)
}
