package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"
)

// MockProvider produces deterministic pseudo-embeddings derived from the
// input text's hash, so tests get stable vectors without any model. It
// also records Close calls and can be primed to fail.
type MockProvider struct {
	mu          sync.Mutex
	dimensions  int
	closeCalled bool
	closeError  error
	embedError  error
}

// NewMockProvider returns a mock with the standard 384-wide vectors.
func NewMockProvider() *MockProvider {
	return &MockProvider{dimensions: 384}
}

func newMockProvider() Provider { return NewMockProvider() }

// SetCloseError primes Close to fail.
func (p *MockProvider) SetCloseError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeError = err
}

// SetEmbedError primes Embed to fail until cleared with nil.
func (p *MockProvider) SetEmbedError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.embedError = err
}

// Embed hashes each text into a normalized vector. The same text always
// maps to the same vector; different texts almost never collide, which is
// all vector-store and search tests need.
func (p *MockProvider) Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.embedError != nil {
		return nil, p.embedError
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		sum := sha256.Sum256([]byte(text))
		vec := make([]float32, p.dimensions)
		for j := range vec {
			off := (j * 4) % len(sum)
			bits := binary.BigEndian.Uint32(sum[off : off+4])
			vec[j] = (float32(bits)/float32(1<<32))*2 - 1
		}
		normalizeInPlace(vec)
		out[i] = vec
	}
	return out, nil
}

func (p *MockProvider) Dimensions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dimensions
}

func (p *MockProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeCalled = true
	return p.closeError
}

// IsClosed reports whether Close has been called.
func (p *MockProvider) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCalled
}
