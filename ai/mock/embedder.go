package mock

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/poiesic/newsroom/cluster"
)

// DefaultDimension is the length of generated vectors.
const DefaultDimension = 384

// MockEmbedder is a deterministic ai.Embedder for tests.
// Texts registered with WithVector get that vector; everything else gets a
// unit vector derived from an FNV hash of the text.
type MockEmbedder struct {
	// EmbedTextsFunc replaces the default behavior when set.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension is the generated vector length.
	Dimension int

	mu       sync.Mutex
	fixed    map[string][]float32
	embedded []string

	callCount atomic.Int64
	textCount atomic.Int64
}

// NewMockEmbedder returns a MockEmbedder producing DefaultDimension vectors.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Dimension: DefaultDimension,
		fixed:     make(map[string][]float32),
	}
}

// WithEmbedTextsFunc sets a custom batch function and returns the mock for chaining.
func (m *MockEmbedder) WithEmbedTextsFunc(fn func(ctx context.Context, texts []string) ([][]float32, error)) *MockEmbedder {
	m.EmbedTextsFunc = fn
	return m
}

// WithVector pins the vector returned for text.
func (m *MockEmbedder) WithVector(text string, vector []float32) *MockEmbedder {
	m.mu.Lock()
	m.fixed[text] = vector
	m.mu.Unlock()
	return m
}

// EmbedText embeds one text through EmbedTexts.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts returns one vector per text and records the texts it saw.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)
	m.textCount.Add(int64(len(texts)))

	m.mu.Lock()
	m.embedded = append(m.embedded, texts...)
	m.mu.Unlock()

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, text := range texts {
		if v, ok := m.fixed[text]; ok {
			vectors[i] = v
			continue
		}
		vectors[i] = hashVector(text, m.Dimension)
	}
	return vectors, nil
}

// CallCount returns the number of embedding calls.
func (m *MockEmbedder) CallCount() int {
	return int(m.callCount.Load())
}

// TextCount returns the number of texts embedded across all calls.
func (m *MockEmbedder) TextCount() int {
	return int(m.textCount.Load())
}

// Embedded returns a copy of every text seen, in call order.
func (m *MockEmbedder) Embedded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.embedded...)
}

// Reset zeroes the counters and the recorded texts.
// Pinned vectors and EmbedTextsFunc are kept.
func (m *MockEmbedder) Reset() {
	m.callCount.Store(0)
	m.textCount.Store(0)
	m.mu.Lock()
	m.embedded = nil
	m.mu.Unlock()
}

func hashVector(text string, dim int) []float32 {
	if dim <= 0 {
		dim = DefaultDimension
	}
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := range vector {
		seed = seed*1664525 + 1013904223
		vector[i] = float32(seed%1000)/500 - 1
	}
	return cluster.Normalize(vector)
}
