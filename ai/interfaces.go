package ai

import (
	"context"

	"github.com/poiesic/newsroom/core"
)

// Embedder generates vector embeddings from text for semantic similarity.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts,
	// one per input. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Model returns the identifier of the embedding model in use.
	// Vectors from different models are never mixed.
	Model() string

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

// VectorCache stores embeddings keyed by content ID and model.
// Implementations must be thread-safe.
type VectorCache interface {
	// GetVectors returns the cached vectors for the given IDs.
	// Missing IDs are simply absent from the result.
	GetVectors(ctx context.Context, model string, ids ...core.ID) (map[core.ID][]float32, error)

	// PutVectors stores vectors for the given model.
	PutVectors(ctx context.Context, model string, vectors map[core.ID][]float32) error
}
