package ai

import "errors"

var (
	// ErrEmbeddingHostRequired is returned when a Config has no embedding host.
	ErrEmbeddingHostRequired = errors.New("ai config: EmbeddingHost is required")
	// ErrEmbeddingModelRequired is returned when a Config has no embedding model.
	ErrEmbeddingModelRequired = errors.New("ai config: EmbeddingModel is required")
	// ErrEmbeddingFailed wraps failures reported by the embedding service.
	ErrEmbeddingFailed = errors.New("embedding failed")
	// ErrEmbeddingCount is returned when the service answers with the wrong number of vectors.
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)
