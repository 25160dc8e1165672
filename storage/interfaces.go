package storage

import (
	"context"
	"time"

	"github.com/poiesic/newsroom/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	Close() error
}

// ArticleRepository stores ingestion batches and the articles they contain.
type ArticleRepository interface {
	Repository

	// AddBatch stores articles as a new batch.
	// The batch ID is generated from a sequence and ArticleCount is set from
	// len(articles). The batch becomes visible atomically with its articles.
	// Returns the batch with generated fields populated.
	AddBatch(ctx context.Context, batch *core.Batch, articles []*core.Article) (*core.Batch, error)

	// LatestBatch returns the batch with the most recent FetchedAt.
	// Returns ErrNotFound if no batch has been stored.
	LatestBatch(ctx context.Context) (*core.Batch, error)

	// GetBatch retrieves a single batch by ID.
	// Returns ErrNotFound if the batch doesn't exist.
	GetBatch(ctx context.Context, id core.ID) (*core.Batch, error)

	// ListBatches returns up to limit batches, most recent first.
	// A limit <= 0 returns every batch.
	ListBatches(ctx context.Context, limit int) ([]*core.Batch, error)

	// GetArticles returns the articles of a batch in ingestion order.
	// Returns ErrNotFound if the batch doesn't exist.
	GetArticles(ctx context.Context, batchID core.ID) ([]*core.Article, error)

	// DeleteBatchesBefore removes batches fetched strictly before cutoff
	// together with their articles. The latest batch is never removed.
	// Returns the number of batches deleted.
	DeleteBatchesBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// VectorRepository caches embedding vectors keyed by model and content ID.
// It satisfies ai.VectorCache.
type VectorRepository interface {
	Repository

	// GetVectors returns the stored vectors for the given IDs.
	// Missing IDs are absent from the result; no error is returned for them.
	GetVectors(ctx context.Context, model string, ids ...core.ID) (map[core.ID][]float32, error)

	// PutVectors stores vectors under the given model, replacing existing entries.
	PutVectors(ctx context.Context, model string, vectors map[core.ID][]float32) error

	// CountVectors returns the number of vectors stored for a model.
	CountVectors(ctx context.Context, model string) (int, error)
}
