package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/newsroom/ai"
	"github.com/poiesic/newsroom/cluster"
	"github.com/poiesic/newsroom/core"
)

// BatchProcessor embeds batches of articles and stores the vectors in a cache.
// Vectors are keyed by core.IDFromContent of the article's embedding text, the
// same key ai.CachingEmbedder reads.
type BatchProcessor struct {
	cache          ai.VectorCache
	embedder       ai.Embedder
	model          string
	skipCached     bool
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(cache ai.VectorCache, embedder ai.Embedder, model string, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		cache:          cache,
		embedder:       embedder,
		model:          model,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of articles and writes them to the cache.
// Articles sharing the same text are embedded once. Vectors are normalized
// before they are stored. Returns the number of vectors written.
func (bp *BatchProcessor) Process(ctx context.Context, articles []*core.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	var texts []string
	var ids []core.ID
	seen := make(map[core.ID]struct{}, len(articles))
	for _, article := range articles {
		text := article.EmbeddingText()
		id := core.IDFromContent(text)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		texts = append(texts, text)
		ids = append(ids, id)
	}

	if bp.skipCached {
		cached, err := bp.cache.GetVectors(ctx, bp.model, ids...)
		if err != nil {
			return 0, fmt.Errorf("failed to read cached vectors: %w", err)
		}
		texts, ids = withoutCached(texts, ids, cached)
		if len(texts) == 0 {
			return 0, nil
		}
	}

	// Generate embeddings with retry
	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(texts) {
		return 0, fmt.Errorf("%w: expected %d, got %d", ai.ErrEmbeddingCount, len(texts), len(embeddings))
	}

	vectors := make(map[core.ID][]float32, len(ids))
	for i, id := range ids {
		vectors[id] = cluster.Normalize(embeddings[i])
	}

	if err := bp.cache.PutVectors(ctx, bp.model, vectors); err != nil {
		return 0, fmt.Errorf("failed to store vectors: %w", err)
	}

	return len(vectors), nil
}

func withoutCached(texts []string, ids []core.ID, cached map[core.ID][]float32) ([]string, []core.ID) {
	keptTexts := texts[:0]
	keptIDs := ids[:0]
	for i, id := range ids {
		if _, ok := cached[id]; ok {
			continue
		}
		keptTexts = append(keptTexts, texts[i])
		keptIDs = append(keptIDs, id)
	}
	return keptTexts, keptIDs
}
