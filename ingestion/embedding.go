package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/newsroom/ai"
	"github.com/poiesic/newsroom/core"
	"github.com/poiesic/newsroom/reembed"
	"github.com/poiesic/newsroom/storage"
)

// embeddingProcessor embeds the articles of a new batch so that clustered
// searches find their vectors in the cache.
type embeddingProcessor struct {
	reembedder *reembed.Reembedder
	logger     *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(repo storage.ArticleRepository, provider ai.AIProvider, cache ai.VectorCache, logger *slog.Logger) (processor, error) {
	if repo == nil {
		return nil, ErrArticleRepositoryRequired
	}
	if provider == nil {
		return nil, fmt.Errorf("AI provider required")
	}
	if cache == nil {
		return nil, fmt.Errorf("vector cache required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	config := reembed.DefaultConfig()
	config.SkipCached = true

	return &embeddingProcessor{
		reembedder: reembed.NewReembedder(repo, cache, provider.Embedder(), provider.Model(), config, nil),
		logger:     logger.With("processor", "embeddings"),
	}, nil
}

func (ep *embeddingProcessor) name() string {
	return "embeddings"
}

// process embeds the batch's articles that are not cached yet.
func (ep *embeddingProcessor) process(ctx context.Context, batch *core.Batch) error {
	ep.logger.Info("warming embeddings", "batch", batch.Name(), "articles", batch.ArticleCount)

	if err := ep.reembedder.RunBatch(ctx, batch.Id); err != nil {
		ep.logger.Error("error generating embeddings", "batch", batch.Name(), "err", err)
		return err
	}
	return nil
}
