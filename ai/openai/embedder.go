package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/newsroom/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultBatchSize is the number of texts sent per embedding request.
const DefaultBatchSize = 64

// Embedder implements ai.Embedder against an OpenAI-compatible /v1/embeddings endpoint.
// Large inputs are split into requests of at most batchSize texts.
type Embedder struct {
	client    embeddings.Embedder
	batchSize int
	logger    *slog.Logger
}

func newEmbedder(config *ai.Config, options *providerOptions) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	batchSize := options.batchSize
	if batchSize == 0 {
		batchSize = config.EmbeddingBatchSize
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	llm, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.EmbeddingToken),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("creating embedding client: %w", err)
	}

	client, err := embeddings.NewEmbedder(llm,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(batchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return &Embedder{
		client:    client,
		batchSize: batchSize,
		logger:    options.logger.With("component", "openai-embedder", "model", config.EmbeddingModel),
	}, nil
}

// NewEmbedder returns an ai.Embedder for the configured model.
func NewEmbedder(config *ai.Config, opts ...Option) (ai.Embedder, error) {
	return newEmbedder(config, applyOptions(opts))
}

// EmbedText embeds a single article text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in order, one vector per input.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		chunk := texts[start:end]

		e.logger.Debug("requesting embeddings", "offset", start, "count", len(chunk))
		got, err := e.client.EmbedDocuments(ctx, chunk)
		if err != nil {
			e.logger.Error("embedding request failed", "offset", start, "count", len(chunk), "err", err)
			return nil, fmt.Errorf("%w: %w", ai.ErrEmbeddingFailed, err)
		}
		if len(got) != len(chunk) {
			return nil, fmt.Errorf("%w: %d vectors for %d texts", ai.ErrEmbeddingCount, len(got), len(chunk))
		}
		vectors = append(vectors, got...)
	}

	return vectors, nil
}
