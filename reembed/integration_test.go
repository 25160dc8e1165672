package reembed

import (
	"bytes"
	"context"
	"testing"

	"github.com/poiesic/newsroom/ai"
	"github.com/poiesic/newsroom/ai/mock"
	"github.com/poiesic/newsroom/ai/openai"
	"github.com/poiesic/newsroom/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_FullRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	repo, vectors, cleanup := setupTestDB(t)
	defer cleanup()
	batch := addTestBatch(t, repo, 50)

	count, err := vectors.CountVectors(ctx, testModel)
	require.NoError(t, err)
	require.Zero(t, count)

	// Vectors differ per position inside a request but all point the same way.
	embedder := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i := range texts {
				scale := float32(i + 1)
				out[i] = []float32{0.1 * scale, 0.2 * scale, 0.3 * scale}
			}
			return out, nil
		},
	}

	var out bytes.Buffer
	require.NoError(t, NewReembedder(repo, vectors, embedder, testModel, fastConfig(10, 10), &out).Run(ctx))

	count, err = vectors.CountVectors(ctx, testModel)
	require.NoError(t, err)
	assert.Equal(t, 50, count)
	for _, article := range articlesOf(t, repo, batch) {
		assertUnit(t, cachedVector(t, vectors, article))
	}

	output := out.String()
	for _, want := range []string{"Starting reembedding of 50 articles", "50/50", "100.0%", "Reembedding complete"} {
		assert.Contains(t, output, want)
	}
}

// TestIntegration_WarmsCachingEmbedder checks that vectors written here are
// served by the caching embedder without calling the model again.
func TestIntegration_WarmsCachingEmbedder(t *testing.T) {
	ctx := context.Background()

	repo, vectors, cleanup := setupTestDB(t)
	defer cleanup()

	batch := addTestBatch(t, repo, 8)

	embedder := mock.NewMockEmbedder()
	provider := mock.NewMockProviderWithEmbedder(embedder)
	defer provider.Close()

	reembedder := NewReembedder(repo, vectors, embedder, provider.Model(), DefaultConfig(), nil)
	require.NoError(t, reembedder.Run(ctx))
	calls := embedder.CallCount()

	articles := articlesOf(t, repo, batch)
	texts := make([]string, len(articles))
	for i, article := range articles {
		texts[i] = article.EmbeddingText()
	}

	caching := ai.NewCachingEmbedder(embedder, vectors, provider.Model())
	got, err := caching.EmbedTexts(ctx, texts)
	require.NoError(t, err)
	assert.Len(t, got, len(texts))
	assert.Equal(t, calls, embedder.CallCount(), "warm cache should not reach the model")
}

// TestIntegration_WithRealEmbedder tests with a real OpenAI-compatible embedder
// This test requires a running embedding service and is skipped by default.
func TestIntegration_WithRealEmbedder(t *testing.T) {
	t.Skip("Requires running embedding service - enable manually for testing")

	ctx := context.Background()

	repo, vectors, cleanup := setupTestDB(t)
	defer cleanup()

	batch := addTestBatch(t, repo, 3)

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost("http://localhost:11434/v1"),
		ai.WithEmbeddingModel("nomic-embed-text"),
	)

	embedder, err := openai.NewEmbedder(aiConfig)
	require.NoError(t, err)

	config := DefaultConfig()
	var buf bytes.Buffer
	reembedder := NewReembedder(repo, vectors, embedder, aiConfig.EmbeddingModel, config, &buf)

	err = reembedder.Run(ctx)
	require.NoError(t, err)

	for _, article := range articlesOf(t, repo, batch) {
		id := core.IDFromContent(article.EmbeddingText())
		found, err := vectors.GetVectors(ctx, aiConfig.EmbeddingModel, id)
		require.NoError(t, err)
		// Real embeddings should have a consistent dimension
		assert.Greater(t, len(found[id]), 0)
	}
}

func TestIntegration_RepeatedRuns(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	repo, vectors, cleanup := setupTestDB(t)
	defer cleanup()
	batch := addTestBatch(t, repo, 10)
	article := articlesOf(t, repo, batch)[0]

	embedder := &mockEmbedder{}
	run := func() []float32 {
		require.NoError(t, NewReembedder(repo, vectors, embedder, testModel, fastConfig(5, 5), nil).Run(ctx))
		return cachedVector(t, vectors, article)
	}

	first := run()
	second := run()
	assert.InDeltaSlice(t, first, second, 0.001)
	assert.Equal(t, 20, embedder.texts, "without SkipCached every run embeds again")

	count, err := vectors.CountVectors(ctx, testModel)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}
