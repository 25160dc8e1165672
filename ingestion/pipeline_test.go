package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/newsroom/ai/mock"
	"github.com/poiesic/newsroom/core"
	"github.com/poiesic/newsroom/storage"
	"github.com/poiesic/newsroom/storage/badger"
	"github.com/poiesic/newsroom/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFetcher implements Fetcher for testing
type testFetcher struct {
	mu       sync.Mutex
	articles map[string][]core.Article // by feed URL
	failures map[string]int            // failures before success, -1 = always
	calls    map[string]int
}

func newTestFetcher() *testFetcher {
	return &testFetcher{
		articles: make(map[string][]core.Article),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

func (f *testFetcher) Fetch(ctx context.Context, feed Feed) ([]*core.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[feed.URL]++
	if n := f.failures[feed.URL]; n < 0 || f.calls[feed.URL] <= n {
		return nil, fmt.Errorf("%w: %s", ErrFeedUnavailable, feed.URL)
	}

	// Fresh copies: the pipeline fills FullContent in place
	result := make([]*core.Article, len(f.articles[feed.URL]))
	for i, a := range f.articles[feed.URL] {
		article := a
		result[i] = &article
	}
	return result, nil
}

func (f *testFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// testExtractor implements ContentExtractor for testing
type testExtractor struct{}

func (testExtractor) Extract(ctx context.Context, link string) string {
	return "content of " + link
}

func setupTestRepositories(t *testing.T) (storage.ArticleRepository, storage.VectorRepository, func()) {
	backend, err := badger.OpenBackend(t.TempDir(), false)
	require.NoError(t, err)

	articleRepo, err := badger.NewArticleRepository(backend)
	require.NoError(t, err)

	vectorRepo := badger.NewVectorRepository(backend)

	cleanup := func() {
		vectorRepo.Close()
		articleRepo.Close()
		backend.Close()
	}

	return articleRepo, vectorRepo, cleanup
}

var (
	feedA = Feed{Name: "ndtv", URL: "https://feeds.example.com/ndtv"}
	feedB = Feed{Name: "hindu", URL: "https://feeds.example.com/hindu"}
)

func seededFetcher() *testFetcher {
	f := newTestFetcher()
	f.articles[feedA.URL] = []core.Article{
		{Title: "Monsoon reaches Kerala", Link: "https://ndtv.example.com/1", Source: "NDTV"},
		{Title: "Markets close higher", Link: "https://ndtv.example.com/2", Source: "NDTV"},
	}
	f.articles[feedB.URL] = []core.Article{
		{Title: "Parliament session opens", Link: "https://hindu.example.com/1", Author: "Staff"},
	}
	return f
}

func newTestPipeline(t *testing.T, repo storage.ArticleRepository, fetcher Fetcher, opts ...Option) *Pipeline {
	base := []Option{
		WithFetcher(fetcher),
		WithContentExtractor(testExtractor{}),
		WithRetry(1, time.Millisecond),
	}
	pipeline, err := NewPipeline(repo, []Feed{feedA, feedB}, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)
	return pipeline
}

func TestNewPipeline(t *testing.T) {
	repo, _, cleanup := setupTestRepositories(t)
	defer cleanup()

	t.Run("valid pipeline", func(t *testing.T) {
		pipeline, err := NewPipeline(repo, []Feed{feedA})
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		defer pipeline.Release()

		assert.NotNil(t, pipeline.repo)
		assert.NotNil(t, pipeline.fetchPool)
		assert.NotNil(t, pipeline.processPool)
		assert.IsType(t, &FeedFetcher{}, pipeline.fetcher)
		assert.IsType(t, &HTMLExtractor{}, pipeline.extractor)
		assert.Empty(t, pipeline.processors, "warmup is opt-in")
		assert.Equal(t, []Feed{feedA}, pipeline.Feeds())
	})

	t.Run("nil article repository", func(t *testing.T) {
		_, err := NewPipeline(nil, []Feed{feedA})
		assert.Equal(t, ErrArticleRepositoryRequired, err)
	})
}

func TestPipeline_WithOptions(t *testing.T) {
	repo, vectors, cleanup := setupTestRepositories(t)
	defer cleanup()

	t.Run("with pool size", func(t *testing.T) {
		pipeline, err := NewPipeline(repo, nil, WithPoolSize(4))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, 4, pipeline.fetchPool.Cap())
	})

	t.Run("with pool size zero defaults to 1", func(t *testing.T) {
		pipeline, err := NewPipeline(repo, nil, WithPoolSize(0))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, 1, pipeline.fetchPool.Cap())
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		pipeline, err := NewPipeline(repo, nil, WithLogger(nil))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.NotNil(t, pipeline.logger)
	})

	t.Run("with invalid retry", func(t *testing.T) {
		_, err := NewPipeline(repo, nil, WithRetry(0, time.Second))
		assert.Error(t, err)
	})

	t.Run("with embedding warmup", func(t *testing.T) {
		pipeline, err := NewPipeline(repo, nil, WithEmbeddingWarmup(mock.NewMockProvider(), vectors))
		require.NoError(t, err)
		defer pipeline.Release()

		require.Len(t, pipeline.processors, 1)
		assert.Equal(t, "embeddings", pipeline.processors[0].name())
	})

	t.Run("with warmup but no cache", func(t *testing.T) {
		_, err := NewPipeline(repo, nil, WithEmbeddingWarmup(mock.NewMockProvider(), nil))
		assert.Error(t, err)
	})

	t.Run("with multiple options", func(t *testing.T) {
		logger := slog.Default()
		pipeline, err := NewPipeline(repo, nil, WithPoolSize(2), WithLogger(logger), WithRetry(5, time.Millisecond))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, 5, pipeline.maxAttempts)
		assert.Equal(t, time.Millisecond, pipeline.retryDelay)
	})
}

func TestPipeline_Run(t *testing.T) {
	repo, _, cleanup := setupTestRepositories(t)
	defer cleanup()
	ctx := context.Background()

	articleStore, err := store.New(repo)
	require.NoError(t, err)

	pipeline := newTestPipeline(t, repo, seededFetcher(), WithRefresher(articleStore))

	batch, err := pipeline.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, batch)

	assert.Equal(t, 3, batch.ArticleCount)
	assert.Equal(t, "ndtv,hindu", batch.Origin)

	stored, err := repo.GetArticles(ctx, batch.Id)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	// Feed order is kept
	assert.Equal(t, "Monsoon reaches Kerala", stored[0].Title)
	assert.Equal(t, "Markets close higher", stored[1].Title)
	assert.Equal(t, "Parliament session opens", stored[2].Title)

	// Content extracted and placeholders applied
	assert.Equal(t, "content of https://ndtv.example.com/1", stored[0].FullContent)
	assert.Equal(t, core.UnknownAuthor, stored[0].Author)
	assert.Equal(t, core.UnknownSource, stored[2].Source)
	assert.Equal(t, core.NoPublishedDate, stored[2].PublishedDate)
	for _, a := range stored {
		assert.NoError(t, core.ValidateArticle(a))
	}

	// Store was refreshed
	snap := articleStore.Current()
	require.NotNil(t, snap)
	assert.Equal(t, batch.Id, snap.Batch.Id)
	assert.Len(t, snap.Articles, 3)
}

func TestPipeline_Run_NoFeeds(t *testing.T) {
	repo, _, cleanup := setupTestRepositories(t)
	defer cleanup()

	pipeline, err := NewPipeline(repo, nil)
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoFeeds)
}

func TestPipeline_Run_FailingFeedSkipped(t *testing.T) {
	repo, _, cleanup := setupTestRepositories(t)
	defer cleanup()

	fetcher := seededFetcher()
	fetcher.failures[feedA.URL] = -1

	pipeline := newTestPipeline(t, repo, fetcher)

	batch, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, batch.ArticleCount)

	stored, err := repo.GetArticles(context.Background(), batch.Id)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Parliament session opens", stored[0].Title)
}

func TestPipeline_Run_AllFeedsFail(t *testing.T) {
	repo, _, cleanup := setupTestRepositories(t)
	defer cleanup()

	fetcher := seededFetcher()
	fetcher.failures[feedA.URL] = -1
	fetcher.failures[feedB.URL] = -1

	pipeline := newTestPipeline(t, repo, fetcher)

	_, err := pipeline.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllFeedsFailed)
	assert.ErrorIs(t, err, ErrFeedUnavailable)

	_, err = repo.LatestBatch(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound, "no batch should be written")
}

func TestPipeline_Run_RetriesFeed(t *testing.T) {
	repo, _, cleanup := setupTestRepositories(t)
	defer cleanup()

	fetcher := seededFetcher()
	fetcher.failures[feedA.URL] = 2

	pipeline := newTestPipeline(t, repo, fetcher, WithRetry(3, time.Millisecond))

	batch, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, batch.ArticleCount)
	assert.Equal(t, 3, fetcher.callCount(feedA.URL))
	assert.Equal(t, 1, fetcher.callCount(feedB.URL))
}

func TestPipeline_Run_Canceled(t *testing.T) {
	repo, _, cleanup := setupTestRepositories(t)
	defer cleanup()

	pipeline := newTestPipeline(t, repo, seededFetcher())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_Run_WarmsEmbeddings(t *testing.T) {
	repo, vectors, cleanup := setupTestRepositories(t)
	defer cleanup()

	embedder := mock.NewMockEmbedder()
	provider := mock.NewMockProviderWithEmbedder(embedder)

	pipeline := newTestPipeline(t, repo, seededFetcher(), WithEmbeddingWarmup(provider, vectors))

	_, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	pipeline.Wait()

	count, err := vectors.CountVectors(context.Background(), provider.Model())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 3, embedder.TextCount())
}

func TestPipeline_Run_WarmupFailureDoesNotFailRun(t *testing.T) {
	repo, vectors, cleanup := setupTestRepositories(t)
	defer cleanup()

	embedder := mock.NewMockEmbedder().WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedder error")
	})
	provider := mock.NewMockProviderWithEmbedder(embedder)

	pipeline := newTestPipeline(t, repo, seededFetcher(), WithEmbeddingWarmup(provider, vectors))

	batch, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, batch)
	pipeline.Wait()

	count, err := vectors.CountVectors(context.Background(), provider.Model())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPipeline_Store_RejectsInvalidArticle(t *testing.T) {
	repo, _, cleanup := setupTestRepositories(t)
	defer cleanup()

	pipeline := newTestPipeline(t, repo, newTestFetcher())
	articles := []*core.Article{{Title: "Monsoon arrives"}, nil}

	batch, err := pipeline.store(context.Background(), &core.Batch{Origin: "test"}, articles)
	assert.ErrorIs(t, err, core.ErrInvalidArticle)
	assert.Nil(t, batch)

	_, err = repo.LatestBatch(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound, "no batch is written")
}

func TestPipeline_StopEndsWarmup(t *testing.T) {
	tests := []struct {
		name string
		stop func(p *Pipeline, cancel context.CancelFunc)
	}{
		{"stop", func(p *Pipeline, _ context.CancelFunc) { p.Stop() }},
		{"release", func(p *Pipeline, _ context.CancelFunc) { p.Release() }},
		{"parent canceled", func(_ *Pipeline, cancel context.CancelFunc) { cancel() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, vectors, cleanup := setupTestRepositories(t)
			defer cleanup()

			started := make(chan struct{})
			var once sync.Once
			embedder := mock.NewMockEmbedder().WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
				once.Do(func() { close(started) })
				<-ctx.Done()
				return nil, ctx.Err()
			})
			provider := mock.NewMockProviderWithEmbedder(embedder)

			parent, cancel := context.WithCancel(context.Background())
			defer cancel()
			pipeline := newTestPipeline(t, repo, seededFetcher(), WithContext(parent), WithEmbeddingWarmup(provider, vectors))

			_, err := pipeline.Run(context.Background())
			require.NoError(t, err)
			select {
			case <-started:
			case <-time.After(5 * time.Second):
				t.Fatal("warmup never started")
			}

			tt.stop(pipeline, cancel)

			done := make(chan struct{})
			go func() {
				pipeline.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("Wait blocked after the pipeline was stopped")
			}
		})
	}
}

func TestPipeline_Prune(t *testing.T) {
	repo, _, cleanup := setupTestRepositories(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	pipeline := newTestPipeline(t, repo, seededFetcher())
	pipeline.now = func() time.Time { return now }

	for _, age := range []time.Duration{72 * time.Hour, 48 * time.Hour, time.Hour} {
		_, err := repo.AddBatch(ctx, &core.Batch{FetchedAt: now.Add(-age)}, nil)
		require.NoError(t, err)
	}

	deleted, err := pipeline.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, deleted, "zero retention keeps everything")

	deleted, err = pipeline.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	batches, err := repo.ListBatches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.True(t, now.Add(-time.Hour).Equal(batches[0].FetchedAt))
}

func TestPipeline_Release(t *testing.T) {
	repo, _, cleanup := setupTestRepositories(t)
	defer cleanup()

	pipeline, err := NewPipeline(repo, []Feed{feedA})
	require.NoError(t, err)

	// Release should not panic
	pipeline.Release()

	// Multiple releases should not panic
	pipeline.Release()
}
