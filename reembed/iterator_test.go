package reembed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/newsroom/core"
	"github.com/poiesic/newsroom/storage"
	"github.com/poiesic/newsroom/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (storage.ArticleRepository, storage.VectorRepository, func()) {
	mem, err := badger.OpenMemory()
	require.NoError(t, err)
	return mem.Articles, mem.Vectors, func() { mem.Close() }
}

// addTestBatch stores a batch of count articles with distinct titles.
func addTestBatch(t *testing.T, repo storage.ArticleRepository, count int) *core.Batch {
	articles := make([]*core.Article, count)
	for i := range articles {
		article := core.Article{
			Title:   fmt.Sprintf("story %d", i),
			Link:    fmt.Sprintf("https://news.example.com/%d", i),
			Summary: "summary",
		}.WithDefaults()
		articles[i] = &article
	}

	batch, err := repo.AddBatch(context.Background(), &core.Batch{FetchedAt: time.Now(), Origin: "test"}, articles)
	require.NoError(t, err)
	return batch
}

// chunkSizes collects the size of every chunk handed out for batch.
func chunkSizes(t *testing.T, iter *ArticleIterator, batch *core.Batch) []int {
	t.Helper()
	var sizes []int
	require.NoError(t, iter.ForEach(context.Background(), batch.Id, func(articles []*core.Article) error {
		sizes = append(sizes, len(articles))
		return nil
	}))
	return sizes
}

func TestArticleIterator_Order(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	batch := addTestBatch(t, repo, 3)

	var titles []string
	err := NewArticleIterator(repo, 2).ForEach(context.Background(), batch.Id, func(articles []*core.Article) error {
		for _, a := range articles {
			titles = append(titles, a.Title)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"story 0", "story 1", "story 2"}, titles)
}

func TestArticleIterator_Chunks(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	batch := addTestBatch(t, repo, 10)

	tests := []struct {
		size int
		want []int
	}{
		{1, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}},
		{3, []int{3, 3, 3, 1}},
		{5, []int{5, 5}},
		{10, []int{10}},
		{100, []int{10}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, chunkSizes(t, NewArticleIterator(repo, tt.size), batch), "size %d", tt.size)
	}
}

func TestArticleIterator_EmptyBatch(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	batch := addTestBatch(t, repo, 0)
	assert.Empty(t, chunkSizes(t, NewArticleIterator(repo, 10), batch))
}

func TestArticleIterator_UnknownBatch(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	err := NewArticleIterator(repo, 10).ForEach(context.Background(), core.ID(404), func([]*core.Article) error {
		return nil
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestArticleIterator_StopsOnError(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	batch := addTestBatch(t, repo, 2)

	calls := 0
	err := NewArticleIterator(repo, 1).ForEach(context.Background(), batch.Id, func([]*core.Article) error {
		calls++
		return assert.AnError
	})
	assert.Same(t, assert.AnError, err)
	assert.Equal(t, 1, calls)
}

func TestArticleIterator_StopsOnCancel(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	batch := addTestBatch(t, repo, 5)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := NewArticleIterator(repo, 1).ForEach(ctx, batch.Id, func([]*core.Article) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestArticleIterator_CancelledBeforeStart(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	batch := addTestBatch(t, repo, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewArticleIterator(repo, 1).ForEach(ctx, batch.Id, func([]*core.Article) error {
		t.Fatal("no chunk expected")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewArticleIterator_DefaultSize(t *testing.T) {
	for _, size := range []int{0, -10} {
		assert.Equal(t, DefaultBatchSize, NewArticleIterator(nil, size).batchSize)
	}
}
