package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/newsroom/ai"
	"github.com/poiesic/newsroom/core"
	"github.com/poiesic/newsroom/reembed"
	"github.com/poiesic/newsroom/storage"
)

// Refresher is notified after a batch is stored so readers can switch to it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Pipeline orchestrates scraping feeds into article batches.
// It manages concurrent feed fetching, page extraction and post-processing.
type Pipeline struct {
	repo        storage.ArticleRepository
	feeds       []Feed
	fetcher     Fetcher
	extractor   ContentExtractor
	refresher   Refresher
	fetchPool   *ants.Pool
	processPool *ants.Pool
	processors  []processor
	pending     sync.WaitGroup
	parent      context.Context
	lifetime    context.Context
	stop        context.CancelFunc
	provider    ai.AIProvider
	cache       ai.VectorCache
	maxAttempts int
	retryDelay  time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent fetching.
// Default is runtime.NumCPU() * 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.fetchPool != nil {
			p.fetchPool.Release()
		}

		fetchPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.fetchPool = fetchPool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithFetcher replaces the gofeed fetcher.
func WithFetcher(fetcher Fetcher) Option {
	return func(p *Pipeline) error {
		if fetcher != nil {
			p.fetcher = fetcher
		}
		return nil
	}
}

// WithContentExtractor replaces the page extractor.
func WithContentExtractor(extractor ContentExtractor) Option {
	return func(p *Pipeline) error {
		if extractor != nil {
			p.extractor = extractor
		}
		return nil
	}
}

// WithContext bounds background processing of stored batches by ctx.
// Default is context.Background(); Stop and Release end it either way.
func WithContext(ctx context.Context) Option {
	return func(p *Pipeline) error {
		if ctx != nil {
			p.parent = ctx
		}
		return nil
	}
}

// WithRefresher sets the component told about every stored batch.
func WithRefresher(refresher Refresher) Option {
	return func(p *Pipeline) error {
		p.refresher = refresher
		return nil
	}
}

// WithEmbeddingWarmup embeds every stored batch in the background and
// writes the vectors to cache under the provider's model.
func WithEmbeddingWarmup(provider ai.AIProvider, cache ai.VectorCache) Option {
	return func(p *Pipeline) error {
		p.provider = provider
		p.cache = cache
		return nil
	}
}

// WithRetry sets how often a feed is attempted and the base backoff delay.
// Default is 3 attempts starting at 1 second.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return reembed.ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline for feeds.
// A pipeline without feeds can still import files.
func NewPipeline(repo storage.ArticleRepository, feeds []Feed, opts ...Option) (*Pipeline, error) {
	if repo == nil {
		return nil, ErrArticleRepositoryRequired
	}

	// Default pool size; fetching is network bound
	poolSize := runtime.NumCPU() * 2
	if poolSize < 1 {
		poolSize = 1
	}

	fetchPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	processPool, err := ants.NewPool(1)
	if err != nil {
		fetchPool.Release()
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		repo:        repo,
		feeds:       append([]Feed(nil), feeds...),
		fetcher:     NewFeedFetcher(nil),
		extractor:   NewHTMLExtractor(),
		fetchPool:   fetchPool,
		processPool: processPool,
		maxAttempts: 3,
		retryDelay:  time.Second,
		now:         time.Now,
		parent:      context.Background(),
		logger:      slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")
	p.lifetime, p.stop = context.WithCancel(p.parent)

	// Create processors after options are applied (so they get final config)
	if p.provider != nil {
		embeddingProc, err := newEmbeddingProcessor(repo, p.provider, p.cache, p.logger)
		if err != nil {
			p.Release()
			return nil, err
		}
		p.processors = append(p.processors, embeddingProc)
	}

	return p, nil
}

// Feeds returns the configured feeds.
func (p *Pipeline) Feeds() []Feed {
	return append([]Feed(nil), p.feeds...)
}

// Run scrapes every feed, stores the articles as one batch and publishes it.
// A feed that fails after retries is logged and skipped. If every feed fails
// no batch is written and ErrAllFeedsFailed is returned.
func (p *Pipeline) Run(ctx context.Context) (*core.Batch, error) {
	if len(p.feeds) == 0 {
		return nil, ErrNoFeeds
	}

	started := p.now()
	p.logger.Info("ingestion started", "feeds", len(p.feeds))

	articles, err := p.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	p.extractAll(ctx, articles)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := make([]string, len(p.feeds))
	for i, feed := range p.feeds {
		names[i] = feed.Name
	}

	batch, err := p.store(ctx, &core.Batch{FetchedAt: started, Origin: strings.Join(names, ",")}, articles)
	if err != nil {
		return nil, err
	}

	p.logger.Info("ingestion finished",
		"batch", batch.Name(), "articles", batch.ArticleCount, "elapsed", p.now().Sub(started).Round(time.Millisecond))
	return batch, nil
}

// fetchAll fetches every feed on the pool. Articles keep feed order.
func (p *Pipeline) fetchAll(ctx context.Context) ([]*core.Article, error) {
	perFeed := make([][]*core.Article, len(p.feeds))
	errs := make([]error, len(p.feeds))

	var wg sync.WaitGroup
	for i, feed := range p.feeds {
		wg.Add(1)
		err := p.fetchPool.Submit(func() {
			defer wg.Done()
			articles, err := p.fetchFeed(ctx, feed)
			if err != nil {
				errs[i] = err
				p.logger.Warn("skipping feed", "feed", feed.Name, "url", feed.URL, "err", err)
				return
			}
			p.logger.Debug("feed fetched", "feed", feed.Name, "articles", len(articles))
			perFeed[i] = articles
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var articles []*core.Article
	failed := 0
	for i := range p.feeds {
		if errs[i] != nil {
			failed++
			continue
		}
		articles = append(articles, perFeed[i]...)
	}
	if failed == len(p.feeds) {
		return nil, fmt.Errorf("%w: %w", ErrAllFeedsFailed, errors.Join(errs...))
	}
	return articles, nil
}

func (p *Pipeline) fetchFeed(ctx context.Context, feed Feed) ([]*core.Article, error) {
	var articles []*core.Article
	err := reembed.RetryWithBackoff(ctx, func() error {
		var err error
		articles, err = p.fetcher.Fetch(ctx, feed)
		return err
	}, p.maxAttempts, p.retryDelay)
	return articles, err
}

// extractAll fills FullContent of every article on the pool.
func (p *Pipeline) extractAll(ctx context.Context, articles []*core.Article) {
	var wg sync.WaitGroup
	for _, article := range articles {
		wg.Add(1)
		err := p.fetchPool.Submit(func() {
			defer wg.Done()
			article.FullContent = p.extractor.Extract(ctx, article.Link)
		})
		if err != nil {
			wg.Done()
			article.FullContent = extractionErrorPrefix + err.Error()
		}
	}
	wg.Wait()
}

// store applies placeholders, validates, writes the batch, publishes it and
// schedules the post-processors. Nothing is written if any article is invalid.
func (p *Pipeline) store(ctx context.Context, batch *core.Batch, articles []*core.Article) (*core.Batch, error) {
	complete := make([]*core.Article, len(articles))
	for i, article := range articles {
		if article != nil {
			filled := article.WithDefaults()
			article = &filled
		}
		if err := core.ValidateArticle(article); err != nil {
			return nil, fmt.Errorf("article %d: %w", i, err)
		}
		complete[i] = article
	}

	stored, err := p.repo.AddBatch(ctx, batch, complete)
	if err != nil {
		return nil, fmt.Errorf("storing batch: %w", err)
	}

	if p.refresher != nil {
		if err := p.refresher.Refresh(ctx); err != nil {
			return stored, fmt.Errorf("publishing %s: %w", stored.Name(), err)
		}
	}

	p.schedule(stored)
	return stored, nil
}

// Prune deletes batches fetched more than retention ago. The latest batch is
// always kept. A retention of zero or less disables pruning.
func (p *Pipeline) Prune(ctx context.Context, retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, nil
	}
	deleted, err := p.repo.DeleteBatchesBefore(ctx, p.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		p.logger.Info("pruned old batches", "deleted", deleted, "retention", retention)
	}
	return deleted, nil
}

// Wait blocks until background processing of stored batches has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Stop cancels background processing of stored batches. Work already
// running sees its context end; Wait still returns only once it has.
func (p *Pipeline) Stop() {
	if p.stop != nil {
		p.stop()
	}
}

// Release stops background processing and releases the worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.Stop()
	if p.fetchPool != nil {
		p.fetchPool.Release()
	}
	if p.processPool != nil {
		p.processPool.Release()
	}
}
