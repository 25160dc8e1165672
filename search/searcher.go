package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/newsroom/ai"
	"github.com/poiesic/newsroom/cluster"
	"github.com/poiesic/newsroom/core"
	"github.com/poiesic/newsroom/store"
)

// DefaultClusterTimeout bounds the embed and cluster step of one search.
const DefaultClusterTimeout = 30 * time.Second

// SnapshotSource provides the article snapshot a search runs against.
// *store.Store implements it.
type SnapshotSource interface {
	Current() *store.Snapshot
}

// loadErrorReporter is implemented by sources that remember why no snapshot
// could be loaded.
type loadErrorReporter interface {
	LoadError() error
}

// Clusterer assigns one label per vector. *cluster.DBSCAN implements it.
type Clusterer interface {
	Cluster(ctx context.Context, vectors [][]float32) ([]int, error)
}

// Searcher runs whole-word searches over the current snapshot and optionally
// groups the results by semantic similarity.
// It holds no per-query state and is safe for concurrent use.
type Searcher struct {
	source         SnapshotSource
	embedder       ai.Embedder
	clusterer      Clusterer
	pool           *ants.Pool
	clusterTimeout time.Duration
	logger         *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithClusterer replaces the default DBSCAN clusterer.
func WithClusterer(c Clusterer) Option {
	return func(s *Searcher) error {
		if c == nil {
			return errors.New("clusterer must not be nil")
		}
		s.clusterer = c
		return nil
	}
}

// WithClusterTimeout bounds how long a search waits for embedding and
// clustering before returning the unclustered result.
// Default is DefaultClusterTimeout.
func WithClusterTimeout(d time.Duration) Option {
	return func(s *Searcher) error {
		if d <= 0 {
			return fmt.Errorf("cluster timeout must be positive, got %s", d)
		}
		s.clusterTimeout = d
		return nil
	}
}

// WithPoolSize sets the number of searches that may embed and cluster at once.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			size = 1
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(source SnapshotSource, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if source == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	clusterer, err := cluster.NewDBSCAN()
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		source:         source,
		embedder:       embedder,
		clusterer:      clusterer,
		pool:           pool,
		clusterTimeout: DefaultClusterTimeout,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Release releases the worker pool.
// The searcher should not be used after calling Release.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Search runs q against the current snapshot.
// It returns an error wrapping ErrInvalidQuery for invalid input. Missing
// data and clustering failures are reported on the result instead.
func (s *Searcher) Search(ctx context.Context, q core.SearchQuery) (*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, q, nil)
}

// SearchWithMonitor is Search with a monitor receiving callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, q core.SearchQuery, monitor SearchMonitor) (*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	q.Term = strings.TrimSpace(q.Term)
	if err := core.ValidateQuery(&q); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	monitor.Start(q)

	// One snapshot for the whole query
	snap := s.source.Current()
	if snap == nil {
		result := Assemble(q.Term, nil)
		result.Error = NoArticlesMessage
		if r, ok := s.source.(loadErrorReporter); ok {
			if err := r.LoadError(); err != nil {
				result.Error = ReadErrorPrefix + err.Error()
			}
		}
		s.logger.Warn("search with no article batch loaded", "err", ErrDataUnavailable, "condition", result.Error)
		monitor.Finish(result)
		return result, nil
	}
	monitor.AfterSnapshot(&snap.Batch, len(snap.Articles))

	matches := make([]*core.Article, 0)
	for _, a := range snap.Articles {
		if Matches(q.Term, a) {
			matches = append(matches, a)
		}
	}
	monitor.AfterMatch(len(matches))

	sorted := Process(matches, q)
	monitor.AfterFilter(sorted)
	s.logger.Debug("search matched", "term", q.Term, "batch", snap.Batch.Name(),
		"matched", len(matches), "filtered", len(sorted))

	result := Assemble(q.Term, sorted)
	if q.Cluster && len(sorted) > 0 {
		clustered, err := s.cluster(ctx, q.Term, sorted, monitor)
		if err != nil {
			s.logger.Warn("returning unclustered results", "term", q.Term, "err", err)
			monitor.ClusteringFailed(err)
			result.ClusterError = err.Error()
		} else {
			result = clustered
		}
	}

	monitor.Finish(result)
	return result, nil
}

type clusterOutcome struct {
	result *core.SearchResult
	err    error
}

// cluster embeds and clusters articles on the worker pool. If ctx ends or
// the timeout passes first, the pool task is abandoned and an error returned.
// Every returned error wraps ErrClusteringFailed.
func (s *Searcher) cluster(ctx context.Context, term string, articles []*core.Article, monitor SearchMonitor) (*core.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.clusterTimeout)
	defer cancel()

	done := make(chan clusterOutcome, 1)
	err := s.pool.Submit(func() {
		result, err := s.embedAndCluster(ctx, term, articles, monitor)
		done <- clusterOutcome{result: result, err: err}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClusteringFailed, err)
	}

	select {
	case out := <-done:
		if out.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrClusteringFailed, out.err)
		}
		return out.result, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrClusteringFailed, ctx.Err())
	}
}

func (s *Searcher) embedAndCluster(ctx context.Context, term string, articles []*core.Article, monitor SearchMonitor) (*core.SearchResult, error) {
	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = a.EmbeddingText()
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding articles: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(texts), len(vectors))
	}
	monitor.AfterEmbedding(len(vectors))

	labels, err := s.clusterer.Cluster(ctx, vectors)
	if err != nil {
		return nil, err
	}
	monitor.AfterClustering(labels)

	return AssembleClusters(term, articles, labels)
}
