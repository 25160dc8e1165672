// Package store holds the article snapshot that searches run against.
//
// A Snapshot is an immutable view of one ingestion batch. The Store swaps
// snapshots atomically, so every search sees exactly one batch from start to
// finish even while ingestion publishes a new one.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/poiesic/newsroom/core"
	"github.com/poiesic/newsroom/storage"
)

// ErrRepositoryRequired is returned when a Store is built without a repository.
var ErrRepositoryRequired = errors.New("article repository is required")

// Snapshot is the immutable set of articles from one batch.
// Callers must not modify Articles or the articles they point to.
type Snapshot struct {
	Batch    core.Batch
	Articles []*core.Article
}

// NewSnapshot builds a snapshot for batch from articles.
func NewSnapshot(batch core.Batch, articles []*core.Article) *Snapshot {
	return &Snapshot{
		Batch:    batch,
		Articles: articles,
	}
}

// Store provides the current snapshot to readers.
type Store struct {
	repo    storage.ArticleRepository
	current atomic.Pointer[Snapshot]
	loadErr atomic.Pointer[error]
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// New creates an empty Store backed by repo.
func New(repo storage.ArticleRepository, opts ...Option) (*Store, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	s := &Store{
		repo:   repo,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "store")
	return s, nil
}

// Current returns the active snapshot, or nil if no batch has been loaded.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// LoadError returns the error of the last failed Refresh, or nil once a
// Refresh succeeds.
func (s *Store) LoadError() error {
	if err := s.loadErr.Load(); err != nil {
		return *err
	}
	return nil
}

// Replace publishes snap as the active snapshot.
func (s *Store) Replace(snap *Snapshot) {
	s.current.Store(snap)
	if snap != nil {
		s.logger.Info("snapshot published", "batch", snap.Batch.Name(), "articles", len(snap.Articles))
	}
}

// Refresh loads the latest batch from the repository and publishes it.
// When no batch exists the store is left unchanged and nil is returned.
// On failure the previous snapshot stays active and the error is also kept
// for LoadError.
func (s *Store) Refresh(ctx context.Context) error {
	err := s.refresh(ctx)
	if err != nil {
		s.loadErr.Store(&err)
	} else {
		s.loadErr.Store(nil)
	}
	return err
}

func (s *Store) refresh(ctx context.Context) error {
	batch, err := s.repo.LatestBatch(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("no article batches available")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading latest batch: %w", err)
	}

	if cur := s.Current(); cur != nil && cur.Batch.Id == batch.Id {
		s.logger.Debug("snapshot already current", "batch", batch.Name())
		return nil
	}

	articles, err := s.repo.GetArticles(ctx, batch.Id)
	if err != nil {
		return fmt.Errorf("loading articles for %s: %w", batch.Name(), err)
	}

	s.Replace(NewSnapshot(*batch, articles))
	return nil
}
