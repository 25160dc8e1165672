// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package newsroom

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/newsroom/ai"
	"github.com/poiesic/newsroom/ai/openai"
	"github.com/poiesic/newsroom/ingestion"
	"github.com/poiesic/newsroom/reembed"
	"github.com/poiesic/newsroom/search"
	"github.com/poiesic/newsroom/storage"
	"github.com/poiesic/newsroom/storage/badger"
	"github.com/poiesic/newsroom/store"
)

// Database wires storage, the embedding provider and the article store
// together and builds the components that use them.
type Database struct {
	backend     *badger.Backend
	articleRepo storage.ArticleRepository
	vectorRepo  storage.VectorRepository
	provider    ai.AIProvider
	embedder    *ai.CachingEmbedder
	store       *store.Store
	logger      *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig sets the embedding service used when no provider is given.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider uses provider instead of building an OpenAI-compatible one.
// The database closes it on Close.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all data in memory. The file path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewDatabase opens the database at filePath and loads the latest batch into
// the article store.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create article repository
	articleRepo, err := badger.NewArticleRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create vector repository
	vectorRepo := badger.NewVectorRepository(backend)

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig, openai.WithLogger(options.logger))
		if err != nil {
			articleRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	articleStore, err := store.New(articleRepo, store.WithLogger(options.logger))
	if err != nil {
		provider.Close()
		articleRepo.Close()
		backend.Close()
		return nil, err
	}

	db := &Database{
		backend:     backend,
		articleRepo: articleRepo,
		vectorRepo:  vectorRepo,
		provider:    provider,
		embedder:    ai.NewCachingEmbedder(provider.Embedder(), vectorRepo, provider.Model()),
		store:       articleStore,
		logger:      options.logger,
	}

	// An unreadable batch leaves the store empty; searches report it
	if err := articleStore.Refresh(context.Background()); err != nil {
		db.logger.Error("loading latest batch", "err", err)
	}
	return db, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := db.vectorRepo.Close(); err != nil {
		db.logger.Error("error closing vector repository", "err", err)
		return err
	}
	if err := db.articleRepo.Close(); err != nil {
		db.logger.Error("error closing article repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ArticleRepository() storage.ArticleRepository {
	return db.articleRepo
}

func (db *Database) VectorRepository() storage.VectorRepository {
	return db.vectorRepo
}

// Store returns the article store searches read from.
func (db *Database) Store() *store.Store {
	return db.store
}

func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// NewSearcher creates a searcher over the article store. Embeddings go
// through the vector cache.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.store, db.embedder, opts...)
}

// NewIngestionPipeline creates a pipeline for feeds that publishes every
// stored batch to the article store and warms the vector cache for it.
// Later options override these defaults.
func (db *Database) NewIngestionPipeline(feeds []ingestion.Feed, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	defaults := []ingestion.Option{
		ingestion.WithLogger(db.logger),
		ingestion.WithRefresher(db.store),
		ingestion.WithEmbeddingWarmup(db.provider, db.vectorRepo),
	}
	return ingestion.NewPipeline(db.articleRepo, feeds, append(defaults, opts...)...)
}

// NewReembedder creates a reembedder filling the vector cache for the
// provider's model. A nil config uses reembed.DefaultConfig.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(db.articleRepo, db.vectorRepo, db.provider.Embedder(), db.provider.Model(), config, progress)
}
