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

package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/newsroom/ai"
	"github.com/poiesic/newsroom/core"
	"github.com/poiesic/newsroom/storage"
)

// Config tunes a reembedding run.
type Config struct {
	// BatchSize is the number of texts sent per embedding request.
	BatchSize int

	// ReportInterval is the number of articles between progress lines.
	ReportInterval int

	// MaxRetries bounds the attempts per request.
	MaxRetries int

	// RetryDelay is the first backoff delay; later ones double.
	RetryDelay time.Duration

	// SkipCached leaves texts that already have a vector for the model untouched.
	// A model change needs it off so every article is embedded again.
	SkipCached bool
}

// DefaultConfig returns the settings used by the reembed command.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     time.Second,
	}
}

// Reembedder writes cached vectors for stored articles.
type Reembedder struct {
	repo      storage.ArticleRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ArticleIterator
}

// NewReembedder returns a Reembedder caching vectors under model.
// A nil config means DefaultConfig; a nil progress writer discards output.
func NewReembedder(repo storage.ArticleRepository, cache ai.VectorCache, embedder ai.Embedder, model string, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	processor := NewBatchProcessor(cache, embedder, model, config.MaxRetries, config.RetryDelay)
	processor.skipCached = config.SkipCached

	return &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: processor,
		iterator:  NewArticleIterator(repo, config.BatchSize),
	}
}

// Run embeds the articles of every stored batch.
func (r *Reembedder) Run(ctx context.Context) error {
	batches, err := r.repo.ListBatches(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list batches: %w", err)
	}
	return r.run(ctx, batches)
}

// RunBatch embeds the articles of one batch.
func (r *Reembedder) RunBatch(ctx context.Context, batchID core.ID) error {
	batch, err := r.repo.GetBatch(ctx, batchID)
	if err != nil {
		return fmt.Errorf("failed to load batch %d: %w", batchID, err)
	}
	return r.run(ctx, []*core.Batch{batch})
}

// runStats counts one run. Feeds repeat stories from day to day, so the
// same text shows up in many batches; it is embedded once per run.
type runStats struct {
	seen       map[core.ID]struct{}
	processed  int
	embedded   int
	duplicates int
}

// fresh drops articles whose text was already handled in this run.
func (s *runStats) fresh(articles []*core.Article) []*core.Article {
	out := articles[:0:0]
	for _, article := range articles {
		id := core.IDFromContent(article.EmbeddingText())
		if _, ok := s.seen[id]; ok {
			s.duplicates++
			continue
		}
		s.seen[id] = struct{}{}
		out = append(out, article)
	}
	return out
}

func (r *Reembedder) run(ctx context.Context, batches []*core.Batch) error {
	total := 0
	for _, batch := range batches {
		total += batch.ArticleCount
	}
	if total == 0 {
		fmt.Fprintln(r.progress, "No articles found in database (0 articles)")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d articles in %d batches (batch size: %d)\n",
		total, len(batches), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	stats := &runStats{seen: make(map[core.ID]struct{}, total)}
	for _, batch := range batches {
		err := r.iterator.ForEach(ctx, batch.Id, func(articles []*core.Article) error {
			if todo := stats.fresh(articles); len(todo) > 0 {
				n, err := r.processor.Process(ctx, todo)
				if err != nil {
					return fmt.Errorf("failed to process %s: %w", batch.Name(), err)
				}
				stats.embedded += n
			}
			stats.processed += len(articles)
			tracker.Update(stats.processed, stats.embedded)
			return nil
		})
		if err != nil {
			return err
		}
	}

	tracker.Finish()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d articles (%d embedded, %d duplicates) in %v (%.1f articles/sec)\n",
		stats.processed, stats.embedded, stats.duplicates, tracker.Elapsed().Round(time.Second), tracker.Rate())

	return nil
}
