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
	"slices"

	"github.com/poiesic/newsroom/core"
	"github.com/poiesic/newsroom/storage"
)

// DefaultBatchSize is the chunk size used when none is given.
const DefaultBatchSize = 100

// ArticleIterator walks the articles of a stored batch in fixed-size chunks.
type ArticleIterator struct {
	repo      storage.ArticleRepository
	batchSize int
}

// NewArticleIterator returns an iterator handing out chunks of batchSize.
// Sizes below 1 fall back to DefaultBatchSize.
func NewArticleIterator(repo storage.ArticleRepository, batchSize int) *ArticleIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ArticleIterator{repo: repo, batchSize: batchSize}
}

// ForEach calls fn with consecutive chunks of the batch in ingestion order.
// It stops at the first error from fn and checks ctx before every chunk.
func (it *ArticleIterator) ForEach(ctx context.Context, batchID core.ID, fn func([]*core.Article) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	articles, err := it.repo.GetArticles(ctx, batchID)
	if err != nil {
		return err
	}

	for chunk := range slices.Chunk(articles, it.batchSize) {
		if err := fn(chunk); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
