package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/newsroom/core"
	"github.com/poiesic/newsroom/storage"
)

// ArticleRepository implements storage.ArticleRepository for BadgerDB.
type ArticleRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository creates a new ArticleRepository.
func NewArticleRepository(backend *Backend) (*ArticleRepository, error) {
	idSeq, err := backend.GetSequence(batchIDSeq)
	if err != nil {
		return nil, err
	}

	return &ArticleRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ArticleRepository) Close() error {
	return r.idSeq.Release()
}

// AddBatch stores articles as a new batch in a single transaction.
func (r *ArticleRepository) AddBatch(ctx context.Context, batch *core.Batch, articles []*core.Article) (*core.Batch, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return nil, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return nil, err
		}
	}

	stored := *batch
	stored.Id = core.ID(nextID)
	stored.ArticleCount = len(articles)
	if stored.FetchedAt.IsZero() {
		stored.FetchedAt = time.Now()
	}
	stored.FetchedAt = stored.FetchedAt.UTC().Truncate(time.Microsecond)

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		for i, article := range articles {
			if err := tx.Set(makeArticleKey(stored.Id, i), storage.MarshalArticle(article)); err != nil {
				return err
			}
		}
		if err := tx.Set(makeBatchKey(stored.Id), storage.MarshalBatch(&stored)); err != nil {
			return err
		}
		if err := tx.Set(makeBatchTimeKey(stored.FetchedAt, stored.Id), storage.MarshalID(stored.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

// LatestBatch returns the most recently fetched batch.
func (r *ArticleRepository) LatestBatch(ctx context.Context) (*core.Batch, error) {
	batches, err := r.ListBatches(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, storage.ErrNotFound
	}
	return batches[0], nil
}

// GetBatch retrieves a single batch by ID.
func (r *ArticleRepository) GetBatch(ctx context.Context, id core.ID) (*core.Batch, error) {
	var result *core.Batch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readBatch(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListBatches returns batches newest first by walking the time index in reverse.
func (r *ArticleRepository) ListBatches(ctx context.Context, limit int) ([]*core.Batch, error) {
	var results []*core.Batch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		opts.Prefix = []byte(batchTimePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Reverse iteration must seek past the end of the prefix range
		seekKey := append([]byte(batchTimePrefix), bytes.Repeat([]byte{0xff}, 17)...)
		for iter.Seek(seekKey); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := batchIDFromTimeKey(iter.Item().Key())
			batch, err := r.readBatch(tx, id)
			if err != nil {
				return err
			}
			if batch == nil {
				continue
			}
			results = append(results, batch)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
		return nil
	}, false)
	return results, err
}

// GetArticles returns the articles of a batch in ingestion order.
func (r *ArticleRepository) GetArticles(ctx context.Context, batchID core.ID) ([]*core.Article, error) {
	var results []*core.Article
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		batch, err := r.readBatch(tx, batchID)
		if err != nil {
			return err
		}
		if batch == nil {
			return storage.ErrNotFound
		}
		results = make([]*core.Article, 0, batch.ArticleCount)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeArticlePrefix(batchID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var article *core.Article
			err := iter.Item().Value(func(val []byte) error {
				var err error
				article, err = storage.UnmarshalArticle(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, article)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteBatchesBefore removes batches fetched before cutoff, keeping the latest batch.
func (r *ArticleRepository) DeleteBatchesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	latest, err := r.LatestBatch(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var doomed []*core.Batch
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(batchTimePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		end := makePartialBatchTimeKey(cutoff.UTC())
		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().KeyCopy(nil)
			if bytes.Compare(key[:len(end)], end) >= 0 {
				break
			}
			id := batchIDFromTimeKey(key)
			if id == latest.Id {
				continue
			}
			batch, err := r.readBatch(tx, id)
			if err != nil {
				return err
			}
			if batch != nil {
				doomed = append(doomed, batch)
			}
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}

	for _, batch := range doomed {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		// Remove the batch record first so a crash never leaves a visible batch without articles
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Delete(makeBatchKey(batch.Id)); err != nil {
				return err
			}
			if err := tx.Delete(makeBatchTimeKey(batch.FetchedAt, batch.Id)); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return 0, err
		}
		if err := r.backend.DropPrefix(makeArticlePrefix(batch.Id)); err != nil {
			return 0, err
		}
	}
	if len(doomed) > 0 {
		if err := r.backend.CollectGarbage(); err != nil {
			return len(doomed), fmt.Errorf("collecting garbage: %w", err)
		}
	}

	return len(doomed), nil
}

// readBatch reads a batch within a transaction. Returns nil, nil if not found.
func (r *ArticleRepository) readBatch(tx *badger.Txn, id core.ID) (*core.Batch, error) {
	item, err := tx.Get(makeBatchKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var batch *core.Batch
	err = item.Value(func(val []byte) error {
		var err error
		batch, err = storage.UnmarshalBatch(val)
		return err
	})
	return batch, err
}
