package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/newsroom/core"
	"github.com/poiesic/newsroom/storage"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
type VectorRepository struct {
	backend *Backend
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a new VectorRepository.
func NewVectorRepository(backend *Backend) *VectorRepository {
	return &VectorRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend is owned by the caller.
func (r *VectorRepository) Close() error {
	return nil
}

// GetVectors returns the cached vectors for ids under model.
func (r *VectorRepository) GetVectors(ctx context.Context, model string, ids ...core.ID) (map[core.ID][]float32, error) {
	results := make(map[core.ID][]float32, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if _, ok := results[id]; ok {
				continue
			}
			item, err := tx.Get(makeVectorKey(model, id))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			err = item.Value(func(val []byte) error {
				vector, err := storage.UnmarshalVector(val)
				if err != nil {
					return err
				}
				results[id] = vector
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// PutVectors stores vectors under model, using a write batch so large
// inserts are split across transactions automatically.
func (r *VectorRepository) PutVectors(ctx context.Context, model string, vectors map[core.ID][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	wb := r.backend.NewWriteBatch()

	for id, vector := range vectors {
		if err := wb.Set(makeVectorKey(model, id), storage.MarshalVector(vector)); err != nil {
			wb.Cancel()
			return err
		}
	}
	return wb.Flush()
}

// CountVectors returns the number of vectors stored under model.
func (r *VectorRepository) CountVectors(ctx context.Context, model string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeVectorPrefix(model)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}
