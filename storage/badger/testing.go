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

package badger

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/newsroom/storage"
)

// MemoryStore bundles an in-memory backend with both repositories.
// Tests in other packages use it instead of a temp directory.
type MemoryStore struct {
	Backend  *Backend
	Articles storage.ArticleRepository
	Vectors  storage.VectorRepository
}

// OpenMemory opens a MemoryStore. Close releases everything it holds.
func OpenMemory() (*MemoryStore, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	articles, err := NewArticleRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &MemoryStore{
		Backend:  backend,
		Articles: articles,
		Vectors:  NewVectorRepository(backend),
	}, nil
}

// Close closes the repositories, then the backend.
func (m *MemoryStore) Close() error {
	return errors.Join(m.Vectors.Close(), m.Articles.Close(), m.Backend.Close())
}

// CorruptArticles overwrites every stored article record with bytes that do
// not decode. It returns how many records it replaced.
func CorruptArticles(b *Backend) (int, error) {
	var n int
	err := b.WithTx(func(tx *badger.Txn) error {
		it := tx.NewIterator(badger.IteratorOptions{Prefix: []byte(articlePrefix)})
		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, k := range keys {
			if err := tx.Set(k, []byte{0xff, 0xff, 0xff}); err != nil {
				return err
			}
		}
		n = len(keys)
		return tx.Commit()
	}, true)
	return n, err
}
