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

package storage

import (
	"fmt"

	"github.com/poiesic/newsroom/core"
)

// decoded checks the result of a mus-go Unmarshal of data.
func decoded(kind string, n int, data []byte, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSerializationFailed, kind, err)
	}
	if n != len(data) {
		return fmt.Errorf("%w: %s: %w: %d of %d bytes used", ErrSerializationFailed, kind, ErrTrailingData, n, len(data))
	}
	return nil
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, n, err := core.IDMUS.Unmarshal(data)
	if err := decoded("id", n, data, err); err != nil {
		return 0, err
	}
	return id, nil
}

// MarshalArticle serializes an Article to bytes.
func MarshalArticle(article *core.Article) []byte {
	buf := make([]byte, core.ArticleMUS.Size(*article))
	core.ArticleMUS.Marshal(*article, buf)
	return buf
}

// UnmarshalArticle deserializes an Article from bytes.
func UnmarshalArticle(data []byte) (*core.Article, error) {
	article, n, err := core.ArticleMUS.Unmarshal(data)
	if err := decoded("article", n, data, err); err != nil {
		return nil, err
	}
	return &article, nil
}

// MarshalBatch serializes a Batch to bytes.
func MarshalBatch(batch *core.Batch) []byte {
	buf := make([]byte, core.BatchMUS.Size(*batch))
	core.BatchMUS.Marshal(*batch, buf)
	return buf
}

// UnmarshalBatch deserializes a Batch from bytes.
func UnmarshalBatch(data []byte) (*core.Batch, error) {
	batch, n, err := core.BatchMUS.Unmarshal(data)
	if err := decoded("batch", n, data, err); err != nil {
		return nil, err
	}
	return &batch, nil
}

// MarshalVector serializes an embedding vector to bytes.
func MarshalVector(vector []float32) []byte {
	buf := make([]byte, core.VectorMUS.Size(core.Vector(vector)))
	core.VectorMUS.Marshal(core.Vector(vector), buf)
	return buf
}

// UnmarshalVector deserializes an embedding vector from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	vector, n, err := core.VectorMUS.Unmarshal(data)
	if err := decoded("vector", n, data, err); err != nil {
		return nil, err
	}
	return []float32(vector), nil
}
