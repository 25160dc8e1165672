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

// Package storage provides the storage abstraction layer for newsroom.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic, plus the binary serialization used to persist domain
// types.
//
// # Constructor Return Type Pattern
//
// Public constructors in implementation packages return concrete types that
// satisfy these interfaces; consumers depend on the interfaces only:
//
//	var articles storage.ArticleRepository
//	articles, err = badger.NewArticleRepository(backend)
//
// # Architecture
//
//   - ArticleRepository: ingestion batches and their articles
//   - VectorRepository: embedding vectors cached per model and content ID
//
// Articles are written once per batch and never updated. Readers load the
// latest batch as a whole; see package store.
//
// # Serialization
//
// Domain types are stored in the compact mus binary format. Timestamps are
// encoded as Unix microseconds.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
