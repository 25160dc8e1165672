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

package search

import "errors"

var (
	// ErrStoreRequired is returned when a snapshot source is not provided.
	ErrStoreRequired = errors.New("article store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)

// Every failure of a search is reported as one of these kinds.
var (
	// ErrInvalidQuery marks a caller mistake. Search returns it and no result.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrDataUnavailable marks a missing or unreadable article batch. The
	// search still returns an empty result carrying the condition.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrClusteringFailed marks a failed embed or cluster step. The search
	// still returns the unclustered result carrying the condition.
	ErrClusteringFailed = errors.New("clustering failed")
)

// NoArticlesMessage is the condition reported when no batch has been ingested.
const NoArticlesMessage = "No scraped articles found"

// ReadErrorPrefix starts the condition reported when the latest batch exists
// but could not be read.
const ReadErrorPrefix = "Error reading article batch: "
