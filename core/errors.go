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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidQuery indicates a SearchQuery failed validation.
	ErrInvalidQuery = errors.New("invalid search query")

	// ErrEmptyTerm indicates the search term is empty after trimming.
	ErrEmptyTerm = errors.New("no search term provided")

	// ErrInvalidSortBy indicates an unknown sort key.
	ErrInvalidSortBy = errors.New("sort_by must be one of [date length]")

	// ErrInvalidSortOrder indicates an unknown sort direction.
	ErrInvalidSortOrder = errors.New("sort_order must be one of [asc desc]")

	// ErrInvalidLength indicates a negative or non-numeric length bound.
	ErrInvalidLength = errors.New("length bounds must be non-negative integers or 'Infinity'")

	// ErrInvalidFilterDate indicates the filter date matches none of the known formats.
	ErrInvalidFilterDate = errors.New("filter_date is not a recognised date")

	// ErrInvalidArticle indicates an Article failed validation.
	ErrInvalidArticle = errors.New("invalid article")
)
