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

import "math"

// SortBy selects the key used to order search matches.
type SortBy string

const (
	// SortByDate orders by the parsed publication date.
	SortByDate SortBy = "date"
	// SortByLength orders by the character count of the full content.
	SortByLength SortBy = "length"
)

// SortOrder selects the direction of the sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Unbounded is the MaxLength value meaning "no upper bound".
const Unbounded = math.MaxInt

// SearchQuery holds the parameters of a single search request.
// MinLength > MaxLength is accepted and simply yields no matches.
type SearchQuery struct {
	Term      string
	SortBy    SortBy
	SortOrder SortOrder
	MinLength int
	MaxLength int // Unbounded for no limit
	// FilterDate restricts matches to articles published on this date.
	// Empty means no date filter.
	FilterDate string
	Cluster    bool
}

// DefaultQuery returns a query for term with the same defaults the HTTP API applies:
// newest first, no length bounds, no date filter, no clustering.
func DefaultQuery(term string) SearchQuery {
	return SearchQuery{
		Term:      term,
		SortBy:    SortByDate,
		SortOrder: SortDesc,
		MinLength: 0,
		MaxLength: Unbounded,
	}
}
