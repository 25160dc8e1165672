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

import (
	"fmt"
	"strings"
)

// ValidateQuery validates a SearchQuery according to domain rules.
//
// Validation rules:
//   - Term must not be blank
//   - SortBy must be date or length
//   - SortOrder must be asc or desc
//   - MinLength and MaxLength must be non-negative
//   - FilterDate, when set, must parse with ParseDate
//
// NOT validated:
//   - MinLength <= MaxLength (an inverted range yields an empty result)
func ValidateQuery(q *SearchQuery) error {
	if q == nil {
		return fmt.Errorf("%w: query is nil", ErrInvalidQuery)
	}

	if strings.TrimSpace(q.Term) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrEmptyTerm)
	}

	if err := ValidateSortBy(q.SortBy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	if err := ValidateSortOrder(q.SortOrder); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	if q.MinLength < 0 || q.MaxLength < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrInvalidLength)
	}

	if q.FilterDate != "" {
		if _, ok := ParseDate(q.FilterDate); !ok {
			return fmt.Errorf("%w: %w: %q", ErrInvalidQuery, ErrInvalidFilterDate, q.FilterDate)
		}
	}

	return nil
}

// ValidateSortBy validates that a SortBy has a known value.
func ValidateSortBy(s SortBy) error {
	if s != SortByDate && s != SortByLength {
		return fmt.Errorf("%w: got %q", ErrInvalidSortBy, s)
	}
	return nil
}

// ValidateSortOrder validates that a SortOrder has a known value.
func ValidateSortOrder(o SortOrder) error {
	if o != SortAsc && o != SortDesc {
		return fmt.Errorf("%w: got %q", ErrInvalidSortOrder, o)
	}
	return nil
}

// ValidateArticle checks that every field of a stored article is populated.
// Call WithDefaults first; this only guards the storage invariant.
func ValidateArticle(a *Article) error {
	if a == nil {
		return fmt.Errorf("%w: article is nil", ErrInvalidArticle)
	}
	fields := []struct {
		name  string
		value string
	}{
		{"title", a.Title},
		{"link", a.Link},
		{"summary", a.Summary},
		{"full_content", a.FullContent},
		{"author", a.Author},
		{"source", a.Source},
		{"published_date", a.PublishedDate},
		{"url_to_image", a.ImageURL},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidArticle, f.name)
		}
	}
	return nil
}
