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

// Package search answers whole-word queries over the current article snapshot.
//
// A search runs in stages:
//   - Matches selects articles whose title, summary, full content, or author
//     contains the term as a whole word, ignoring case
//   - Process filters the matches by content length and publication date and
//     sorts them stably by date or length
//   - when clustering is requested, the sorted matches are embedded and
//     grouped with DBSCAN on a worker pool, bounded by a timeout
//   - Assemble and AssembleClusters shape the final core.SearchResult
//
// Failures are classified as ErrInvalidQuery, ErrDataUnavailable, or
// ErrClusteringFailed. Only invalid queries fail a search; missing data and
// clustering failures are reported on the result.
package search
