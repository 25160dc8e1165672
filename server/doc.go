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

// Package server exposes searches and the batch list over HTTP.
//
// Endpoints:
//   - GET /search runs a query built from the q, sort_by, sort_order,
//     min_length, max_length, filter_date and cluster parameters
//   - GET /list-sources lists stored batch names, newest first
//   - GET / describes the API
//
// Every error is a JSON object {"error": message, "status": "error"}.
// Each request is assigned an ID that is returned in the X-Request-ID header
// and attached to its log lines.
package server
