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

package mock

import (
	"sync/atomic"

	"github.com/poiesic/newsroom/ai"
)

// MockModel is the model name reported by MockProvider.
const MockModel = "mock"

// MockProvider is an ai.AIProvider backed by a MockEmbedder.
type MockProvider struct {
	embedder *MockEmbedder
	closed   atomic.Bool
}

// NewMockProvider returns a provider with a fresh MockEmbedder.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithEmbedder(NewMockEmbedder())
}

// NewMockProviderWithEmbedder returns a provider sharing embedder, so tests
// can inspect counters after handing the provider to a Database.
func NewMockProviderWithEmbedder(embedder *MockEmbedder) ai.AIProvider {
	return &MockProvider{embedder: embedder}
}

func (p *MockProvider) Embedder() ai.Embedder { return p.embedder }

func (p *MockProvider) Model() string { return MockModel }

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool { return p.closed.Load() }

// MockEmbedder returns the underlying embedder.
func (p *MockProvider) MockEmbedder() *MockEmbedder { return p.embedder }
