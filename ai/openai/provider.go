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

package openai

import (
	"log/slog"

	"github.com/poiesic/newsroom/ai"
)

type providerOptions struct {
	logger    *slog.Logger
	batchSize int
}

// Option configures a Provider or Embedder.
type Option func(*providerOptions)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *providerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBatchSize caps the number of texts per embedding request. It wins
// over ai.Config.EmbeddingBatchSize; values below 1 are ignored.
func WithBatchSize(size int) Option {
	return func(o *providerOptions) {
		if size > 0 {
			o.batchSize = size
		}
	}
}

func applyOptions(opts []Option) *providerOptions {
	options := &providerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// Provider implements ai.AIProvider for OpenAI-compatible services such as
// Ollama, LocalAI or vLLM.
type Provider struct {
	model    string
	embedder *Embedder
	logger   *slog.Logger
}

// NewProvider validates config and builds the embedding client.
func NewProvider(config *ai.Config, opts ...Option) (ai.AIProvider, error) {
	options := applyOptions(opts)
	embedder, err := newEmbedder(config, options)
	if err != nil {
		return nil, err
	}

	return &Provider{
		model:    config.EmbeddingModel,
		embedder: embedder,
		logger:   options.logger.With("component", "openai-provider"),
	}, nil
}

// Embedder returns the shared embedder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Model returns the embedding model identifier.
func (p *Provider) Model() string {
	return p.model
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (p *Provider) Close() error {
	p.logger.Debug("provider closed")
	return nil
}
