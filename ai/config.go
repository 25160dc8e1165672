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

package ai

import "strings"

// Config locates the embedding service.
type Config struct {
	// EmbeddingHost is the OpenAI-compatible base URL, for example
	// "http://localhost:11434/v1" for Ollama.
	EmbeddingHost string

	// EmbeddingModel names the model, for example "nomic-embed-text".
	// Cached vectors are keyed by it.
	EmbeddingModel string

	// EmbeddingToken is the bearer token. Local servers accept anything,
	// so it defaults to "none".
	EmbeddingToken string

	// EmbeddingBatchSize caps texts per request. Zero leaves the
	// provider's own default.
	EmbeddingBatchSize int
}

// ConfigOption modifies a Config built by NewConfig.
type ConfigOption func(*Config)

func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) { c.EmbeddingHost = host }
}

func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) { c.EmbeddingModel = model }
}

// WithEmbeddingToken sets the API token. An empty token keeps the default.
func WithEmbeddingToken(token string) ConfigOption {
	return func(c *Config) {
		if token != "" {
			c.EmbeddingToken = token
		}
	}
}

// WithEmbeddingBatchSize sets the per-request text limit. Values below 1 are ignored.
func WithEmbeddingBatchSize(n int) ConfigOption {
	return func(c *Config) {
		if n > 0 {
			c.EmbeddingBatchSize = n
		}
	}
}

// DefaultConfig points at a local Ollama serving nomic-embed-text.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:  "http://localhost:11434/v1",
		EmbeddingModel: "nomic-embed-text",
		EmbeddingToken: "none",
	}
}

// NewConfig applies opts over DefaultConfig.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize puts the host in the form OpenAI-compatible servers expect:
// no trailing slash and a /v1 suffix. An empty token becomes "none".
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/") + "/v1"
	}
	if c.EmbeddingToken == "" {
		c.EmbeddingToken = "none"
	}
}

// Validate normalizes c and reports missing fields.
func (c *Config) Validate() error {
	c.Normalize()
	switch {
	case c.EmbeddingHost == "":
		return ErrEmbeddingHostRequired
	case c.EmbeddingModel == "":
		return ErrEmbeddingModelRequired
	}
	return nil
}
