package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/poiesic/newsroom/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeddingServer answers /embeddings with [len(text), index] per input.
func embeddingServer(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		requests.Add(1)

		var payload struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		type datum struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]datum, len(payload.Input))
		for i, text := range payload.Input {
			data[i] = datum{Object: "embedding", Embedding: []float32{float32(len(text)), float32(i)}, Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  payload.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func testConfig(host string) *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(host),
		ai.WithEmbeddingModel("nomic-embed-text"),
	)
}

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider(testConfig("http://localhost:11434"))
	require.NoError(t, err)
	defer provider.Close()

	assert.Equal(t, "nomic-embed-text", provider.Model())
	assert.NotNil(t, provider.Embedder())
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(&ai.Config{EmbeddingHost: "http://localhost:11434"})
	assert.ErrorIs(t, err, ai.ErrEmbeddingModelRequired)
}

func TestBatchSizeResolution(t *testing.T) {
	tests := []struct {
		name   string
		config int
		opts   []Option
		want   int
	}{
		{"default", 0, nil, DefaultBatchSize},
		{"from config", 16, nil, 16},
		{"option wins", 16, []Option{WithBatchSize(4)}, 4},
		{"invalid option ignored", 16, []Option{WithBatchSize(0)}, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("http://localhost:11434")
			cfg.EmbeddingBatchSize = tt.config
			embedder, err := newEmbedder(cfg, applyOptions(tt.opts))
			require.NoError(t, err)
			assert.Equal(t, tt.want, embedder.batchSize)
		})
	}
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	var requests atomic.Int32
	srv := embeddingServer(t, &requests)
	defer srv.Close()

	embedder, err := NewEmbedder(testConfig(srv.URL), WithBatchSize(2))
	require.NoError(t, err)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := embedder.EmbedTexts(t.Context(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vectors[i][0], "vector %d out of order", i)
	}
	assert.Equal(t, int32(3), requests.Load())
}

func TestEmbedder_EmbedText(t *testing.T) {
	var requests atomic.Int32
	srv := embeddingServer(t, &requests)
	defer srv.Close()

	embedder, err := NewEmbedder(testConfig(srv.URL))
	require.NoError(t, err)

	vector, err := embedder.EmbedText(t.Context(), "stocks rose")
	require.NoError(t, err)
	assert.Equal(t, []float32{11, 0}, vector)
}

func TestEmbedder_Empty(t *testing.T) {
	var requests atomic.Int32
	srv := embeddingServer(t, &requests)
	defer srv.Close()

	embedder, err := NewEmbedder(testConfig(srv.URL))
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, requests.Load())
}

func TestEmbedder_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not loaded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	embedder, err := NewEmbedder(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = embedder.EmbedTexts(t.Context(), []string{"text"})
	assert.ErrorIs(t, err, ai.ErrEmbeddingFailed)
}
