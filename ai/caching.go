package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/newsroom/core"
)

// CachingEmbedder decorates an Embedder with a VectorCache.
// Texts are keyed by core.IDFromContent, so identical text under the same
// model is embedded once. Cache failures are logged and never fail a call.
type CachingEmbedder struct {
	next   Embedder
	cache  VectorCache
	model  string
	logger *slog.Logger
}

// NewCachingEmbedder wraps next so that vectors are read from and written to cache.
func NewCachingEmbedder(next Embedder, cache VectorCache, model string) *CachingEmbedder {
	return &CachingEmbedder{
		next:   next,
		cache:  cache,
		model:  model,
		logger: slog.Default().With("component", "caching-embedder", "model", model),
	}
}

// EmbedText returns the cached vector for text, embedding it on a miss.
func (c *CachingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts returns one vector per text in input order. Only texts missing
// from the cache are sent to the wrapped embedder, each at most once.
func (c *CachingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	ids := make([]core.ID, len(texts))
	for i, text := range texts {
		ids[i] = core.IDFromContent(text)
	}

	cached, err := c.cache.GetVectors(ctx, c.model, ids...)
	if err != nil {
		c.logger.Warn("vector cache read failed", "err", err)
		cached = nil
	}

	var missing []string
	var missingIDs []core.ID
	seen := make(map[core.ID]struct{})
	for i, id := range ids {
		if _, ok := cached[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, texts[i])
		missingIDs = append(missingIDs, id)
	}

	c.logger.Debug("embedding texts", "total", len(texts), "cached", len(texts)-len(missing))

	fresh := make(map[core.ID][]float32, len(missing))
	if len(missing) > 0 {
		vectors, err := c.next.EmbedTexts(ctx, missing)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(missing) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(missing))
		}
		for i, id := range missingIDs {
			fresh[id] = vectors[i]
		}
		if err := c.cache.PutVectors(ctx, c.model, fresh); err != nil {
			c.logger.Warn("vector cache write failed", "err", err)
		}
	}

	result := make([][]float32, len(texts))
	for i, id := range ids {
		if v, ok := cached[id]; ok {
			result[i] = v
		} else {
			result[i] = fresh[id]
		}
	}
	return result, nil
}
