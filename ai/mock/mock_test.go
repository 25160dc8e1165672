package mock

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()

	a, err := m.EmbedText(context.Background(), "markets rallied")
	require.NoError(t, err)
	b, err := m.EmbedText(context.Background(), "markets rallied")
	require.NoError(t, err)
	c, err := m.EmbedText(context.Background(), "storm warning")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, DefaultDimension)

	var sum float64
	for _, x := range a {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-4)
}

func TestMockEmbedder_PinnedVector(t *testing.T) {
	m := NewMockEmbedder().WithVector("pinned", []float32{1, 0})
	m.Dimension = 2

	vectors, err := m.EmbedTexts(context.Background(), []string{"pinned", "other"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Len(t, vectors[1], 2)
}

func TestMockEmbedder_Counters(t *testing.T) {
	m := NewMockEmbedder()
	_, err := m.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	_, err = m.EmbedText(context.Background(), "c")
	require.NoError(t, err)

	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, 3, m.TextCount())
	assert.Equal(t, []string{"a", "b", "c"}, m.Embedded())

	m.Reset()
	assert.Zero(t, m.CallCount())
	assert.Zero(t, m.TextCount())
	assert.Empty(t, m.Embedded())
}

func TestMockEmbedder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockEmbedder().EmbedTexts(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockProvider(t *testing.T) {
	embedder := NewMockEmbedder()
	provider := NewMockProviderWithEmbedder(embedder)

	assert.Equal(t, MockModel, provider.Model())
	assert.Same(t, embedder, provider.Embedder())
	assert.Same(t, embedder, provider.(*MockProvider).MockEmbedder())

	require.NoError(t, provider.Close())
	assert.True(t, provider.(*MockProvider).Closed())
}
