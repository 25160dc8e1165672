package cluster

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Noise is the label given to vectors that belong to no cluster.
const Noise = -1

// Default parameters.
const (
	DefaultEps        = 0.3
	DefaultMinSamples = 2
)

var (
	// ErrInvalidEps is returned for a negative or NaN eps.
	ErrInvalidEps = errors.New("eps must be a non-negative number")

	// ErrInvalidMinSamples is returned when min_samples is below 1.
	ErrInvalidMinSamples = errors.New("min_samples must be at least 1")

	// ErrDimensionMismatch is returned when input vectors differ in length.
	ErrDimensionMismatch = errors.New("vectors have different dimensions")
)

// DBSCAN clusters vectors with the DBSCAN algorithm over cosine distance.
// It holds only parameters and is safe for concurrent use.
type DBSCAN struct {
	eps        float64
	minSamples int
}

// Option configures a DBSCAN.
type Option func(*DBSCAN)

// WithEps sets the maximum cosine distance between two neighbors.
func WithEps(eps float64) Option {
	return func(d *DBSCAN) {
		d.eps = eps
	}
}

// WithMinSamples sets the neighborhood size, including the point itself,
// required for a point to be a core point.
func WithMinSamples(n int) Option {
	return func(d *DBSCAN) {
		d.minSamples = n
	}
}

// NewDBSCAN creates a clusterer with DefaultEps and DefaultMinSamples unless overridden.
func NewDBSCAN(opts ...Option) (*DBSCAN, error) {
	d := &DBSCAN{
		eps:        DefaultEps,
		minSamples: DefaultMinSamples,
	}
	for _, opt := range opts {
		opt(d)
	}
	if math.IsNaN(d.eps) || d.eps < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEps, d.eps)
	}
	if d.minSamples < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMinSamples, d.minSamples)
	}
	return d, nil
}

// Eps returns the neighbor distance threshold.
func (d *DBSCAN) Eps() float64 { return d.eps }

// MinSamples returns the core point threshold.
func (d *DBSCAN) MinSamples() int { return d.minSamples }

// Cluster returns one label per vector in input order.
// The same input and parameters always produce the same labels.
// ctx is checked between rows of the distance computation.
func (d *DBSCAN) Cluster(ctx context.Context, vectors [][]float32) ([]int, error) {
	labels := make([]int, len(vectors))
	for i := range labels {
		labels[i] = Noise
	}
	if len(vectors) == 0 {
		return labels, nil
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d values, expected %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	if len(vectors) < d.minSamples {
		return labels, nil
	}

	neighbors, err := d.neighborhoods(ctx, vectors)
	if err != nil {
		return nil, err
	}

	visited := make([]bool, len(vectors))
	next := 0
	for i := range vectors {
		if visited[i] || len(neighbors[i]) < d.minSamples {
			continue
		}
		d.expand(i, next, neighbors, labels, visited)
		next++
	}
	return labels, nil
}

// expand grows cluster label from the core point seed.
// Core points pass the cluster on to their neighbors; border points keep the
// first cluster that reached them and do not expand further.
func (d *DBSCAN) expand(seed, label int, neighbors [][]int, labels []int, visited []bool) {
	stack := []int{seed}
	visited[seed] = true
	labels[seed] = label

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(neighbors[p]) < d.minSamples {
			continue
		}
		for _, q := range neighbors[p] {
			if labels[q] != Noise {
				continue
			}
			labels[q] = label
			if !visited[q] {
				visited[q] = true
				stack = append(stack, q)
			}
		}
	}
}

// neighborhoods returns, for every point, the indices within eps including itself.
func (d *DBSCAN) neighborhoods(ctx context.Context, vectors [][]float32) ([][]int, error) {
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		norms[i] = norm(v)
	}

	neighbors := make([][]int, len(vectors))
	for i := range vectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		neighbors[i] = append(neighbors[i], i)
		for j := i + 1; j < len(vectors); j++ {
			if cosineDistance(vectors[i], vectors[j], norms[i], norms[j]) <= d.eps {
				neighbors[i] = append(neighbors[i], j)
				neighbors[j] = append(neighbors[j], i)
			}
		}
	}
	return neighbors, nil
}

// CosineDistance returns 1 - cos(a, b), clamped to [0, 2].
// A zero vector is at distance 1 from everything except itself.
func CosineDistance(a, b []float32) float64 {
	return cosineDistance(a, b, norm(a), norm(b))
}

func cosineDistance(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 1
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	dist := 1 - dot/(normA*normB)
	return min(max(dist, 0), 2)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
