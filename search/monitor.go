package search

import (
	"github.com/poiesic/newsroom/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// AfterEmbedding and AfterClustering run on a pool worker and may still fire
// after Finish when a search gave up waiting for clustering.
type SearchMonitor interface {
	Start(query core.SearchQuery)
	AfterSnapshot(batch *core.Batch, articles int)
	AfterMatch(matched int)
	AfterFilter(articles []*core.Article)
	AfterEmbedding(vectors int)
	AfterClustering(labels []int)
	ClusteringFailed(err error)
	Finish(result *core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.SearchQuery)           {}
func (n *noopMonitor) AfterSnapshot(_ *core.Batch, _ int) {}
func (n *noopMonitor) AfterMatch(_ int)                   {}
func (n *noopMonitor) AfterFilter(_ []*core.Article)      {}
func (n *noopMonitor) AfterEmbedding(_ int)               {}
func (n *noopMonitor) AfterClustering(_ []int)            {}
func (n *noopMonitor) ClusteringFailed(_ error)           {}
func (n *noopMonitor) Finish(_ *core.SearchResult)        {}
