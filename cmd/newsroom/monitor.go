package main

import (
	"fmt"
	"io"
	"time"

	"github.com/poiesic/newsroom/core"
	"github.com/poiesic/newsroom/search"
)

// printMonitor writes one line per search stage.
type printMonitor struct {
	w       io.Writer
	started time.Time
}

var _ search.SearchMonitor = (*printMonitor)(nil)

func newPrintMonitor(w io.Writer) *printMonitor {
	return &printMonitor{w: w}
}

func (m *printMonitor) printf(format string, args ...any) {
	elapsed := time.Since(m.started).Round(time.Millisecond)
	fmt.Fprintf(m.w, "[%8s] "+format+"\n", append([]any{elapsed}, args...)...)
}

func (m *printMonitor) Start(q core.SearchQuery) {
	m.started = time.Now()
	maxLength := "Infinity"
	if q.MaxLength != core.Unbounded {
		maxLength = fmt.Sprint(q.MaxLength)
	}
	m.printf("searching %q sort=%s/%s length=%d..%s date=%q cluster=%t",
		q.Term, q.SortBy, q.SortOrder, q.MinLength, maxLength, q.FilterDate, q.Cluster)
}

func (m *printMonitor) AfterSnapshot(batch *core.Batch, articles int) {
	m.printf("batch %s with %d articles", batch.Name(), articles)
}

func (m *printMonitor) AfterMatch(matched int) {
	m.printf("%d articles match", matched)
}

func (m *printMonitor) AfterFilter(articles []*core.Article) {
	m.printf("%d articles after filtering", len(articles))
}

func (m *printMonitor) AfterEmbedding(vectors int) {
	m.printf("embedded %d articles", vectors)
}

func (m *printMonitor) AfterClustering(labels []int) {
	clusters := make(map[int]struct{})
	noise := 0
	for _, label := range labels {
		if label == core.UnclusteredLabel {
			noise++
			continue
		}
		clusters[label] = struct{}{}
	}
	m.printf("%d clusters, %d unclustered", len(clusters), noise)
}

func (m *printMonitor) ClusteringFailed(err error) {
	m.printf("clustering failed: %v", err)
}

func (m *printMonitor) Finish(result *core.SearchResult) {
	if result.Error != "" {
		m.printf("done: %s", result.Error)
		return
	}
	m.printf("done: %d articles", result.TotalArticles)
}
