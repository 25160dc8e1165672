package search

import (
	"fmt"
	"slices"

	"github.com/poiesic/newsroom/core"
)

// Assemble builds the unclustered result for term over the sorted articles.
func Assemble(term string, articles []*core.Article) *core.SearchResult {
	if articles == nil {
		articles = []*core.Article{}
	}
	return &core.SearchResult{
		SearchTerm:    term,
		TotalArticles: len(articles),
		Articles:      articles,
	}
}

// AssembleClusters builds a clustered result. labels[i] is the label of
// articles[i]. Groups are ordered by ascending label with the unclustered
// group last; each group keeps the order of articles.
func AssembleClusters(term string, articles []*core.Article, labels []int) (*core.SearchResult, error) {
	if len(labels) != len(articles) {
		return nil, fmt.Errorf("%d labels for %d articles", len(labels), len(articles))
	}

	byLabel := make(map[int][]*core.Article)
	order := make([]int, 0)
	for i, label := range labels {
		if label < core.UnclusteredLabel {
			return nil, fmt.Errorf("invalid cluster label %d", label)
		}
		if _, ok := byLabel[label]; !ok {
			order = append(order, label)
		}
		byLabel[label] = append(byLabel[label], articles[i])
	}

	slices.SortFunc(order, func(a, b int) int {
		switch {
		case a == b:
			return 0
		case a == core.UnclusteredLabel:
			return 1
		case b == core.UnclusteredLabel:
			return -1
		}
		return a - b
	})

	groups := make([]core.ClusterGroup, len(order))
	for i, label := range order {
		groups[i] = core.ClusterGroup{Label: label, Articles: byLabel[label]}
	}

	return &core.SearchResult{
		SearchTerm:    term,
		TotalArticles: len(articles),
		Clustered:     true,
		Clusters:      groups,
	}, nil
}
