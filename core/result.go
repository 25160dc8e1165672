package core

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// UnclusteredLabel marks an article that belongs to no cluster.
const UnclusteredLabel = -1

// ClusterGroup is one named group of articles in a clustered result.
type ClusterGroup struct {
	Label    int
	Articles []*Article
}

// Name returns "cluster_N" for a cluster label and "unclustered" for noise.
func (g *ClusterGroup) Name() string {
	if g.Label == UnclusteredLabel {
		return "unclustered"
	}
	return "cluster_" + strconv.Itoa(g.Label)
}

// SearchResult is the externally visible answer to a SearchQuery.
//
// When Clustered is false the JSON form carries "articles"; when true it
// carries "clusters" instead, as an object whose keys keep the order of
// Clusters. TotalArticles always counts the filtered matches.
type SearchResult struct {
	SearchTerm    string
	TotalArticles int
	Articles      []*Article
	Clustered     bool
	Clusters      []ClusterGroup

	// Error explains an empty result caused by missing data.
	Error string
	// ClusterError explains why a requested clustering was skipped.
	ClusterError string
}

// MarshalJSON writes the result with a fixed key order.
func (r SearchResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeKey(&buf, "search_term", true)
	if err := writeValue(&buf, r.SearchTerm); err != nil {
		return nil, err
	}
	writeKey(&buf, "total_articles", false)
	buf.WriteString(strconv.Itoa(r.TotalArticles))

	if r.Clustered {
		writeKey(&buf, "clusters", false)
		buf.WriteByte('{')
		for i := range r.Clusters {
			group := &r.Clusters[i]
			writeKey(&buf, group.Name(), i == 0)
			if err := writeArticles(&buf, group.Articles); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	} else {
		writeKey(&buf, "articles", false)
		if err := writeArticles(&buf, r.Articles); err != nil {
			return nil, err
		}
	}

	if r.Error != "" {
		writeKey(&buf, "error", false)
		if err := writeValue(&buf, r.Error); err != nil {
			return nil, err
		}
	}
	if r.ClusterError != "" {
		writeKey(&buf, "cluster_error", false)
		if err := writeValue(&buf, r.ClusterError); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string, first bool) {
	if !first {
		buf.WriteByte(',')
	}
	buf.WriteString(strconv.Quote(key))
	buf.WriteByte(':')
}

func writeArticles(buf *bytes.Buffer, articles []*Article) error {
	if articles == nil {
		articles = []*Article{}
	}
	return writeValue(buf, articles)
}

// writeValue encodes v without HTML escaping so article text round-trips verbatim.
func writeValue(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
