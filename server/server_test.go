package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/newsroom/ai/mock"
	"github.com/poiesic/newsroom/core"
	"github.com/poiesic/newsroom/search"
	"github.com/poiesic/newsroom/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	snap *store.Snapshot
}

func (s staticSource) Current() *store.Snapshot { return s.snap }

type recordingSearcher struct {
	query  core.SearchQuery
	result *core.SearchResult
	err    error
	panics bool
}

func (r *recordingSearcher) Search(_ context.Context, q core.SearchQuery) (*core.SearchResult, error) {
	if r.panics {
		panic("boom")
	}
	r.query = q
	if r.result == nil && r.err == nil {
		return search.Assemble(q.Term, nil), nil
	}
	return r.result, r.err
}

type staticBatches struct {
	batches []*core.Batch
	err     error
}

func (s staticBatches) ListBatches(_ context.Context, _ int) ([]*core.Batch, error) {
	return s.batches, s.err
}

func newTestServer(t *testing.T, searcher Searcher, batches BatchLister) *Server {
	t.Helper()
	s, err := NewServer(searcher, batches)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)
	return body
}

func TestNewServer(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		s, err := NewServer(&recordingSearcher{}, staticBatches{}, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, s.Handler())
	})

	t.Run("nil searcher", func(t *testing.T) {
		_, err := NewServer(nil, staticBatches{})
		assert.ErrorIs(t, err, ErrSearcherRequired)
	})

	t.Run("nil batch lister", func(t *testing.T) {
		_, err := NewServer(&recordingSearcher{}, nil)
		assert.ErrorIs(t, err, ErrBatchListerRequired)
	})
}

func TestSearch_Defaults(t *testing.T) {
	searcher := &recordingSearcher{}
	s := newTestServer(t, searcher, staticBatches{})

	rec := get(t, s, "/search?q=%20%20cat%20")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, core.DefaultQuery("cat"), searcher.query)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestSearch_Parameters(t *testing.T) {
	searcher := &recordingSearcher{}
	s := newTestServer(t, searcher, staticBatches{})

	rec := get(t, s, "/search?q=cat&sort_by=length&sort_order=asc&min_length=10&max_length=200&filter_date=2024-01-31&cluster=TRUE")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, core.SearchQuery{
		Term:       "cat",
		SortBy:     core.SortByLength,
		SortOrder:  core.SortAsc,
		MinLength:  10,
		MaxLength:  200,
		FilterDate: "2024-01-31",
		Cluster:    true,
	}, searcher.query)
}

func TestSearch_MaxLengthInfinity(t *testing.T) {
	for _, v := range []string{"inf", "Infinity", "INF", "infinity"} {
		t.Run(v, func(t *testing.T) {
			searcher := &recordingSearcher{}
			s := newTestServer(t, searcher, staticBatches{})

			rec := get(t, s, "/search?q=cat&max_length="+v)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, core.Unbounded, searcher.query.MaxLength)
		})
	}
}

func TestSearch_ClusterFlag(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"True", true},
		{"false", false},
		{"1", false},
		{"yes", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			searcher := &recordingSearcher{}
			s := newTestServer(t, searcher, staticBatches{})

			rec := get(t, s, "/search?q=cat&cluster="+tt.value)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, searcher.query.Cluster)
		})
	}
}

func TestSearch_InvalidInput(t *testing.T) {
	// A real searcher so validation errors come from the search package.
	searcher, err := search.NewSearcher(staticSource{}, mock.NewMockEmbedder())
	require.NoError(t, err)
	t.Cleanup(searcher.Release)
	s := newTestServer(t, searcher, staticBatches{})

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"missing term", "/search", msgNoTerm},
		{"blank term", "/search?q=%20%20", msgNoTerm},
		{"non-numeric min", "/search?q=cat&min_length=abc", msgInvalidLength},
		{"empty min", "/search?q=cat&min_length=", msgInvalidLength},
		{"non-numeric max", "/search?q=cat&max_length=lots", msgInvalidLength},
		{"negative min", "/search?q=cat&min_length=-1", msgInvalidLength},
		{"length checked before term", "/search?max_length=x", msgInvalidLength},
		{"bad sort_by", "/search?q=cat&sort_by=title", msgInvalidSort},
		{"bad sort_order", "/search?q=cat&sort_order=up", msgInvalidSort},
		{"bad filter_date", "/search?q=cat&filter_date=yesterday", msgInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeError(t, rec).Error)
		})
	}
}

func TestSearch_UnexpectedError(t *testing.T) {
	s := newTestServer(t, &recordingSearcher{err: errors.New("disk on fire")}, staticBatches{})

	rec := get(t, s, "/search?q=cat")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "disk on fire", decodeError(t, rec).Error)
}

func TestSearch_ResultBody(t *testing.T) {
	article := &core.Article{
		Title:       "Tom & Jerry <cat>",
		FullContent: "a cat chases a mouse",
		Author:      "Hanna",
	}
	snap := store.NewSnapshot(core.Batch{Id: 1, ArticleCount: 1}, []*core.Article{article})
	searcher, err := search.NewSearcher(staticSource{snap: snap}, mock.NewMockEmbedder())
	require.NoError(t, err)
	t.Cleanup(searcher.Release)
	s := newTestServer(t, searcher, staticBatches{})

	rec := get(t, s, "/search?q=cat")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Tom & Jerry <cat>", "HTML characters are not escaped")
	assert.True(t, strings.HasPrefix(body, "{\n  \"search_term\": \"cat\",\n  \"total_articles\": 1,"), body)

	var decoded struct {
		SearchTerm    string         `json:"search_term"`
		TotalArticles int            `json:"total_articles"`
		Articles      []core.Article `json:"articles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, 1, decoded.TotalArticles)
	require.Len(t, decoded.Articles, 1)
	assert.Equal(t, *article, decoded.Articles[0])
}

func TestSearch_NoBatch(t *testing.T) {
	searcher, err := search.NewSearcher(staticSource{}, mock.NewMockEmbedder())
	require.NoError(t, err)
	t.Cleanup(searcher.Release)
	s := newTestServer(t, searcher, staticBatches{})

	rec := get(t, s, "/search?q=cat")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, search.NoArticlesMessage, body["error"])
	assert.Equal(t, float64(0), body["total_articles"])
	assert.Equal(t, []any{}, body["articles"])
}

func TestListSources(t *testing.T) {
	newer := &core.Batch{Id: 2, FetchedAt: time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)}
	older := &core.Batch{Id: 1, FetchedAt: time.Date(2024, 3, 1, 6, 30, 15, 0, time.UTC)}
	s := newTestServer(t, &recordingSearcher{}, staticBatches{batches: []*core.Batch{newer, older}})

	rec := get(t, s, "/list-sources")
	require.Equal(t, http.StatusOK, rec.Code)

	var body sourcesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"articles_2024-03-02_08-00-00", "articles_2024-03-01_06-30-15"}, body.Sources)
	assert.Equal(t, 2, body.TotalSources)
}

func TestListSources_Empty(t *testing.T) {
	s := newTestServer(t, &recordingSearcher{}, staticBatches{})

	rec := get(t, s, "/list-sources")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sources":[],"total_sources":0}`, rec.Body.String())
}

func TestListSources_Error(t *testing.T) {
	s := newTestServer(t, &recordingSearcher{}, staticBatches{err: errors.New("db closed")})

	rec := get(t, s, "/list-sources")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "db closed", decodeError(t, rec).Error)
}

func TestHome(t *testing.T) {
	s := newTestServer(t, &recordingSearcher{}, staticBatches{})

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body homeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "News Search API", body.Message)
	assert.Contains(t, body.Endpoints, "/search")
	assert.Contains(t, body.Endpoints, "/list-sources")
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, &recordingSearcher{}, staticBatches{})

	rec := get(t, s, "/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgNotFound, decodeError(t, rec).Error)
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &recordingSearcher{}, staticBatches{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search?q=cat", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, msgNotAllowed, decodeError(t, rec).Error)
	assert.Equal(t, allowedMethods, rec.Header().Get("Allow"))
}

func TestOptionsWithoutPreflight(t *testing.T) {
	searcher := &recordingSearcher{}
	s := newTestServer(t, searcher, staticBatches{})

	for _, path := range []string{"/", "/search?q=cat", "/list-sources"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, path, nil))

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, allowedMethods, rec.Header().Get("Allow"))
			assert.Empty(t, rec.Body.String())
		})
	}
	assert.Empty(t, searcher.query.Term, "OPTIONS must not run a search")
}

func TestPanicRecovery(t *testing.T) {
	s := newTestServer(t, &recordingSearcher{panics: true}, staticBatches{})

	rec := get(t, s, "/search?q=cat")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgInternalServer, decodeError(t, rec).Error)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, &recordingSearcher{}, staticBatches{})

	t.Run("simple request", func(t *testing.T) {
		rec := get(t, s, "/")
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/search", nil)
		req.Header.Set("Origin", "http://example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
	})
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, &recordingSearcher{}, staticBatches{})

	t.Run("generated", func(t *testing.T) {
		first := get(t, s, "/").Header().Get(RequestIDHeader)
		second := get(t, s, "/").Header().Get(RequestIDHeader)
		assert.Len(t, first, 36)
		assert.NotEqual(t, first, second)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, &recordingSearcher{}, staticBatches{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()

	resp, err := http.Get(fmt.Sprintf("http://%s/", ln.Addr()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
