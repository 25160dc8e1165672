package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/poiesic/newsroom/core"
	"github.com/poiesic/newsroom/search"
)

// DefaultShutdownTimeout bounds how long Serve waits for in-flight requests.
const DefaultShutdownTimeout = 5 * time.Second

// Searcher runs one search. *search.Searcher implements it.
type Searcher interface {
	Search(ctx context.Context, q core.SearchQuery) (*core.SearchResult, error)
}

// BatchLister lists stored batches, newest first.
// storage.ArticleRepository implements it.
type BatchLister interface {
	ListBatches(ctx context.Context, limit int) ([]*core.Batch, error)
}

// Server serves the search API.
type Server struct {
	searcher        Searcher
	batches         BatchLister
	handler         http.Handler
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithShutdownTimeout sets how long Serve waits for in-flight requests once
// its context is done. Default is DefaultShutdownTimeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) error {
		if d > 0 {
			s.shutdownTimeout = d
		}
		return nil
	}
}

// NewServer creates a server answering searches with searcher and listing
// batches from batches.
func NewServer(searcher Searcher, batches BatchLister, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if batches == nil {
		return nil, ErrBatchListerRequired
	}

	s := &Server{
		searcher:        searcher,
		batches:         batches,
		shutdownTimeout: DefaultShutdownTimeout,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "server")

	mux := http.NewServeMux()
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/list-sources", s.handleListSources)
	mux.HandleFunc("/", s.handleHome)
	s.handler = s.withRequestID(s.withRecovery(withCORS(mux)))

	return s, nil
}

// Handler returns the HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve accepts connections on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	q, err := parseQuery(r.URL.Query())
	if err == nil {
		var result *core.SearchResult
		result, err = s.searcher.Search(r.Context(), q)
		if err == nil {
			writeJSON(w, http.StatusOK, result)
			return
		}
	}

	if errors.Is(err, errLengthParam) || errors.Is(err, search.ErrInvalidQuery) {
		loggerFrom(r.Context(), s.logger).Debug("rejected query", "err", err)
		writeError(w, http.StatusBadRequest, queryErrorMessage(err))
		return
	}
	loggerFrom(r.Context(), s.logger).Error("search failed", "term", q.Term, "err", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

type sourcesResponse struct {
	Sources      []string `json:"sources"`
	TotalSources int      `json:"total_sources"`
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	batches, err := s.batches.ListBatches(r.Context(), 0)
	if err != nil {
		loggerFrom(r.Context(), s.logger).Error("listing batches", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	names := make([]string, len(batches))
	for i, batch := range batches {
		names[i] = batch.Name()
	}
	writeJSON(w, http.StatusOK, sourcesResponse{Sources: names, TotalSources: len(names)})
}

type homeResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if !allowGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, homeResponse{
		Message: "News Search API",
		Endpoints: map[string]string{
			"/search":       "Search news articles (GET, params: q, sort_by, sort_order, min_length, max_length, filter_date, cluster)",
			"/list-sources": "List available news sources",
		},
	})
}

// allowGet writes a 405 for anything but GET and HEAD.
const allowedMethods = "GET, HEAD, OPTIONS"

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return true
	case http.MethodOptions:
		w.Header().Set("Allow", allowedMethods)
		w.WriteHeader(http.StatusNoContent)
		return false
	}
	w.Header().Set("Allow", allowedMethods)
	writeError(w, http.StatusMethodNotAllowed, msgNotAllowed)
	return false
}

type errorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message, Status: "error"})
}

// writeJSON writes v indented by two spaces with HTML characters unescaped.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
