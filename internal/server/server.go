// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the aggregator over HTTP: a JSON search endpoint,
// the provider list, saved history, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pdiddy/scholar-search/internal/export"
	"github.com/pdiddy/scholar-search/internal/history"
	"github.com/pdiddy/scholar-search/internal/search"
	"github.com/pdiddy/scholar-search/pkg/types"
)

// Searcher runs aggregated searches. *search.Aggregator implements it.
type Searcher interface {
	Search(ctx context.Context, q types.Query) (search.SearchOutput, error)
	Providers() []string
}

// History is the subset of the history store the API serves.
type History interface {
	Record(ctx context.Context, q types.Query, out search.SearchOutput) error
	Recent(ctx context.Context, filter string, limit int) ([]history.Entry, error)
	Output(ctx context.Context, id string) (types.Query, search.SearchOutput, error)
}

// Options configures a Server.
type Options struct {
	Addr            string
	ShutdownTimeout time.Duration

	// Defaults fills query fields the request leaves unset.
	Defaults types.Query

	// History records searches and serves /history. Nil disables both.
	History History

	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	Logger zerolog.Logger
}

// Server is the HTTP API.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	searcher   Searcher
	opts       Options
	logger     zerolog.Logger
}

// New builds the router and the underlying http.Server.
func New(searcher Searcher, opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		searcher: searcher,
		opts:     opts,
		logger:   opts.Logger.With().Str("component", "http-server").Logger(),
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler. Tests serve it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.healthHandler)
	r.Get("/providers", s.providersHandler)
	r.Get("/search", s.searchHandler)

	if s.opts.History != nil {
		r.Get("/history", s.historyHandler)
		r.Get("/history/{searchID}", s.historyShowHandler)
	}
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	s.logger.Info().Str("address", ln.Addr().String()).Msg("HTTP server starting")

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("HTTP server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) providersHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"providers": s.searcher.Providers()})
}

// searchHandler runs a search from query parameters. format=csv returns
// the CSV export instead of JSON.
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.searcher.Search(r.Context(), q)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.opts.History != nil {
		if err := s.opts.History.Record(r.Context(), q, out); err != nil {
			s.logger.Warn().Err(err).Str("search_id", out.SearchID).Msg("recording history failed")
		}
	}

	s.writeOutput(w, r, q, out)
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.opts.History.Recent(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"searches": entries})
}

func (s *Server) historyShowHandler(w http.ResponseWriter, r *http.Request) {
	q, out, err := s.opts.History.Output(r.Context(), chi.URLParam(r, "searchID"))
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeOutput(w, r, q, out)
}

func (s *Server) writeOutput(w http.ResponseWriter, r *http.Request, q types.Query, out search.SearchOutput) {
	if out.Results == nil {
		out.Results = []types.Record{}
	}
	if strings.EqualFold(r.URL.Query().Get("format"), string(export.FormatCSV)) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="results.csv"`)
		if err := export.WriteCSV(w, out.Results); err != nil {
			s.logger.Warn().Err(err).Msg("writing CSV response failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Query types.Query `json:"query"`
		search.SearchOutput
	}{q, out})
}

// parseQuery reads the search parameters, filling unset ones from the
// server defaults.
func (s *Server) parseQuery(r *http.Request) (types.Query, error) {
	v := r.URL.Query()
	q := s.opts.Defaults
	q.Text = v.Get("q")

	if p := v.Get("providers"); p != "" {
		q.Providers = splitList(p)
	}
	if len(q.Providers) == 0 {
		q.Providers = s.searcher.Providers()
	}

	limit, err := intParam(r, "limit")
	if err != nil {
		return q, err
	}
	if limit > 0 {
		q.Limit = limit
	}

	minYear, err := intParam(r, "min_year")
	if err != nil {
		return q, err
	}
	if minYear > 0 {
		q.MinYear = minYear
	}

	if oa := v.Get("open_access"); oa != "" {
		b, err := strconv.ParseBool(oa)
		if err != nil {
			return q, fmt.Errorf("invalid open_access %q", oa)
		}
		q.OpenAccessOnly = b
	}
	return q, nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
