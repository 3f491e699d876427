// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-search/internal/export"
	"github.com/pdiddy/scholar-search/internal/history"
	"github.com/pdiddy/scholar-search/internal/observability"
	"github.com/pdiddy/scholar-search/internal/search"
	"github.com/pdiddy/scholar-search/pkg/types"
)

type fakeSearcher struct {
	mu   sync.Mutex
	got  []types.Query
	out  search.SearchOutput
	err  error
	list []string
}

func (f *fakeSearcher) Search(_ context.Context, q types.Query) (search.SearchOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, q)
	if strings.TrimSpace(q.Text) == "" {
		return search.SearchOutput{}, search.ErrEmptyQuery
	}
	return f.out, f.err
}

func (f *fakeSearcher) Providers() []string { return f.list }

func (f *fakeSearcher) last() types.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.got[len(f.got)-1]
}

func newFake() *fakeSearcher {
	return &fakeSearcher{
		list: []string{"PubMed", "OpenAlex"},
		out: search.SearchOutput{
			SearchID: "sid-1",
			Results: []types.Record{{
				RawRecord:      types.RawRecord{Source: "PubMed", Title: "Tumor, growth", Citations: types.IntPtr(3)},
				Year:           "2020",
				RelevanceScore: 100,
			}},
			RawCount: 1,
		},
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	srv := New(newFake(), Options{Logger: zerolog.Nop()})
	rec := get(t, srv.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProviders(t *testing.T) {
	srv := New(newFake(), Options{Logger: zerolog.Nop()})
	rec := get(t, srv.Handler(), "/providers")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"providers":["PubMed","OpenAlex"]}`, rec.Body.String())
}

func TestSearchParsesParameters(t *testing.T) {
	fake := newFake()
	srv := New(fake, Options{
		Logger:   zerolog.Nop(),
		Defaults: types.Query{Limit: 7},
	})

	rec := get(t, srv.Handler(), "/search?q=cancer+therapy&providers=PubMed,%20PLOS&min_year=2018&open_access=true")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	q := fake.last()
	assert.Equal(t, "cancer therapy", q.Text)
	assert.Equal(t, []string{"PubMed", "PLOS"}, q.Providers)
	assert.Equal(t, 7, q.Limit, "limit falls back to the server default")
	assert.Equal(t, 2018, q.MinYear)
	assert.True(t, q.OpenAccessOnly)

	var body struct {
		Query    types.Query    `json:"query"`
		SearchID string         `json:"search_id"`
		Results  []types.Record `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "sid-1", body.SearchID)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "Tumor, growth", body.Results[0].Title)
}

func TestSearchDefaultsToAllProviders(t *testing.T) {
	fake := newFake()
	srv := New(fake, Options{Logger: zerolog.Nop()})

	rec := get(t, srv.Handler(), "/search?q=x&limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"PubMed", "OpenAlex"}, fake.last().Providers)
	assert.Equal(t, 3, fake.last().Limit)
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"empty query", "/search?q=%20%20"},
		{"missing query", "/search"},
		{"bad limit", "/search?q=x&limit=many"},
		{"bad min_year", "/search?q=x&min_year=recent"},
		{"bad open_access", "/search?q=x&open_access=maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(newFake(), Options{Logger: zerolog.Nop()})
			rec := get(t, srv.Handler(), tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestSearchCSV(t *testing.T) {
	srv := New(newFake(), Options{Logger: zerolog.Nop()})
	rec := get(t, srv.Handler(), "/search?q=x&format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	records, err := export.ReadCSV(rec.Body)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Tumor, growth", records[0].Title)
}

func TestHistoryEndpoints(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := New(newFake(), Options{Logger: zerolog.Nop(), History: store})
	h := srv.Handler()

	require.Equal(t, http.StatusOK, get(t, h, "/search?q=tumor").Code)

	rec := get(t, h, "/history?q=TUM")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Searches []history.Entry `json:"searches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Searches, 1)
	assert.Equal(t, "sid-1", list.Searches[0].ID)

	rec = get(t, h, "/history/sid-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Tumor, growth")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/history/nope").Code)
}

func TestHistoryDisabled(t *testing.T) {
	srv := New(newFake(), Options{Logger: zerolog.Nop()})
	assert.Equal(t, http.StatusNotFound, get(t, srv.Handler(), "/history").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("scholar_search", reg)
	metrics.AddDuplicates(2)

	srv := New(newFake(), Options{Logger: zerolog.Nop(), Gatherer: reg})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "scholar_search_duplicates_dropped_total 2")
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	srv := New(newFake(), Options{Addr: "127.0.0.1:0", Logger: zerolog.Nop()})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}
