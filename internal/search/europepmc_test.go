// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-search/pkg/types"
)

const europePMCBody = `{
  "hitCount": 2,
  "resultList": {
    "result": [
      {
        "id": "33456789",
        "source": "MED",
        "title": "Gut microbiota in <i>obesity</i>.",
        "authorString": "Smith J, Doe A, Roe B, Poe C.",
        "journalInfo": {"journal": {"title": "Nature Reviews"}},
        "pubYear": "2021",
        "abstractText": "Background: the microbiome.",
        "citedByCount": 12,
        "doi": "10.1038/s41579-021-00001-1",
        "isOpenAccess": "Y",
        "fullTextUrlList": {"fullTextUrl": [
          {"availability": "Open access", "documentStyle": "html", "url": "https://europepmc.org/articles/PMC1"},
          {"availability": "Open access", "documentStyle": "pdf", "url": "https://europepmc.org/articles/PMC1?pdf=render"}
        ]}
      },
      {
        "id": "PPR1",
        "source": "PPR",
        "title": "Preprint only",
        "journalTitle": "bioRxiv",
        "pubYear": 2020,
        "citedByCount": "3"
      }
    ]
  }
}`

func europePMCTestServer(t *testing.T, status int, body string, captured **http.Request) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = r
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	old := europePMCAPIBase
	europePMCAPIBase = ts.URL
	t.Cleanup(func() {
		europePMCAPIBase = old
		ts.Close()
	})
	return ts
}

func TestEuropePMCSearch(t *testing.T) {
	ts := europePMCTestServer(t, http.StatusOK, europePMCBody, nil)

	p := &EuropePMCProvider{Transport: Transport{Client: ts.Client()}}
	records, err := p.Search(context.Background(), types.Query{Text: "microbiota", Limit: 5})
	require.NoError(t, err)
	require.Len(t, records, 2)

	r := records[0]
	assert.Equal(t, EuropePMCName, r.Source)
	assert.Equal(t, "Gut microbiota in obesity.", r.Title)
	assert.Equal(t, "Smith J, Doe A, Roe B", r.Authors)
	assert.Equal(t, "Nature Reviews", r.Journal)
	assert.Equal(t, "2021", r.RawYear)
	assert.Equal(t, 12, r.CitationCount())
	assert.Equal(t, "10.1038/s41579-021-00001-1", r.DOI)
	assert.Equal(t, "https://europepmc.org/articles/PMC1?pdf=render", r.PDFURL)
	assert.Equal(t, "https://europepmc.org/article/MED/33456789", r.URL)

	pre := records[1]
	assert.Equal(t, "bioRxiv", pre.Journal)
	assert.Equal(t, "2020", pre.RawYear)
	assert.Equal(t, 3, pre.CitationCount())
	assert.Empty(t, pre.PDFURL)
}

func TestEuropePMCRequestParams(t *testing.T) {
	withNow(t, 2026)
	var req *http.Request
	ts := europePMCTestServer(t, http.StatusOK, `{"resultList":{"result":[]}}`, &req)

	p := &EuropePMCProvider{Transport: Transport{Client: ts.Client()}}
	_, err := p.Search(context.Background(), types.Query{Text: "malaria", Limit: 8, MinYear: 2018, OpenAccessOnly: true})
	require.NoError(t, err)

	q := req.URL.Query()
	assert.Equal(t, "malaria AND PUB_YEAR:[2018 TO 2026] AND (OPEN_ACCESS:y)", q.Get("query"))
	assert.Equal(t, "8", q.Get("pageSize"))
	assert.Equal(t, "json", q.Get("format"))
	assert.Equal(t, "core", q.Get("resultType"))
}

func TestEuropePMCHTTPError(t *testing.T) {
	ts := europePMCTestServer(t, http.StatusServiceUnavailable, ``, nil)
	p := &EuropePMCProvider{Transport: Transport{Client: ts.Client()}}
	_, err := p.Search(context.Background(), types.Query{Text: "x", Limit: 1})
	assert.Error(t, err)
}

func TestEuropePMCAuthors(t *testing.T) {
	assert.Equal(t, "", europePMCAuthors(""))
	assert.Equal(t, "Smith J", europePMCAuthors("Smith J."))
	assert.Equal(t, "A, B, C", europePMCAuthors("A, B, C, D, E."))
}
