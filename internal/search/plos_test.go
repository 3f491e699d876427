// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-search/internal/httputil"
	"github.com/pdiddy/scholar-search/pkg/types"
)

const plosBody = `{
  "response": {
    "numFound": 1,
    "docs": [
      {
        "id": "10.1371/journal.pone.0000001",
        "title": "Zebrafish regeneration",
        "journal": "PLoS ONE",
        "author_display": ["A Author", "B Author", "C Author", "D Author"],
        "abstract": ["\nFirst paragraph.  ", "Second."],
        "publication_date": "2012-03-04T00:00:00Z"
      },
      {
        "id": "10.1371/journal.pone.0000002/title",
        "title": "",
        "journal": "PLoS ONE"
      }
    ]
  }
}`

func plosTestServer(t *testing.T, status int, body string, captured **http.Request) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = r
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	old := plosAPIBase
	plosAPIBase = ts.URL
	t.Cleanup(func() {
		plosAPIBase = old
		ts.Close()
	})
	return ts
}

func TestPLOSSearch(t *testing.T) {
	ts := plosTestServer(t, http.StatusOK, plosBody, nil)

	p := &PLOSProvider{Transport: Transport{Client: ts.Client()}}
	records, err := p.Search(context.Background(), types.Query{Text: "zebrafish", Limit: 5})
	require.NoError(t, err)
	require.Len(t, records, 2)

	r := records[0]
	assert.Equal(t, PLOSName, r.Source)
	assert.Equal(t, "Zebrafish regeneration", r.Title)
	assert.Equal(t, "PLoS ONE", r.Journal)
	assert.Equal(t, "A Author, B Author, C Author", r.Authors)
	assert.Equal(t, "First paragraph. Second.", r.Abstract)
	assert.Equal(t, "2012-03-04T00:00:00Z", r.RawYear)
	assert.Equal(t, "10.1371/journal.pone.0000001", r.DOI)
	assert.Equal(t, "https://journals.plos.org/plosone/article?id=10.1371/journal.pone.0000001", r.URL)
	assert.Equal(t, "https://journals.plos.org/plosone/article/file?id=10.1371/journal.pone.0000001&type=printable", r.PDFURL)
	assert.Nil(t, r.Citations)

	assert.Empty(t, records[1].Title, "blank titles are left for the dispatcher to drop")
}

func TestPLOSRequestParams(t *testing.T) {
	var req *http.Request
	ts := plosTestServer(t, http.StatusOK, `{"response":{"docs":[]}}`, &req)

	p := &PLOSProvider{Transport: Transport{Client: ts.Client()}, APIKey: "k"}
	_, err := p.Search(context.Background(), types.Query{Text: `gene "editing"`, Limit: 4, MinYear: 2015})
	require.NoError(t, err)

	q := req.URL.Query()
	assert.Equal(t, `title:"gene \"editing\"" OR abstract:"gene \"editing\""`, q.Get("q"))
	assert.Equal(t, "publication_date:[2015-01-01T00:00:00Z TO NOW]", q.Get("fq"))
	assert.Equal(t, plosFields, q.Get("fl"))
	assert.Equal(t, "4", q.Get("rows"))
	assert.Equal(t, "json", q.Get("wt"))
	assert.Equal(t, "k", q.Get("api_key"))
}

func TestPLOSHTTPError(t *testing.T) {
	old := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	t.Cleanup(func() { httputil.RetryBaseDelay = old })

	ts := plosTestServer(t, http.StatusTooManyRequests, ``, nil)
	p := &PLOSProvider{Transport: Transport{Client: ts.Client(), MaxRetries: 1}}

	_, err := p.Search(context.Background(), types.Query{Text: "x", Limit: 1})
	assert.Error(t, err)
}
