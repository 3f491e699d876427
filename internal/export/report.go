// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/scholar-search/internal/search"
	"github.com/pdiddy/scholar-search/pkg/types"
)

// reportNow stamps text reports. Tests replace it.
var reportNow = time.Now

// WriteReport writes a plain-text literature report: a header describing
// the search followed by one numbered block per result.
func WriteReport(w io.Writer, q types.Query, out search.SearchOutput) error {
	var b strings.Builder

	rule := strings.Repeat("=", 80)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "LITERATURE SEARCH REPORT")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Query:      %s\n", q.Text)
	fmt.Fprintf(&b, "Generated:  %s\n", reportNow().Format("2006-01-02 15:04:05"))
	if len(q.Providers) > 0 {
		fmt.Fprintf(&b, "Providers:  %s\n", strings.Join(q.Providers, ", "))
	}
	if q.MinYear > 0 {
		fmt.Fprintf(&b, "Since:      %d\n", q.MinYear)
	}
	if q.OpenAccessOnly {
		fmt.Fprintln(&b, "Access:     open access only")
	}
	fmt.Fprintf(&b, "Results:    %d (%d duplicates removed, %d enriched)\n",
		len(out.Results), out.DupsRemoved, out.Enriched)
	for _, e := range out.ProviderErrors {
		fmt.Fprintf(&b, "Warning:    %s\n", e)
	}
	fmt.Fprintln(&b, rule)

	for i, r := range out.Results {
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, orNA(r.Title))
		fmt.Fprintf(&b, "    Source:    %s\n", orNA(r.Source))
		fmt.Fprintf(&b, "    Year:      %s\n", orNA(r.Year))
		fmt.Fprintf(&b, "    Journal:   %s\n", orNA(r.Journal))
		fmt.Fprintf(&b, "    Authors:   %s\n", orNA(r.Authors))
		fmt.Fprintf(&b, "    Citations: %d\n", r.CitationCount())
		fmt.Fprintf(&b, "    Relevance: %d\n", r.RelevanceScore)
		fmt.Fprintf(&b, "    URL:       %s\n", orNA(r.URL))
		fmt.Fprintf(&b, "    PDF:       %s\n", orNA(r.PDFURL))
		fmt.Fprintf(&b, "    Abstract:  %s\n", orNA(r.Abstract))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
