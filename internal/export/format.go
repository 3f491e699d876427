// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders aggregated search results for people and tools:
// terminal tables, text reports, CSV, JSON, CSL-YAML for reference
// managers, and YAML query files that can be reloaded without re-querying.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/scholar-search/internal/search"
	"github.com/pdiddy/scholar-search/pkg/types"
)

// Format names an output format.
type Format string

// Supported output formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatText  Format = "text"
	FormatCSL   Format = "csl"
	FormatYAML  Format = "yaml"
)

// titleWidth is the title column width of the table format.
const titleWidth = 60

// Formats lists every supported format.
var Formats = []Format{FormatTable, FormatJSON, FormatCSV, FormatText, FormatCSL, FormatYAML}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of %s)", s, joinFormats())
}

// FormatForPath picks a format from a file extension, defaulting to CSV.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".txt":
		return FormatText
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatCSV
	}
}

// Write renders out in format f to w. The query is used by formats that
// record what was searched.
func Write(w io.Writer, f Format, q types.Query, out search.SearchOutput) error {
	switch f {
	case FormatTable:
		FormatTableTo(w, out)
		return nil
	case FormatJSON:
		return FormatJSONTo(w, out)
	case FormatCSV:
		return WriteCSV(w, out.Results)
	case FormatText:
		return WriteReport(w, q, out)
	case FormatCSL:
		return FormatCSLTo(w, out)
	case FormatYAML:
		return EncodeQueryFile(w, NewQueryFile(q, out))
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// WriteFile renders out to path in the format implied by its extension,
// unless f is set.
func WriteFile(path string, f Format, q types.Query, out search.SearchOutput) error {
	if f == "" {
		f = FormatForPath(path)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(file, f, q, out); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// FormatTableTo writes results as a human-readable table to w.
func FormatTableTo(w io.Writer, out search.SearchOutput) {
	if len(out.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-7s  %-5s  %-9s  %s\n",
		"Rank", "Title", "Authors", "Year", "Score", "Citations", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 130))

	for i, r := range out.Results {
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-7s  %-5d  %-9d  %s\n",
			i+1, truncate(r.Title, titleWidth), truncate(firstAuthor(r.Authors), 20),
			r.Year, r.RelevanceScore, r.CitationCount(), r.Source)
	}

	fmt.Fprintf(w, "\n%d results", len(out.Results))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	if out.Enriched > 0 {
		fmt.Fprintf(w, " (%d enriched)", out.Enriched)
	}
	fmt.Fprintln(w)
}

// FormatJSONTo writes results as indented JSON to w.
func FormatJSONTo(w io.Writer, out search.SearchOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Results)
}

// firstAuthor shortens an author list to its first name plus "et al.".
func firstAuthor(authors string) string {
	first, _, more := strings.Cut(authors, ",")
	if more {
		return strings.TrimSpace(first) + " et al."
	}
	return first
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func joinFormats() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
