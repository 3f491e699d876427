// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/pdiddy/scholar-search/pkg/types"
)

// NotAvailable fills empty text fields in exported records.
const NotAvailable = "N/A"

// CSVHeader is the column order of exported CSV files.
var CSVHeader = []string{
	"source", "title", "citations", "relevance_score", "year",
	"journal", "authors", "url", "pdf_url", "abstract",
}

// utf8BOM lets spreadsheet applications detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes records as UTF-8 CSV with a byte order mark and a header
// row. Empty text fields become NotAvailable and unknown citation counts 0.
func WriteCSV(w io.Writer, records []types.Record) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range records {
		row := []string{
			orNA(r.Source),
			orNA(r.Title),
			strconv.Itoa(r.CitationCount()),
			strconv.Itoa(r.RelevanceScore),
			orNA(r.Year),
			orNA(r.Journal),
			orNA(r.Authors),
			orNA(r.URL),
			orNA(r.PDFURL),
			orNA(r.Abstract),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file written by WriteCSV. NotAvailable reads back as the
// empty string.
func ReadCSV(r io.Reader) ([]types.Record, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(CSVHeader)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("reading CSV: missing header")
	}

	records := make([]types.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		citations, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid citations %q: %w", i+2, row[2], err)
		}
		score, err := strconv.Atoi(row[3])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid relevance_score %q: %w", i+2, row[3], err)
		}
		records = append(records, types.Record{
			RawRecord: types.RawRecord{
				Source:    fromNA(row[0]),
				Title:     fromNA(row[1]),
				Citations: types.IntPtr(citations),
				Journal:   fromNA(row[5]),
				Authors:   fromNA(row[6]),
				URL:       fromNA(row[7]),
				PDFURL:    fromNA(row[8]),
				Abstract:  fromNA(row[9]),
			},
			RelevanceScore: score,
			Year:           fromNA(row[4]),
		})
	}
	return records, nil
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

func fromNA(s string) string {
	if s == NotAvailable {
		return ""
	}
	return s
}
