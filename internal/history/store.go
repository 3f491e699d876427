// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a local SQLite log of searches and their ranked
// results so earlier searches can be listed and re-exported without
// querying the providers again.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/scholar-search/internal/search"
	"github.com/pdiddy/scholar-search/pkg/types"
)

// DefaultRecent is the number of entries Recent returns when no limit is given.
const DefaultRecent = 20

// ErrNotFound is returned when a search ID is not in the history.
var ErrNotFound = errors.New("search not found")

// Store manages the history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Entry summarizes one recorded search.
type Entry struct {
	ID             string    `json:"id" yaml:"id"`
	Query          string    `json:"query" yaml:"query"`
	Providers      []string  `json:"providers" yaml:"providers"`
	MinYear        int       `json:"min_year,omitempty" yaml:"min_year,omitempty"`
	Limit          int       `json:"limit" yaml:"limit"`
	OpenAccessOnly bool      `json:"open_access_only,omitempty" yaml:"open_access_only,omitempty"`
	Results        int       `json:"results" yaml:"results"`
	DupsRemoved    int       `json:"duplicates_removed" yaml:"duplicates_removed"`
	Enriched       int       `json:"enriched" yaml:"enriched"`
	ProviderErrors []string  `json:"provider_errors,omitempty" yaml:"provider_errors,omitempty"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}

// QueryParams rebuilds the query the entry was recorded for.
func (e Entry) QueryParams() types.Query {
	return types.Query{
		Text:           e.Query,
		MinYear:        e.MinYear,
		Limit:          e.Limit,
		OpenAccessOnly: e.OpenAccessOnly,
		Providers:      e.Providers,
	}
}

// Open opens or creates the history database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			providers TEXT,
			min_year INTEGER,
			result_limit INTEGER,
			open_access INTEGER,
			result_count INTEGER,
			dups_removed INTEGER,
			enriched INTEGER,
			provider_errors TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			search_id TEXT NOT NULL REFERENCES searches(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			source TEXT,
			title TEXT NOT NULL,
			authors TEXT,
			journal TEXT,
			year TEXT,
			abstract TEXT,
			citations INTEGER,
			url TEXT,
			pdf_url TEXT,
			doi TEXT,
			relevance_score INTEGER,
			enriched INTEGER,
			PRIMARY KEY (search_id, rank)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_created_at ON searches(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_results_doi ON results(doi)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a search and its ranked results in one transaction.
func (s *Store) Record(ctx context.Context, q types.Query, out search.SearchOutput) error {
	if out.SearchID == "" {
		return fmt.Errorf("recording search: missing search id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	providersJSON, _ := json.Marshal(q.Providers)
	errorsJSON, _ := json.Marshal(out.ProviderErrors)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO searches (id, query, providers, min_year, result_limit, open_access,
			result_count, dups_removed, enriched, provider_errors, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		out.SearchID, q.Text, string(providersJSON), q.MinYear, q.Limit, q.OpenAccessOnly,
		len(out.Results), out.DupsRemoved, out.Enriched, string(errorsJSON),
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting search: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (search_id, rank, source, title, authors, journal, year,
			abstract, citations, url, pdf_url, doi, relevance_score, enriched)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range out.Results {
		var citations sql.NullInt64
		if r.Citations != nil {
			citations = sql.NullInt64{Int64: int64(*r.Citations), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			out.SearchID, i+1, r.Source, r.Title, r.Authors, r.Journal, r.Year,
			r.Abstract, citations, r.URL, r.PDFURL, r.DOI, r.RelevanceScore, r.Enriched,
		)
		if err != nil {
			return fmt.Errorf("inserting result %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// Recent returns the most recent searches, newest first. A non-empty
// filter keeps only searches whose query text contains it, ignoring case.
func (s *Store) Recent(ctx context.Context, filter string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecent
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT id, query, providers, min_year, result_limit, open_access,
			result_count, dups_removed, enriched, provider_errors, created_at
		FROM searches`)
	if filter = strings.TrimSpace(filter); filter != "" {
		qb.WriteString(` WHERE query LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter)+"%")
	}
	qb.WriteString(` ORDER BY created_at DESC, rowid DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying searches: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the entry for one search.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, providers, min_year, result_limit, open_access,
			result_count, dups_removed, enriched, provider_errors, created_at
		FROM searches WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// Results returns the ranked results recorded for a search, in rank order.
func (s *Store) Results(ctx context.Context, id string) ([]types.Record, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source, title, authors, journal, year, abstract, citations,
			url, pdf_url, doi, relevance_score, enriched
		FROM results WHERE search_id = ? ORDER BY rank`, id)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		var (
			r         types.Record
			citations sql.NullInt64
		)
		if err := rows.Scan(&r.Source, &r.Title, &r.Authors, &r.Journal, &r.Year,
			&r.Abstract, &citations, &r.URL, &r.PDFURL, &r.DOI,
			&r.RelevanceScore, &r.Enriched); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		if citations.Valid {
			r.Citations = types.IntPtr(int(citations.Int64))
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Output rebuilds the search output recorded under id.
func (s *Store) Output(ctx context.Context, id string) (types.Query, search.SearchOutput, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return types.Query{}, search.SearchOutput{}, err
	}
	records, err := s.Results(ctx, id)
	if err != nil {
		return types.Query{}, search.SearchOutput{}, err
	}
	return e.QueryParams(), search.SearchOutput{
		SearchID:       e.ID,
		Results:        records,
		RawCount:       e.Results + e.DupsRemoved,
		DupsRemoved:    e.DupsRemoved,
		Enriched:       e.Enriched,
		ProviderErrors: e.ProviderErrors,
	}, nil
}

// Delete removes a search and its results.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM searches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting search: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e              Entry
		providersJSON  sql.NullString
		errorsJSON     sql.NullString
		createdAt      string
		minYear, limit sql.NullInt64
	)
	if err := sc.Scan(&e.ID, &e.Query, &providersJSON, &minYear, &limit, &e.OpenAccessOnly,
		&e.Results, &e.DupsRemoved, &e.Enriched, &errorsJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scanning search: %w", err)
	}
	e.MinYear = int(minYear.Int64)
	e.Limit = int(limit.Int64)
	if providersJSON.Valid {
		json.Unmarshal([]byte(providersJSON.String), &e.Providers)
	}
	if errorsJSON.Valid {
		json.Unmarshal([]byte(errorsJSON.String), &e.ProviderErrors)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		e.CreatedAt = t
	}
	return e, nil
}

// escapeLike escapes LIKE wildcards so the filter matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
