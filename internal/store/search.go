// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/literature-match/pkg/types"
)

const defaultSearchLimit = 20

// SearchResult is a snapshot record matching a title query.
type SearchResult struct {
	Record types.LibraryRecord

	// Rank is the FTS5 bm25 rank; lower is better.
	Rank float64
}

// Search finds snapshot records whose titles contain every word of query,
// best first. limit <= 0 uses a default of 20.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+`, records_fts.rank
		FROM records_fts
		JOIN records r ON r.rowid = records_fts.rowid
		WHERE records_fts MATCH ?
		ORDER BY records_fts.rank, r.position
		LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "searching titles for %q", query)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var sr SearchResult
		rec, err := scanRecord(rows, &sr.Rank)
		if err != nil {
			return nil, err
		}
		sr.Record = rec
		results = append(results, sr)
	}
	return results, eris.Wrap(rows.Err(), "iterating search results")
}

// ftsQuery turns free text into an FTS5 query of quoted terms, so that
// punctuation in titles is never read as query syntax.
func ftsQuery(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(words))
	for _, w := range words {
		terms = append(terms, `"`+w+`"`)
	}
	return strings.Join(terms, " ")
}
