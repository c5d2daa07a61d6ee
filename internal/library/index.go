// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library builds the read-only lookup structures over a reference
// manager export: DOI, arXiv and URL indices keyed by normalized identifier,
// and the citekey to record map.
package library

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/literature-match/internal/normalize"
	"github.com/pdiddy/literature-match/pkg/types"
)

// Errors returned while loading or indexing a library.
var (
	// ErrSourceUnreachable means the export could not be read at all.
	ErrSourceUnreachable = eris.New("library source unreachable")

	// ErrSourceUnparseable means the export was read but is not JSON or
	// not an item list. Items with missing fields are not an error; they
	// are indexed with empty values or skipped with a warning.
	ErrSourceUnparseable = eris.New("library source unparseable")

	// ErrEmptyLibrary means no item with a citation key was found.
	ErrEmptyLibrary = eris.New("library contains no citable items")
)

// Index is an immutable view of one library export. It is safe for
// concurrent readers once built.
type Index struct {
	records map[string]types.LibraryRecord
	order   []string

	byDOI   map[string]string
	byArxiv map[string]string
	byURL   map[string][]string

	totalItems int
	warnings   []string
}

// Build indexes a decoded Better BibTeX payload. Items missing optional
// fields are indexed with empty values; items missing a citation key are
// counted in TotalItems but not indexed.
func Build(data any) (*Index, error) {
	items, ok := iterItems(data)
	if !ok {
		return nil, eris.Wrapf(ErrSourceUnparseable, "expected an item list or an object with items[], got %T", data)
	}

	records := make([]types.LibraryRecord, 0, len(items))
	skipped := 0
	for _, item := range items {
		rec, ok := summarizeItem(item)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	idx, err := FromRecords(records, len(items))
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		idx.warnings = append([]string{fmt.Sprintf("Skipped %d library item(s) without citationKey", skipped)}, idx.warnings...)
	}
	return idx, nil
}

// FromRecords indexes already summarized records in the given order.
// totalItems is the size of the export the records came from. Duplicate
// citekeys keep the first record. Identifiers are normalized here, so
// records may carry them as written in the source.
func FromRecords(records []types.LibraryRecord, totalItems int) (*Index, error) {
	idx := &Index{
		records:    make(map[string]types.LibraryRecord, len(records)),
		byDOI:      make(map[string]string),
		byArxiv:    make(map[string]string),
		byURL:      make(map[string][]string),
		totalItems: totalItems,
	}

	doiKeys := make(map[string][]string)
	arxivKeys := make(map[string][]string)
	var doiOrder, arxivOrder, urlOrder []string

	for _, rec := range records {
		if _, dup := idx.records[rec.Citekey]; dup {
			idx.warnings = append(idx.warnings, fmt.Sprintf("Duplicate citekey %s: keeping first record", rec.Citekey))
			continue
		}
		idx.records[rec.Citekey] = rec
		idx.order = append(idx.order, rec.Citekey)

		if doi := normalize.DOI(types.Deref(rec.DOI)); doi != "" {
			if len(doiKeys[doi]) == 0 {
				doiOrder = append(doiOrder, doi)
				idx.byDOI[doi] = rec.Citekey
			}
			doiKeys[doi] = append(doiKeys[doi], rec.Citekey)
		}
		if arxiv := normalize.Arxiv(types.Deref(rec.Arxiv)); arxiv != "" {
			if len(arxivKeys[arxiv]) == 0 {
				arxivOrder = append(arxivOrder, arxiv)
				idx.byArxiv[arxiv] = rec.Citekey
			}
			arxivKeys[arxiv] = append(arxivKeys[arxiv], rec.Citekey)
		}
		if u := normalize.URL(types.Deref(rec.URL)); u != "" {
			if len(idx.byURL[u]) == 0 {
				urlOrder = append(urlOrder, u)
			}
			idx.byURL[u] = append(idx.byURL[u], rec.Citekey)
		}
	}

	for _, doi := range doiOrder {
		if keys := doiKeys[doi]; len(keys) > 1 {
			idx.warnings = append(idx.warnings, fmt.Sprintf("Duplicate DOI index for %s: [%s] (using %s)", doi, strings.Join(keys, " "), keys[0]))
		}
	}
	for _, id := range arxivOrder {
		if keys := arxivKeys[id]; len(keys) > 1 {
			idx.warnings = append(idx.warnings, fmt.Sprintf("Duplicate arXiv index for %s: [%s] (using %s)", id, strings.Join(keys, " "), keys[0]))
		}
	}
	for _, u := range urlOrder {
		if keys := idx.byURL[u]; len(keys) > 1 {
			idx.warnings = append(idx.warnings, fmt.Sprintf("Duplicate URL index for %s: [%s]", u, strings.Join(keys, " ")))
		}
	}

	if len(idx.records) == 0 {
		return nil, eris.Wrapf(ErrEmptyLibrary, "%d item(s) read", totalItems)
	}
	return idx, nil
}

// Len returns the number of indexed records.
func (idx *Index) Len() int { return len(idx.order) }

// TotalItems returns the number of items in the export, indexed or not.
func (idx *Index) TotalItems() int { return idx.totalItems }

// Warnings returns the problems found while indexing, in discovery order.
func (idx *Index) Warnings() []string {
	return append([]string(nil), idx.warnings...)
}

// Record returns the record for citekey.
func (idx *Index) Record(citekey string) (types.LibraryRecord, bool) {
	rec, ok := idx.records[citekey]
	return rec, ok
}

// Records returns every record in library order.
func (idx *Index) Records() []types.LibraryRecord {
	out := make([]types.LibraryRecord, len(idx.order))
	for i, ck := range idx.order {
		out[i] = idx.records[ck]
	}
	return out
}

// LookupDOI normalizes raw and returns the citekey indexed under it.
func (idx *Index) LookupDOI(raw string) (string, bool) {
	doi := normalize.DOI(raw)
	if doi == "" {
		return "", false
	}
	ck, ok := idx.byDOI[doi]
	return ck, ok
}

// LookupArxiv normalizes raw and returns the citekey indexed under it.
func (idx *Index) LookupArxiv(raw string) (string, bool) {
	id := normalize.Arxiv(raw)
	if id == "" {
		return "", false
	}
	ck, ok := idx.byArxiv[id]
	return ck, ok
}

// LookupURL normalizes raw and returns every citekey indexed under it, in
// library order. More than one citekey means the URL is ambiguous.
func (idx *Index) LookupURL(raw string) []string {
	u := normalize.URL(raw)
	if u == "" {
		return nil
	}
	return append([]string(nil), idx.byURL[u]...)
}
