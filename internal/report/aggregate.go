// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"github.com/pdiddy/literature-match/internal/library"
	"github.com/pdiddy/literature-match/pkg/types"
)

// Run is everything one resolution run produced.
type Run struct {
	DocPath string
	Source  library.Source
	Library *library.Index
	Refs    []types.ReferenceEntry

	// Warnings in the order they should appear: input, library, then
	// per-reference.
	Warnings []string
}

// Aggregate builds the report for a completed run.
func Aggregate(run Run) types.Report {
	meta := types.ReportMeta{
		DocPath:          run.DocPath,
		Source:           run.Source.Location,
		ZoteroEndpoint:   types.StringPtr(run.Source.Endpoint),
		LibraryCachePath: types.StringPtr(run.Source.CachePath),
		Warnings:         append([]string{}, run.Warnings...),
	}
	if run.Library != nil {
		meta.LibraryItemCount = run.Library.Len()
		meta.LibraryTotalItemCount = run.Library.TotalItems()
	}
	if len(run.Refs) == 0 {
		meta.Warnings = appendOnce(meta.Warnings, "No references found")
	}
	return Build(meta, run.Refs)
}

func appendOnce(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
