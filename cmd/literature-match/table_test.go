// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/literature-match/pkg/types"
)

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"x"}}, nil, false)
	assert.Contains(t, out, "A")
	assert.Contains(t, out, "x")
	assert.Empty(t, renderTable(nil, nil, nil, false))
}

func TestRenderTableRoundedStyle(t *testing.T) {
	out := renderTable([]string{"Status"}, [][]string{{"matched"}}, nil, true)
	assert.Contains(t, out, "╭")
}

func TestPrintStatsListsEveryStatus(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, types.Stats{Total: 3, Matched: 2, Unmatched: 1})

	out := buf.String()
	for _, s := range types.Statuses {
		assert.Contains(t, out, string(s))
	}
	assert.Contains(t, out, "total")
	assert.NotContains(t, out, "╭", "a buffer is not a terminal")
}

func TestPrintRefsShowsCandidates(t *testing.T) {
	var buf bytes.Buffer
	printRefs(&buf, []types.ReferenceEntry{{
		RefID:   "r1",
		RawText: "Attention is all you need",
		Match:   types.NeedsLLM(types.MethodTFIDF, 0.7),
		Candidates: []types.Candidate{
			{Citekey: "vaswani2017", Title: "Attention Is All You Need", Score: 0.7},
		},
	}})
	assert.Contains(t, buf.String(), "vaswani2017")
	assert.Contains(t, buf.String(), "needs_llm")

	buf.Reset()
	printRefs(&buf, nil)
	assert.Equal(t, "No references.\n", buf.String())
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"multi\n  line   text", 20, "multi line text"},
		{"abcdefghij", 8, "abcde..."},
		{"Müller über Straße", 10, "Müller ..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.n), tt.in)
	}
}

func TestParseStatus(t *testing.T) {
	st, err := parseStatus("needs_review")
	require.NoError(t, err)
	assert.Equal(t, types.StatusNeedsReview, st)

	_, err = parseStatus("maybe")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "maybe"))
}
