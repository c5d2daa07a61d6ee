// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package refs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/literature-match/pkg/types"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var doc any
	require.NoError(t, json.Unmarshal([]byte(s), &doc))
	return doc
}

func TestParseCanonicalShape(t *testing.T) {
	list := Parse(decode(t, `{
	  "meta": {"doc_path": "paper.md", "warnings": ["upstream note"]},
	  "refs": [{
	    "ref_id": "1",
	    "line_start": 10,
	    "line_end": 11,
	    "raw_text": "Vaswani, A. et al. (2017). Attention is all you need.",
	    "parsed": {"title_guess": "Attention is all you need", "author_guess": "Vaswani", "year": "2017"}
	  }]
	}`))

	assert.Equal(t, "paper.md", list.DocPath)
	assert.Equal(t, []string{"upstream note"}, list.Warnings)
	require.Len(t, list.Refs, 1)

	ref := list.Refs[0]
	assert.Equal(t, "1", ref.RefID)
	assert.Equal(t, 10, ref.LineStart)
	assert.Equal(t, 11, ref.LineEnd)
	assert.Equal(t, "Attention is all you need", types.Deref(ref.Parsed.TitleGuess))
	assert.Equal(t, "Vaswani", types.Deref(ref.Parsed.AuthorGuess))
	assert.Equal(t, "2017", types.Deref(ref.Parsed.Year))
	assert.Nil(t, ref.Parsed.DOI)
	assert.NotNil(t, ref.Candidates)
}

func TestParseFieldAliases(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		id      string
		text    string
		start   int
		end     int
	}{
		{"id and text", `{"references": [{"id": 7, "text": "Some ref", "start_line": 3, "end_line": 4}]}`, "7", "Some ref", 3, 4},
		{"camel case", `{"items": [{"refId": "a", "rawText": "Some ref", "startLine": "5", "endLine": "6"}]}`, "a", "Some ref", 5, 6},
		{"raw lines", `{"refs": [{"number": 2, "raw_lines": ["Line one", "", "line two"], "line_range": [8, 9]}]}`, "2", "Line one\nline two", 8, 9},
		{"lines object", `{"refs": [{"ref_id": "x", "raw": "Some ref", "lines": {"start": 1, "end": 2}}]}`, "x", "Some ref", 1, 2},
		{"single line", `{"refs": [{"ref_id": "y", "raw_text": "Some ref", "line": 12}]}`, "y", "Some ref", 12, 12},
		{"no lines", `{"refs": [{"ref_id": "z", "raw_text": "Some ref"}]}`, "z", "Some ref", -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := Parse(decode(t, tt.payload))
			require.Len(t, list.Refs, 1)
			ref := list.Refs[0]
			assert.Equal(t, tt.id, ref.RefID)
			assert.Equal(t, tt.text, ref.RawText)
			assert.Equal(t, tt.start, ref.LineStart)
			assert.Equal(t, tt.end, ref.LineEnd)
		})
	}
}

func TestParseSwapsReversedRange(t *testing.T) {
	list := Parse(decode(t, `{"refs": [{"ref_id": "1", "raw_text": "r", "line_start": 9, "line_end": 4}]}`))
	require.Len(t, list.Refs, 1)
	assert.Equal(t, 4, list.Refs[0].LineStart)
	assert.Equal(t, 9, list.Refs[0].LineEnd)
	assert.Contains(t, strings.Join(list.Warnings, "\n"), "Swapped line range")
}

func TestParseBackfillsIdentifierHints(t *testing.T) {
	list := Parse(decode(t, `{"refs": [{
	  "ref_id": "1",
	  "raw_text": "LeCun, Y. (2015). Deep learning. Nature. https://doi.org/10.1038/nature14539. Accessed 2023."
	}]}`))
	require.Len(t, list.Refs, 1)
	p := list.Refs[0].Parsed

	assert.Equal(t, "10.1038/nature14539", types.Deref(p.DOI))
	assert.Equal(t, "https://doi.org/10.1038/nature14539", types.Deref(p.URL))
	assert.Equal(t, "2015", types.Deref(p.Year))
	assert.Nil(t, p.TitleGuess, "titles are never guessed")
	assert.Nil(t, p.AuthorGuess, "authors are never guessed")
}

func TestParseBackfillsArxivFromDOI(t *testing.T) {
	list := Parse(decode(t, `{"refs": [{"ref_id": "1", "raw_text": "Attention. doi:10.48550/arXiv.1706.03762"}]}`))
	require.Len(t, list.Refs, 1)
	assert.Equal(t, "1706.03762", types.Deref(list.Refs[0].Parsed.Arxiv))
}

func TestParseKeepsSuppliedHints(t *testing.T) {
	list := Parse(decode(t, `{"refs": [{
	  "ref_id": "1",
	  "raw_text": "See https://example.org/a (2001)",
	  "parsed": {"url": "https://example.org/b", "year": 1999, "doi": "  "}
	}]}`))
	p := list.Refs[0].Parsed
	assert.Equal(t, "https://example.org/b", types.Deref(p.URL))
	assert.Equal(t, "1999", types.Deref(p.Year))
	assert.Nil(t, p.DOI, "blank hints are absent")
}

func TestParseTolerance(t *testing.T) {
	list := Parse(decode(t, `[
	  "Bare string reference (2020)",
	  {"ref_id": "2"},
	  {"parsed": {}},
	  42,
	  {"ref_id": "3", "raw_text": "Odd hints", "parsed": "not an object"}
	]`))

	require.Len(t, list.Refs, 3)
	assert.Equal(t, "", list.Refs[0].RefID)
	assert.Equal(t, "2020", types.Deref(list.Refs[0].Parsed.Year))
	assert.Equal(t, "2", list.Refs[1].RefID)
	assert.Empty(t, list.Refs[1].RawText, "kept so it can be reported")
	assert.Equal(t, "3", list.Refs[2].RefID)

	warnings := strings.Join(list.Warnings, "\n")
	assert.Contains(t, warnings, "Reference without ref_id")
	assert.Contains(t, warnings, "Skipped ref with neither ref_id nor raw_text")
	assert.Contains(t, warnings, "Skipped non-object ref entry")
	assert.Contains(t, warnings, "Ignored parsed hints")
}

func TestParseDuplicateRefIDs(t *testing.T) {
	list := Parse(decode(t, `{"refs": [{"ref_id": "1", "raw_text": "a"}, {"ref_id": "1", "raw_text": "b"}]}`))
	assert.Len(t, list.Refs, 2)
	assert.Contains(t, strings.Join(list.Warnings, "\n"), `Duplicate ref_id "1"`)
}

func TestParseEmptyDocument(t *testing.T) {
	for _, payload := range []string{`{}`, `{"refs": {}}`, `"text"`, `[]`} {
		list := Parse(decode(t, payload))
		assert.Empty(t, list.Refs, payload)
		assert.Contains(t, strings.Join(list.Warnings, "\n"), "No references found", payload)
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`meta:
  doc_path: notes.md
refs:
  - ref_id: "1"
    line_start: 2
    line_end: 3
    raw_text: "He, K. (2016). Deep residual learning. arXiv:1512.03385v1"
    parsed:
      title_guess: Deep residual learning
`), 0o644))

	list, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.md", list.DocPath)
	require.Len(t, list.Refs, 1)
	ref := list.Refs[0]
	assert.Equal(t, 2, ref.LineStart)
	assert.Equal(t, 3, ref.LineEnd)
	assert.Equal(t, "1512.03385", types.Deref(ref.Parsed.Arxiv))
	assert.Equal(t, "2016", types.Deref(ref.Parsed.Year))
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	assert.True(t, eris.Is(err, ErrInputUnreadable))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{nope"), 0o644))
	_, err = LoadFile(bad)
	assert.True(t, eris.Is(err, ErrInputUnreadable))
}
