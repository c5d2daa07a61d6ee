// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/literature-match/internal/library"
	"github.com/pdiddy/literature-match/pkg/types"
)

func sampleRefs() []types.ReferenceEntry {
	rec := types.LibraryRecord{Citekey: "schrodinger1926", ItemKey: "S1", Title: "Quantisierung als Eigenwertproblem (Schrödinger)"}
	return []types.ReferenceEntry{
		{
			RefID:      "1",
			LineStart:  3,
			LineEnd:    4,
			RawText:    "Schrödinger, E. (1926). Quantisierung als Eigenwertproblem <I>.",
			Match:      types.Matched(types.MethodDOI, "schrodinger1926", "S1", 1),
			Candidates: []types.Candidate{types.NewCandidate(rec, 1)},
		},
		{RefID: "2", LineStart: -1, LineEnd: -1, RawText: "Unknown", Match: types.Unmatched(types.MethodNone, 0)},
		{
			RefID:      "3",
			RawText:    "Ambiguous",
			Match:      types.NeedsLLM(types.MethodTFIDF, 0.5),
			Candidates: []types.Candidate{types.NewCandidate(rec, 0.5)},
		},
	}
}

func TestBuildFillsMeta(t *testing.T) {
	rep := Build(types.ReportMeta{DocPath: "paper.md"}, sampleRefs())

	assert.Len(t, rep.Meta.RunID, 36)
	assert.True(t, strings.HasSuffix(rep.Meta.GeneratedAt, "Z"))
	assert.NotNil(t, rep.Meta.Warnings)
	assert.NotNil(t, rep.Refs[1].Candidates)
	assert.Equal(t, types.Stats{Total: 3, Matched: 1, NeedsLLM: 1, Unmatched: 1}, rep.Stats)
}

func TestBuildKeepsSuppliedRunID(t *testing.T) {
	rep := Build(types.ReportMeta{RunID: "fixed", GeneratedAt: "2026-01-01T00:00:00Z"}, nil)
	assert.Equal(t, "fixed", rep.Meta.RunID)
	assert.Equal(t, "2026-01-01T00:00:00Z", rep.Meta.GeneratedAt)
	assert.NotNil(t, rep.Refs)
	assert.Equal(t, types.Stats{}, rep.Stats)
}

func TestTimestamp(t *testing.T) {
	loc := time.FixedZone("X", 2*60*60)
	ts := time.Date(2026, 3, 4, 12, 30, 15, 999, loc)
	assert.Equal(t, "2026-03-04T10:30:15Z", Timestamp(ts))
}

func TestAggregate(t *testing.T) {
	idx, err := library.FromRecords([]types.LibraryRecord{{Citekey: "a"}, {Citekey: "b"}}, 3)
	require.NoError(t, err)

	rep := Aggregate(Run{
		DocPath:  "paper.md",
		Source:   library.Source{Location: "cache.json", CachePath: "cache.json"},
		Library:  idx,
		Refs:     sampleRefs(),
		Warnings: []string{"input warning", "library warning"},
	})

	assert.Equal(t, "paper.md", rep.Meta.DocPath)
	assert.Equal(t, "cache.json", rep.Meta.Source)
	assert.Equal(t, "cache.json", types.Deref(rep.Meta.LibraryCachePath))
	assert.Nil(t, rep.Meta.ZoteroEndpoint)
	assert.Equal(t, 2, rep.Meta.LibraryItemCount)
	assert.Equal(t, 3, rep.Meta.LibraryTotalItemCount)
	assert.Equal(t, []string{"input warning", "library warning"}, rep.Meta.Warnings)
}

func TestAggregateNoReferences(t *testing.T) {
	rep := Aggregate(Run{Warnings: []string{"No references found"}})
	assert.Empty(t, rep.Refs)
	assert.NotNil(t, rep.Refs)
	assert.Equal(t, []string{"No references found"}, rep.Meta.Warnings)
}

func TestEncodeKeepsUnicode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Build(types.ReportMeta{RunID: "r", GeneratedAt: "t"}, sampleRefs())))
	out := buf.String()

	assert.Contains(t, out, "Schrödinger")
	assert.Contains(t, out, "<I>")
	assert.NotContains(t, out, `\u00f6`)
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, "\n  \"meta\": {")
	assert.Contains(t, out, `"candidates": []`)
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", DefaultFileName)
	rep := Build(types.ReportMeta{DocPath: "paper.md"}, sampleRefs())

	require.NoError(t, Write(path, rep))
	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, rep, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	// Rewriting yields identical bytes.
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, Write(path, got))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "missing.json"))
	assert.True(t, eris.Is(err, ErrReportUnreadable))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"meta": {}}`), 0o644))
	_, err = Read(bad)
	assert.True(t, eris.Is(err, ErrReportUnreadable))
	assert.Contains(t, err.Error(), "refs[]")
}

func TestExportYAML(t *testing.T) {
	var buf bytes.Buffer
	rep := Build(types.ReportMeta{RunID: "r", GeneratedAt: "t"}, sampleRefs())
	require.NoError(t, ExportYAML(&buf, rep))

	var back types.Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, rep.Stats, back.Stats)
	assert.Equal(t, "schrodinger1926", types.Deref(back.Refs[0].Match.Citekey))
	assert.Contains(t, buf.String(), "needs_llm")
}

func TestFilter(t *testing.T) {
	rep := Build(types.ReportMeta{}, sampleRefs())
	got := Filter(rep, types.StatusNeedsLLM)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].RefID)
	assert.Empty(t, Filter(rep, types.StatusNeedsReview))
}

func TestLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	unlock, err := Lock(path)
	require.NoError(t, err)

	_, err = Lock(path)
	assert.True(t, eris.Is(err, ErrLocked))

	unlock()
	unlock2, err := Lock(path)
	require.NoError(t, err)
	unlock2()
}
