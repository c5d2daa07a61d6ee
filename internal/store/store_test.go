// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/literature-match/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecords() []types.LibraryRecord {
	return []types.LibraryRecord{
		{
			Citekey: "vaswani2017", ItemKey: "V1", Title: "Attention Is All You Need",
			Year: types.StringPtr("2017"), Authors: []string{"Vaswani, Ashish"},
			Arxiv: types.StringPtr("1706.03762"), Tags: []string{"transformers"},
			PDFAttachments: []types.Attachment{{Title: "Full Text", Path: "/tmp/v.pdf"}},
		},
		{
			Citekey: "lecun2015", Title: "Deep learning",
			DOI: types.StringPtr("10.1038/nature14539"),
		},
		{Citekey: "he2016", Title: "Deep Residual Learning for Image Recognition"},
		{Citekey: "schrodinger1926", Title: "Quantisierung als Eigenwertproblem: Schrödinger"},
	}
}

// --- snapshots ---

func TestLoadSnapshotEmpty(t *testing.T) {
	s := testStore(t)
	_, err := s.LoadSnapshot(context.Background())
	assert.True(t, eris.Is(err, ErrNoSnapshot))
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.SaveSnapshot(ctx, "http://127.0.0.1:23119/export", 6, sampleRecords())
	require.NoError(t, err)
	assert.Positive(t, id)

	snap, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, "http://127.0.0.1:23119/export", snap.Source)
	assert.Equal(t, 6, snap.TotalItems)
	assert.False(t, snap.TakenAt.IsZero())
	require.Len(t, snap.Records, 4)

	got := snap.Records[0]
	want := sampleRecords()[0]
	assert.Equal(t, want, got)

	lecun := snap.Records[1]
	assert.Equal(t, "lecun2015", lecun.Citekey)
	assert.Nil(t, lecun.Year)
	assert.Nil(t, lecun.URL)
	assert.Equal(t, "10.1038/nature14539", types.Deref(lecun.DOI))
	assert.Equal(t, []string{}, lecun.Authors)
	assert.Equal(t, []types.Attachment{}, lecun.PDFAttachments)
}

func TestSaveSnapshotReplacesRecords(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.SaveSnapshot(ctx, "first", 4, sampleRecords())
	require.NoError(t, err)
	_, err = s.SaveSnapshot(ctx, "second", 1, sampleRecords()[2:3])
	require.NoError(t, err)

	snap, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", snap.Source)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "he2016", snap.Records[0].Citekey)

	history, err := s.SnapshotHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].Source)

	results, err := s.Search(ctx, "attention", 10)
	require.NoError(t, err)
	assert.Empty(t, results, "old records leave the title index")
}

func TestReopenKeepsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.SaveSnapshot(ctx, "src", 4, sampleRecords())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	snap, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Records, 4)
}

// --- search ---

func TestSearch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.SaveSnapshot(ctx, "src", 4, sampleRecords())
	require.NoError(t, err)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"single word", "attention", []string{"vaswani2017"}},
		{"every word required", "deep residual", []string{"he2016"}},
		{"shared word", "deep", []string{"lecun2015", "he2016"}},
		{"punctuation is not syntax", `learning: "deep" (AND)`, nil},
		{"diacritics folded", "schrodinger", []string{"schrodinger1926"}},
		{"no words", " -- ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.Search(ctx, tt.query, 10)
			require.NoError(t, err)
			var keys []string
			for _, r := range results {
				keys = append(keys, r.Record.Citekey)
			}
			if tt.name == "shared word" {
				assert.ElementsMatch(t, tt.want, keys)
				return
			}
			assert.Equal(t, tt.want, keys)
		})
	}
}

func TestSearchLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.SaveSnapshot(ctx, "src", 4, sampleRecords())
	require.NoError(t, err)

	results, err := s.Search(ctx, "deep", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

// --- decisions ---

func TestDecisionHistory(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	conf := 0.8

	require.NoError(t, s.RecordDecisions(ctx, []DecisionEntry{
		{ReportPath: "match_result.json", RefID: "1", Citekey: types.StringPtr("X"), Source: "llm", Confidence: &conf, Reason: "fits", Outcome: "applied"},
		{ReportPath: "match_result.json", RefID: "2", Citekey: types.StringPtr("Z"), Source: "llm", Outcome: "rejected", Message: "not a candidate"},
		{ReportPath: "match_result.json", RefID: "1", Source: "manual", Outcome: "unchanged"},
	}))
	require.NoError(t, s.RecordDecisions(ctx, nil))

	got, err := s.History(ctx, "1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "X", types.Deref(got[0].Citekey))
	require.NotNil(t, got[0].Confidence)
	assert.Equal(t, 0.8, *got[0].Confidence)
	assert.Equal(t, "applied", got[0].Outcome)
	assert.False(t, got[0].RecordedAt.IsZero())
	assert.Nil(t, got[1].Citekey)
	assert.Nil(t, got[1].Confidence)

	all, err := s.History(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "not a candidate", all[1].Message)
}
