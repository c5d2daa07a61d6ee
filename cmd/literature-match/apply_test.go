// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/literature-match/internal/report"
)

func TestLockReportsSerializesSharedSource(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "match_result.json")

	unlock, err := lockReports(source, filepath.Join(dir, "a.json"))
	require.NoError(t, err)

	_, err = lockReports(source, filepath.Join(dir, "b.json"))
	assert.True(t, eris.Is(err, report.ErrLocked), "second merge of the same source must wait")

	unlock()
	unlock2, err := lockReports(source, filepath.Join(dir, "b.json"))
	require.NoError(t, err)
	unlock2()
}

func TestLockReportsSerializesSharedOutput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "merged.json")

	unlock, err := lockReports(filepath.Join(dir, "a.json"), output)
	require.NoError(t, err)
	defer unlock()

	_, err = lockReports(filepath.Join(dir, "b.json"), output)
	assert.True(t, eris.Is(err, report.ErrLocked))

	// The failed attempt released the source lock it had taken.
	unlockB, err := report.Lock(filepath.Join(dir, "b.json"))
	require.NoError(t, err)
	unlockB()
}

func TestLockReportsInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "match_result.json")

	unlock, err := lockReports(path, dir+"/./match_result.json")
	require.NoError(t, err, "the same file is locked once")
	unlock()
}
