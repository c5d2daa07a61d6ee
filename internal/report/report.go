// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report assembles resolved references into a match report and
// reads and writes it. Reports are indented UTF-8 JSON; non-ASCII text is
// written as is.
package report

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/literature-match/pkg/types"
)

// DefaultFileName is the report file written next to the reference list.
const DefaultFileName = "match_result.json"

// ErrReportUnreadable is returned when a report file cannot be read or
// does not decode as a report.
var ErrReportUnreadable = eris.New("report unreadable")

// Build returns a report over refs. A blank RunID or GeneratedAt in meta is
// filled in. Candidates and warnings are never nil and stats are computed
// from refs, which are kept in the given order.
func Build(meta types.ReportMeta, refs []types.ReferenceEntry) types.Report {
	if meta.RunID == "" {
		meta.RunID = uuid.NewString()
	}
	if meta.GeneratedAt == "" {
		meta.GeneratedAt = Timestamp(time.Now())
	}
	if meta.Warnings == nil {
		meta.Warnings = []string{}
	}
	if refs == nil {
		refs = []types.ReferenceEntry{}
	}
	for i := range refs {
		if refs[i].Candidates == nil {
			refs[i].Candidates = []types.Candidate{}
		}
	}
	return types.Report{Meta: meta, Refs: refs, Stats: Stats(refs)}
}

// Stats counts refs per status.
func Stats(refs []types.ReferenceEntry) types.Stats {
	var s types.Stats
	for _, r := range refs {
		s.Add(r.Match.Status)
	}
	return s
}

// Timestamp formats t as UTC RFC 3339 with a Z suffix, second precision.
func Timestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// Encode writes rep as indented JSON followed by a newline.
func Encode(w io.Writer, rep types.Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return eris.Wrap(err, "encoding report")
	}
	return nil
}

// Write encodes rep to path, replacing any existing file atomically: the
// report is written to a temporary file in the same directory and renamed
// into place, so readers never see a partial report.
func Write(path string, rep types.Report) error {
	var buf bytes.Buffer
	if err := Encode(&buf, rep); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "creating %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "creating temp file in %s", dir)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return eris.Wrapf(err, "writing %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "closing %s", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return eris.Wrapf(err, "setting mode on %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "replacing %s", path)
	}
	return nil
}

// Read decodes a report written by Write.
func Read(path string) (types.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Report{}, eris.Wrapf(ErrReportUnreadable, "reading %s: %v", path, err)
	}
	var rep types.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return types.Report{}, eris.Wrapf(ErrReportUnreadable, "decoding %s: %v", path, err)
	}
	if rep.Refs == nil {
		return types.Report{}, eris.Wrapf(ErrReportUnreadable, "%s: missing required field refs[]", path)
	}
	for i := range rep.Refs {
		if rep.Refs[i].Candidates == nil {
			rep.Refs[i].Candidates = []types.Candidate{}
		}
	}
	if rep.Meta.Warnings == nil {
		rep.Meta.Warnings = []string{}
	}
	return rep, nil
}

// ExportYAML writes rep as YAML.
func ExportYAML(w io.Writer, rep types.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return eris.Wrap(err, "encoding report as YAML")
	}
	return eris.Wrap(enc.Close(), "flushing YAML")
}

// Filter returns the refs of rep in status s, in report order.
func Filter(rep types.Report, s types.Status) []types.ReferenceEntry {
	var out []types.ReferenceEntry
	for _, r := range rep.Refs {
		if r.Match.Status == s {
			out = append(out, r)
		}
	}
	return out
}
