// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package refs loads the reference list produced by the extraction step.
// The loader is tolerant: it accepts several spellings of each field, JSON
// or YAML, and records what it had to repair as warnings rather than failing.
package refs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/literature-match/internal/normalize"
	"github.com/pdiddy/literature-match/pkg/types"
)

// ErrInputUnreadable is returned when the reference list cannot be read or
// decoded at all.
var ErrInputUnreadable = eris.New("reference list unreadable")

// List is a loaded reference list.
type List struct {
	// DocPath is the source document the references were extracted from.
	DocPath string

	Refs []types.ReferenceEntry

	// Warnings holds upstream warnings (meta.warnings of the input) followed
	// by problems found while loading.
	Warnings []string
}

// Field aliases, most preferred first.
var (
	listKeys      = []string{"refs", "references", "items"}
	idKeys        = []string{"ref_id", "id", "refId", "number"}
	textKeys      = []string{"raw_text", "rawText", "text", "raw"}
	rawLinesKeys  = []string{"raw_lines", "rawLines", "lines_raw", "rawLinesText"}
	lineStartKeys = []string{"line_start", "start_line", "startLine", "lineStart"}
	lineEndKeys   = []string{"line_end", "end_line", "endLine", "lineEnd"}
)

// LoadFile reads a reference list from path. Files ending in .yaml or .yml
// are decoded as YAML, everything else as JSON.
func LoadFile(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrInputUnreadable, "reading %s: %v", path, err)
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, eris.Wrapf(ErrInputUnreadable, "decoding %s: %v", path, err)
	}
	return Parse(doc), nil
}

// Parse converts a decoded document into a List. It never fails: an
// unusable document yields an empty list with warnings.
func Parse(doc any) *List {
	list := &List{}
	var loadWarnings []string
	var rawRefs any

	switch v := doc.(type) {
	case map[string]any:
		if meta, ok := v["meta"].(map[string]any); ok {
			list.DocPath = strings.TrimSpace(str(meta["doc_path"]))
			if ws, ok := meta["warnings"].([]any); ok {
				for _, w := range ws {
					if s := strings.TrimSpace(str(w)); s != "" {
						list.Warnings = append(list.Warnings, s)
					}
				}
			}
		}
		rawRefs = firstPresent(v, listKeys)
	case []any:
		rawRefs = v
	default:
		loadWarnings = append(loadWarnings, fmt.Sprintf("Unexpected top-level type: %T", doc))
	}

	items, isList := rawRefs.([]any)
	switch {
	case rawRefs == nil:
		loadWarnings = append(loadWarnings, "No refs found in reference list (expected one of: refs/references/items)")
	case !isList:
		loadWarnings = append(loadWarnings, fmt.Sprintf("refs is not a list (got %T); treating as empty", rawRefs))
	}

	seen := make(map[string]bool)
	for _, item := range items {
		ref, ok := parseRef(item, &loadWarnings)
		if !ok {
			continue
		}
		if ref.RefID != "" {
			if seen[ref.RefID] {
				loadWarnings = append(loadWarnings, fmt.Sprintf("Duplicate ref_id %q: later entries cannot be adjudicated", ref.RefID))
			}
			seen[ref.RefID] = true
		}
		list.Refs = append(list.Refs, ref)
	}
	if len(list.Refs) == 0 {
		loadWarnings = append(loadWarnings, "No references found")
	}

	list.Warnings = append(list.Warnings, loadWarnings...)
	return list
}

func parseRef(item any, warnings *[]string) (types.ReferenceEntry, bool) {
	switch v := item.(type) {
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return types.ReferenceEntry{}, false
		}
		*warnings = append(*warnings, fmt.Sprintf("Reference without ref_id: %q", truncate(text, 60)))
		return types.ReferenceEntry{
			LineStart:  -1,
			LineEnd:    -1,
			RawText:    text,
			Parsed:     parseHints(text, nil, warnings),
			Candidates: []types.Candidate{},
		}, true
	case map[string]any:
		id := strings.TrimSpace(str(firstPresent(v, idKeys)))

		raw := firstPresent(v, textKeys)
		if raw == nil {
			if lines, ok := firstPresent(v, rawLinesKeys).([]any); ok {
				var parts []string
				for _, l := range lines {
					if s := str(l); strings.TrimSpace(s) != "" {
						parts = append(parts, s)
					}
				}
				raw = strings.Join(parts, "\n")
			}
		}
		text := strings.TrimSpace(str(raw))
		if text == "" && id == "" {
			*warnings = append(*warnings, "Skipped ref with neither ref_id nor raw_text")
			return types.ReferenceEntry{}, false
		}

		start, end := lineRange(v, warnings)
		return types.ReferenceEntry{
			RefID:      id,
			LineStart:  start,
			LineEnd:    end,
			RawText:    text,
			Parsed:     parseHints(text, v["parsed"], warnings),
			Candidates: []types.Candidate{},
		}, true
	default:
		*warnings = append(*warnings, fmt.Sprintf("Skipped non-object ref entry: %T", item))
		return types.ReferenceEntry{}, false
	}
}

// parseHints copies the supplied hints and fills identifier and year hints
// that are missing but present verbatim in the raw text. Title and author
// guesses are never derived here.
func parseHints(rawText string, parsed any, warnings *[]string) types.ParsedHints {
	p, ok := parsed.(map[string]any)
	if !ok {
		if parsed != nil {
			*warnings = append(*warnings, fmt.Sprintf("Ignored parsed hints of type %T", parsed))
		}
		p = map[string]any{}
	}

	doi := clean(p["doi"])
	url := clean(p["url"])
	arxiv := clean(p["arxiv"])
	year := clean(p["year"])

	if doi == "" {
		doi = normalize.ExtractDOI(rawText)
	}
	if url == "" {
		url = normalize.ExtractURL(rawText)
	}
	if arxiv == "" {
		arxiv = firstNonEmpty(normalize.ExtractArxiv(rawText), normalize.Arxiv(doi), normalize.Arxiv(url))
	}
	if year == "" {
		year = normalize.ExtractYear(rawText)
	}

	return types.ParsedHints{
		DOI:         types.StringPtr(doi),
		URL:         types.StringPtr(url),
		Arxiv:       types.StringPtr(arxiv),
		Year:        types.StringPtr(year),
		TitleGuess:  types.StringPtr(clean(p["title_guess"])),
		AuthorGuess: types.StringPtr(clean(p["author_guess"])),
	}
}

// lineRange reads a 1-based inclusive line range from any of the accepted
// spellings. Unknown bounds are -1; a reversed range is swapped.
func lineRange(v map[string]any, warnings *[]string) (int, int) {
	start := firstPresent(v, lineStartKeys)
	end := firstPresent(v, lineEndKeys)

	if start == nil && end == nil {
		if pair, ok := firstPresent(v, []string{"line_range", "lineRange"}).([]any); ok && len(pair) == 2 {
			start, end = pair[0], pair[1]
		}
	}
	if start == nil && end == nil {
		if lines, ok := v["lines"].(map[string]any); ok {
			start = firstPresent(lines, []string{"start", "line_start", "start_line"})
			end = firstPresent(lines, []string{"end", "line_end", "end_line"})
		}
	}
	if start == nil && end == nil {
		if single, ok := v["line"]; ok && single != nil {
			start, end = single, single
		}
	}

	s, e := coerceInt(start), coerceInt(end)
	if s >= 0 && e >= 0 && e < s {
		*warnings = append(*warnings, fmt.Sprintf("Swapped line range: start=%d end=%d", s, e))
		s, e = e, s
	}
	return s, e
}

func firstPresent(m map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

// coerceInt converts a decoded number or numeric string; anything else is -1.
func coerceInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return -1
		}
		return n
	default:
		return -1
	}
}

func clean(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(str(v))
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
