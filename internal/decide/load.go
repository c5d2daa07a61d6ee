// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decide

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/literature-match/pkg/types"
)

// ErrDecisionsUnreadable is returned when a decisions file cannot be read,
// decoded, or holds no decision list.
var ErrDecisionsUnreadable = eris.New("decisions file unreadable")

// LoadFile reads decisions from a JSON or YAML file (by extension).
func LoadFile(path string) ([]types.Decision, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrDecisionsUnreadable, "reading %s: %v", path, err)
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, eris.Wrapf(ErrDecisionsUnreadable, "decoding %s: %v", path, err)
	}

	decisions, err := Parse(doc)
	if err != nil {
		return nil, eris.Wrapf(err, "loading %s", path)
	}
	return decisions, nil
}

// Parse reads a decoded decisions document: an object with a decisions,
// items or refs list, or a bare list. Entries that are not objects are
// ignored.
func Parse(doc any) ([]types.Decision, error) {
	var list any
	switch v := doc.(type) {
	case map[string]any:
		for _, key := range []string{"decisions", "items", "refs"} {
			if l, ok := v[key]; ok && l != nil {
				list = l
				break
			}
		}
	case []any:
		list = v
	}
	items, ok := list.([]any)
	if !ok {
		return nil, eris.Wrap(ErrDecisionsUnreadable, "missing required field: decisions[]")
	}

	out := make([]types.Decision, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		conf, ok := confidence(m["confidence"])
		d := types.Decision{
			RefID:      strings.TrimSpace(text(m["ref_id"])),
			Citekey:    citekey(m["citekey"]),
			Reason:     strings.TrimSpace(text(m["reason"])),
			Confidence: conf,
			Source:     source(m),
		}
		if !ok {
			d.InvalidConfidence = text(m["confidence"])
		}
		out = append(out, d)
	}
	return out, nil
}

func citekey(v any) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(text(v))
	if s == "" || s == "null" {
		return nil
	}
	return &s
}

// confidence accepts a number or numeric string in [0,1]. A missing value
// is nil and ok; anything else is nil and not ok.
func confidence(v any) (*float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil, true
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, true
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil, false
		}
		f = parsed
	default:
		return nil, false
	}
	if math.IsNaN(f) || f < 0 || f > 1 {
		return nil, false
	}
	return &f, true
}

func source(m map[string]any) types.DecisionSource {
	if manual, ok := m["manual"].(bool); ok && manual {
		return types.SourceManual
	}
	switch strings.ToLower(strings.TrimSpace(text(m["source"]))) {
	case "manual", "human":
		return types.SourceManual
	}
	return types.SourceLLM
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
