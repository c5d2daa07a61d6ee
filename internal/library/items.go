// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/literature-match/internal/normalize"
	"github.com/pdiddy/literature-match/pkg/types"
)

var itemYearRe = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// iterItems returns the item objects of a Better BibTeX payload, which is
// either {"items": [...]} or a bare list. ok is false when the payload has
// neither shape.
func iterItems(data any) (items []map[string]any, ok bool) {
	var list []any
	switch v := data.(type) {
	case map[string]any:
		l, isList := v["items"].([]any)
		if !isList {
			return nil, false
		}
		list = l
	case []any:
		list = v
	default:
		return nil, false
	}

	for _, entry := range list {
		if m, isMap := entry.(map[string]any); isMap {
			items = append(items, m)
		}
	}
	return items, true
}

// summarizeItem converts one export item into a LibraryRecord. Items
// without a citation key cannot be cited and are skipped (ok=false).
// Every other field is optional.
func summarizeItem(item map[string]any) (types.LibraryRecord, bool) {
	citekey := strings.TrimSpace(str(item["citationKey"]))
	if citekey == "" {
		return types.LibraryRecord{}, false
	}

	year := firstYear(item["date"])
	if year == "" {
		year = firstYear(item["issued"])
	}
	if year == "" {
		year = firstYear(item["year"])
	}

	doi := firstNonEmpty(str(item["DOI"]), str(item["doi"]))
	url := firstNonEmpty(str(item["url"]), str(item["URL"]))

	arxiv := normalize.Arxiv(doi)
	if arxiv == "" {
		arxiv = normalize.Arxiv(url)
	}
	if arxiv == "" {
		arxiv = normalize.ExtractArxiv(str(item["extra"]))
	}

	return types.LibraryRecord{
		Citekey:        citekey,
		ItemKey:        strings.TrimSpace(str(item["itemKey"])),
		Title:          strings.TrimSpace(str(item["title"])),
		Year:           types.StringPtr(year),
		Authors:        formatCreators(item["creators"]),
		DOI:            types.StringPtr(doi),
		URL:            types.StringPtr(url),
		Arxiv:          types.StringPtr(arxiv),
		Tags:           normalizeTags(item["tags"]),
		PDFAttachments: pdfAttachments(item["attachments"]),
	}, true
}

// formatCreators returns author names as "Last, First". Creators with a
// type other than author (editors, translators) are left out.
func formatCreators(v any) []string {
	list, _ := v.([]any)
	authors := []string{}
	for _, entry := range list {
		c, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		kind := strings.ToLower(str(c["creatorType"]))
		if kind != "author" && kind != "" {
			continue
		}
		last := strings.TrimSpace(str(c["lastName"]))
		first := strings.TrimSpace(str(c["firstName"]))
		switch {
		case last != "" && first != "":
			authors = append(authors, last+", "+first)
		case last != "":
			authors = append(authors, last)
		case first != "":
			authors = append(authors, first)
		default:
			// Single-field names ("name") are used for organizations.
			if name := strings.TrimSpace(str(c["name"])); name != "" {
				authors = append(authors, name)
			}
		}
	}
	return authors
}

func normalizeTags(v any) []string {
	list, _ := v.([]any)
	tags := []string{}
	for _, entry := range list {
		var tag string
		switch t := entry.(type) {
		case string:
			tag = t
		case map[string]any:
			tag = str(t["tag"])
		default:
			tag = str(t)
		}
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func pdfAttachments(v any) []types.Attachment {
	list, _ := v.([]any)
	out := []types.Attachment{}
	for _, entry := range list {
		a, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		att := types.Attachment{
			Title: str(a["title"]),
			Path:  str(a["path"]),
			URL:   str(a["url"]),
		}
		if isPDF(att) {
			out = append(out, att)
		}
	}
	return out
}

func isPDF(a types.Attachment) bool {
	for _, v := range []string{a.Path, a.Title, a.URL} {
		if strings.HasSuffix(strings.ToLower(v), ".pdf") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(a.URL), "/pdf/")
}

func firstYear(v any) string {
	if v == nil {
		return ""
	}
	m := itemYearRe.FindStringSubmatch(str(v))
	if m == nil {
		return ""
	}
	return m[1]
}

// str renders a decoded JSON value as text. nil becomes "".
func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
