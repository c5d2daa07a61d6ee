// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Patterns for pulling identifiers out of free reference text.
var (
	doiInTextRe   = regexp.MustCompile(`(?i)(10\.\d{4,9}/[-._;()/:a-z0-9]+)`)
	urlInTextRe   = regexp.MustCompile(`(?i)(https?://[^\s)\]}>,;]+)`)
	yearInTextRe  = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	accessDateRe  = regexp.MustCompile(`(?i)\b(accessed|retrieved|visited)\b`)
	arxivInTextRe = regexp.MustCompile(`(?i)\b(?:arxiv:)?(\d{4}\.\d{4,5})(?:v\d+)?\b`)
)

const (
	trailingPunct = ").,;]"

	// An access-date marker within accessWindow bytes before a year (looking
	// back at most accessLookback bytes) disqualifies that year.
	accessLookback = 80
	accessWindow   = 50
)

// ExtractDOI returns the first DOI-shaped substring of text, as written.
func ExtractDOI(text string) string {
	m := doiInTextRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimRight(m[1], trailingPunct)
}

// ExtractURL returns the first http(s) URL in text, as written.
func ExtractURL(text string) string {
	m := urlInTextRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimRight(m[1], trailingPunct)
}

// ExtractArxiv returns the first arXiv id mentioned in text.
func ExtractArxiv(text string) string {
	if text == "" {
		return ""
	}
	return Arxiv(text)
}

// ExtractYear returns the most plausible publication year in a reference.
// Years inside URLs, DOIs and arXiv ids are ignored, as are access dates
// ("accessed 12 May 2023"). A parenthesized year wins; otherwise the last
// remaining year is returned.
func ExtractYear(text string) string {
	if text == "" {
		return ""
	}

	var ignore [][]int
	for _, re := range []*regexp.Regexp{urlInTextRe, doiInTextRe, arxivInTextRe} {
		ignore = append(ignore, re.FindAllStringIndex(text, -1)...)
	}
	overlaps := func(start, end int) bool {
		for _, span := range ignore {
			if start < span[1] && end > span[0] {
				return true
			}
		}
		return false
	}

	type yearAt struct {
		year       string
		start, end int
	}
	var years []yearAt
	for _, loc := range yearInTextRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[2], loc[3]
		if overlaps(start, end) || isAccessYear(text, start) {
			continue
		}
		years = append(years, yearAt{text[start:end], start, end})
	}
	if len(years) == 0 {
		return ""
	}

	// Latest position first.
	sort.SliceStable(years, func(i, j int) bool { return years[i].start > years[j].start })
	for _, y := range years {
		if inParentheses(text, y.start, y.end) {
			return y.year
		}
	}
	return years[0].year
}

// isAccessYear reports whether an access-date marker closely precedes start.
func isAccessYear(text string, start int) bool {
	windowStart := start - accessLookback
	if windowStart < 0 {
		windowStart = 0
	}
	window := text[windowStart:start]
	locs := accessDateRe.FindAllStringIndex(window, -1)
	if len(locs) == 0 {
		return false
	}
	last := locs[len(locs)-1]
	return len(window)-last[0] <= accessWindow
}

func inParentheses(text string, start, end int) bool {
	i := start - 1
	for i >= 0 && unicode.IsSpace(rune(text[i])) {
		i--
	}
	j := end
	for j < len(text) && unicode.IsSpace(rune(text[j])) {
		j++
	}
	return i >= 0 && j < len(text) && text[i] == '(' && text[j] == ')'
}
