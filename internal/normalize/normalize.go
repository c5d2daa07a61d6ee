// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize canonicalizes DOI, arXiv and URL identifiers so that
// library records and references compare equal when they name the same work.
// The same functions are used when building the library index and when
// resolving references. Every function is pure and returns "" for input it
// cannot parse.
package normalize

import (
	"net/url"
	"regexp"
	"strings"
)

// edgePunct is stripped from both ends of identifiers copied out of prose.
const edgePunct = ".,;:()[]{}<>\"'"

// doiPrefixes are removed (after lower-casing) from non-URL DOI spellings.
var doiPrefixes = []string{
	"doi:",
	"doi ",
}

// doiHosts are the resolver hosts whose URL path is a DOI.
var doiHosts = map[string]bool{
	"doi.org":     true,
	"dx.doi.org":  true,
	"www.doi.org": true,
}

// doiPattern matches a bare, already lower-cased DOI.
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// arxivDOIPrefix starts every DOI that arXiv registers for its papers.
const arxivDOIPrefix = "10.48550/arxiv."

// DOI returns the canonical lower-case form of a DOI given in any of the
// usual spellings ("10.1000/ABC", "doi:10.1000/abc", "https://doi.org/10.1000/abc").
// Resolver URLs lose their query, fragment and trailing slash.
func DOI(raw string) string {
	text := strings.Trim(strings.ToLower(strings.TrimSpace(raw)), edgePunct)
	if text == "" {
		return ""
	}
	if path, ok := resolverPath(text); ok {
		text = path
	} else {
		for _, prefix := range doiPrefixes {
			if strings.HasPrefix(text, prefix) {
				text = strings.TrimSpace(text[len(prefix):])
				break
			}
		}
		if strings.Contains(text, "%") {
			if unescaped, err := url.PathUnescape(text); err == nil {
				text = unescaped
			}
		}
	}
	text = strings.Trim(text, edgePunct)
	if !doiPattern.MatchString(text) {
		return ""
	}
	return text
}

// resolverPath returns the decoded path of a doi.org URL, with or without
// scheme, and whether text was one.
func resolverPath(text string) (string, bool) {
	if !strings.Contains(text, "://") {
		text = "https://" + text
	}
	u, err := url.Parse(text)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || !doiHosts[u.Hostname()] {
		return "", false
	}
	return strings.Trim(u.Path, "/"), true
}

var (
	// arxivNewPattern matches post-2007 ids: "2301.07041", "arXiv:2301.07041v2".
	// A "/" before the id only counts in an arxiv.org abs or pdf URL.
	arxivNewPattern = regexp.MustCompile(`(?i)(?:^|[^\d./]|arxiv\.|arxiv\.org/(?:abs|pdf)/)(\d{4}\.\d{4,5})(?:v\d+)?(?:$|[^\d])`)

	// arxivOldPattern matches pre-2007 ids, which are only recognized with an
	// explicit arXiv marker: "arXiv:hep-th/9901001", "arxiv.org/abs/math.GT/0309136".
	arxivOldPattern = regexp.MustCompile(`(?i)arxiv(?:\.org/(?:abs|pdf)/|:)\s*([a-z-]+(?:\.[a-z]{2})?/\d{7})(?:v\d+)?`)

	// arxivOldBare matches a pre-2007 id given on its own: "hep-th/9901001".
	arxivOldBare = regexp.MustCompile(`(?i)^([a-z-]+(?:\.[a-z]{2})?/\d{7})(?:v\d+)?$`)
)

// Arxiv returns the canonical lower-case arXiv id, without version suffix,
// found in raw. raw may be a bare id, an "arXiv:" reference, an arxiv.org URL
// or an arXiv DOI (10.48550/arXiv.NNNN.NNNNN). Any other DOI has no arXiv id.
func Arxiv(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	if doi := DOI(text); doi != "" {
		if !strings.HasPrefix(doi, arxivDOIPrefix) {
			return ""
		}
		text = doi
	}
	if m := arxivOldPattern.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}
	if m := arxivOldBare.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}
	if m := arxivNewPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// URL returns a canonical form of a web address: lower-cased, without
// scheme, leading "www.", query string, fragment, or trailing slash.
// "https://www.Example.org/paper/?utm_source=x" becomes "example.org/paper".
func URL(raw string) string {
	text := strings.Trim(strings.TrimSpace(raw), edgePunct)
	if text == "" || strings.ContainsAny(text, " \t\n") {
		return ""
	}
	if !strings.Contains(text, "://") {
		text = "http://" + text
	}
	u, err := url.Parse(text)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || !strings.Contains(host, ".") {
		return ""
	}
	host = strings.TrimPrefix(host, "www.")
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host += ":" + port
	}
	path := strings.TrimRight(strings.ToLower(u.EscapedPath()), "/")
	return host + path
}
