// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDOI(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"resolver URL upper case", "https://doi.org/10.1000/ABC", "10.1000/abc"},
		{"doi prefix", "doi:10.1000/abc", "10.1000/abc"},
		{"doi prefix with space and period", "DOI: 10.1000/abc.", "10.1000/abc"},
		{"dx resolver", "http://dx.doi.org/10.1038/nature14539", "10.1038/nature14539"},
		{"percent encoded slash", "https://doi.org/10.1000%2Fabc", "10.1000/abc"},
		{"parenthesized", "(10.1000/xyz)", "10.1000/xyz"},
		{"bare", "10.1145/3292500.3330701", "10.1145/3292500.3330701"},
		{"resolver URL tracking query", "https://doi.org/10.1000/ABC?utm_source=twitter", "10.1000/abc"},
		{"resolver URL fragment", "https://doi.org/10.1000/abc#section", "10.1000/abc"},
		{"resolver URL trailing slash", "https://doi.org/10.1000/abc/", "10.1000/abc"},
		{"www resolver", "https://www.doi.org/10.1000/ABC", "10.1000/abc"},
		{"www resolver http", "http://www.doi.org/10.1000/abc", "10.1000/abc"},
		{"www resolver without scheme", "www.doi.org/10.1000/abc", "10.1000/abc"},
		{"resolver without scheme", "doi.org/10.1000/abc?x=1", "10.1000/abc"},
		{"bracketed resolver URL", "<https://dx.doi.org/10.1000/abc>.", "10.1000/abc"},
		{"publisher URL is not a DOI", "https://example.org/10.1000/abc", ""},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
		{"not a doi", "not a doi", ""},
		{"registrant too short", "10.1/x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DOI(tt.raw))
		})
	}
}

func TestDOIEquivalentForms(t *testing.T) {
	canonical := DOI("doi:10.1000/abc")
	for _, form := range []string{
		"https://doi.org/10.1000/ABC",
		"https://doi.org/10.1000/ABC?utm_source=twitter",
		"https://doi.org/10.1000/abc#section",
		"https://doi.org/10.1000/abc/",
		"https://www.doi.org/10.1000/ABC",
		"http://dx.doi.org/10.1000/abc?ref=feed#top",
	} {
		assert.Equal(t, canonical, DOI(form), form)
	}
	assert.Equal(t, DOI("10.1000/ABC"), DOI(DOI("10.1000/ABC")), "normalizing twice is stable")
}

func TestArxiv(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"prefixed with version", "arXiv:2301.07041v2", "2301.07041"},
		{"abs URL", "https://arxiv.org/abs/1706.03762", "1706.03762"},
		{"pdf URL with version", "https://arxiv.org/pdf/1706.03762v5", "1706.03762"},
		{"arXiv DOI", "10.48550/arXiv.1706.03762", "1706.03762"},
		{"bare", "1706.03762", "1706.03762"},
		{"five digit suffix", "2301.12345", "2301.12345"},
		{"old style", "arXiv:hep-th/9901001", "hep-th/9901001"},
		{"old style bare", "hep-th/9901001v2", "hep-th/9901001"},
		{"old style URL with subject class", "https://arxiv.org/abs/math.GT/0309136", "math.gt/0309136"},
		{"journal DOI is not arXiv", "10.1145/3292500.3330701", ""},
		{"journal DOI with arXiv-shaped suffix", "10.1000/1234.56789", ""},
		{"journal DOI URL with arXiv-shaped suffix", "https://doi.org/10.1000/1234.56789", ""},
		{"arXiv DOI URL", "https://doi.org/10.48550/arXiv.2301.07041", "2301.07041"},
		{"arXiv-shaped path on another site", "https://example.org/papers/2301.07041", ""},
		{"empty", "", ""},
		{"text", "hello world", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Arxiv(tt.raw))
		})
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"tracking query and www", "https://www.Example.org/paper/?utm_source=x", "example.org/paper"},
		{"http scheme", "http://example.org/paper", "example.org/paper"},
		{"no scheme trailing slash", "example.org/paper/", "example.org/paper"},
		{"fragment", "https://example.org/a#frag", "example.org/a"},
		{"trailing punctuation", "<https://example.org/a>.", "example.org/a"},
		{"host only", "https://example.org/", "example.org"},
		{"non-default port kept", "https://example.org:8080/x", "example.org:8080/x"},
		{"default port dropped", "https://example.org:443/x", "example.org/x"},
		{"ftp rejected", "ftp://example.org/x", ""},
		{"spaces rejected", "not a url", ""},
		{"dotless host rejected", "localhost/x", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, URL(tt.raw))
		})
	}
}

func TestURLSchemesCompareEqual(t *testing.T) {
	assert.Equal(t, URL("http://example.org/a"), URL("https://www.example.org/a/"))
}
