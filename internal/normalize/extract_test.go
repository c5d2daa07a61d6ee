// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDOI(t *testing.T) {
	assert.Equal(t, "10.1000/xyz", ExtractDOI("See doi:10.1000/xyz. Accessed today."))
	assert.Equal(t, "10.1038/nature14539", ExtractDOI("LeCun et al. Deep learning. Nature (2015) https://doi.org/10.1038/nature14539"))
	assert.Empty(t, ExtractDOI("No identifier here"))
}

func TestExtractURL(t *testing.T) {
	assert.Equal(t, "https://example.org/paper", ExtractURL("Available at https://example.org/paper)."))
	assert.Equal(t, "http://a.org/x", ExtractURL("first http://a.org/x, then https://b.org/y"))
	assert.Empty(t, ExtractURL("plain text"))
}

func TestExtractArxiv(t *testing.T) {
	assert.Equal(t, "1706.03762", ExtractArxiv("Vaswani et al. Attention is all you need. arXiv:1706.03762v5, 2017."))
	assert.Empty(t, ExtractArxiv(""))
	assert.Empty(t, ExtractArxiv("Smith, J. (2020). A study. J. Stud. doi:10.1000/1234.56789"))
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"parenthesized year", "Vaswani, A. et al. (2017). Attention is all you need. arXiv:1706.03762", "2017"},
		{"access date and URL year ignored", "Smith 2019. Some title. Retrieved 2023 from https://x.org/2020/a", "2019"},
		{"last year wins without parentheses", "Published 2015, reprinted 2018", "2018"},
		{"parenthesized beats later", "(2010) first edition, second edition 2012", "2010"},
		{"DOI digits ignored", "Title. doi:10.2000/1999.5", ""},
		{"no year", "no year at all", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractYear(tt.text))
		})
	}
}
