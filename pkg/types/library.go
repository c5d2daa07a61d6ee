// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the literature-match pipeline:
// library records, reference entries, match outcomes, and the match report.
package types

// Attachment is a PDF-like attachment of a library item. The fields are
// opaque to matching and carried through to the report unchanged.
type Attachment struct {
	Title string `json:"title" yaml:"title"`
	Path  string `json:"path" yaml:"path"`
	URL   string `json:"url" yaml:"url"`
}

// LibraryRecord is one reference-manager item summarized for matching.
// Records are immutable once the library index is built.
type LibraryRecord struct {
	// Citekey is the stable, human-assigned key; the primary identifier.
	Citekey string `json:"citekey" yaml:"citekey"`

	// ItemKey is the source library's internal item id.
	ItemKey string `json:"itemKey" yaml:"itemKey"`

	Title string `json:"title" yaml:"title"`

	// Year is the four-digit publication year, or nil when unknown.
	Year *string `json:"year" yaml:"year"`

	// Authors lists author names in source order, formatted "Last, First".
	Authors []string `json:"authors" yaml:"authors"`

	// DOI, URL and Arxiv hold the identifiers as found in the library.
	// Index lookups use their normalized forms.
	DOI   *string `json:"doi" yaml:"doi"`
	URL   *string `json:"url" yaml:"url"`
	Arxiv *string `json:"arxiv,omitempty" yaml:"arxiv,omitempty"`

	Tags           []string     `json:"zotero_tags" yaml:"zotero_tags"`
	PDFAttachments []Attachment `json:"pdf_attachments" yaml:"pdf_attachments"`
}

// YearString returns the record year or "" when unknown.
func (r LibraryRecord) YearString() string {
	if r.Year == nil {
		return ""
	}
	return *r.Year
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
