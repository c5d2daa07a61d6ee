// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"math"
)

// Status is the classification of one reference after resolution.
type Status string

const (
	StatusMatched     Status = "matched"
	StatusNeedsLLM    Status = "needs_llm"
	StatusNeedsReview Status = "needs_review"
	StatusUnmatched   Status = "unmatched"
)

// Statuses lists every valid status in report order.
var Statuses = []Status{StatusMatched, StatusNeedsLLM, StatusNeedsReview, StatusUnmatched}

// Valid reports whether s is one of the four defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusMatched, StatusNeedsLLM, StatusNeedsReview, StatusUnmatched:
		return true
	}
	return false
}

// Method records how a match outcome was reached.
type Method string

const (
	MethodDOI    Method = "doi"
	MethodArxiv  Method = "arxiv"
	MethodURL    Method = "url"
	MethodTFIDF  Method = "tfidf"
	MethodLLM    Method = "llm"
	MethodManual Method = "manual"
	MethodNone   Method = "none"
)

// Deterministic reports whether m is an exact-identifier method.
func (m Method) Deterministic() bool {
	return m == MethodDOI || m == MethodArxiv || m == MethodURL
}

// DeterministicConfidence is the fixed confidence of an identifier match.
const DeterministicConfidence = 1.0

// AdjudicatedConfidence is used when an accepted decision carries no
// confidence of its own.
const AdjudicatedConfidence = 0.95

// ParsedHints are the best-effort fields supplied by the extraction step.
// A nil field means the hint is absent.
type ParsedHints struct {
	DOI         *string `json:"doi" yaml:"doi"`
	URL         *string `json:"url" yaml:"url"`
	Arxiv       *string `json:"arxiv" yaml:"arxiv"`
	Year        *string `json:"year" yaml:"year"`
	TitleGuess  *string `json:"title_guess" yaml:"title_guess"`
	AuthorGuess *string `json:"author_guess" yaml:"author_guess"`
}

// Candidate is a library record proposed for a reference, with its score.
type Candidate struct {
	Citekey        string       `json:"citekey" yaml:"citekey"`
	ItemKey        string       `json:"itemKey" yaml:"itemKey"`
	Score          float64      `json:"score" yaml:"score"`
	Title          string       `json:"title" yaml:"title"`
	Year           *string      `json:"year" yaml:"year"`
	Authors        []string     `json:"authors" yaml:"authors"`
	DOI            *string      `json:"doi" yaml:"doi"`
	URL            *string      `json:"url" yaml:"url"`
	Tags           []string     `json:"zotero_tags" yaml:"zotero_tags"`
	PDFAttachments []Attachment `json:"pdf_attachments" yaml:"pdf_attachments"`
}

// NewCandidate summarizes rec as a candidate with the given score.
func NewCandidate(rec LibraryRecord, score float64) Candidate {
	authors := rec.Authors
	if authors == nil {
		authors = []string{}
	}
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	atts := rec.PDFAttachments
	if atts == nil {
		atts = []Attachment{}
	}
	return Candidate{
		Citekey:        rec.Citekey,
		ItemKey:        rec.ItemKey,
		Score:          score,
		Title:          rec.Title,
		Year:           rec.Year,
		Authors:        authors,
		DOI:            rec.DOI,
		URL:            rec.URL,
		Tags:           tags,
		PDFAttachments: atts,
	}
}

// MatchOutcome holds the match decision fields of a reference. Build values
// with the Matched, NeedsLLM, NeedsReview and Unmatched constructors so that
// the status and its payload stay consistent.
type MatchOutcome struct {
	Status     Status  `json:"status" yaml:"status"`
	Citekey    *string `json:"citekey" yaml:"citekey"`
	ItemKey    *string `json:"itemKey" yaml:"itemKey"`
	Method     Method  `json:"method" yaml:"method"`
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Reason is the adjudicator's rationale, set only by decision merge.
	Reason *string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Matched returns a matched outcome pointing at citekey.
func Matched(method Method, citekey, itemKey string, confidence float64) MatchOutcome {
	return MatchOutcome{
		Status:     StatusMatched,
		Citekey:    StringPtr(citekey),
		ItemKey:    StringPtr(itemKey),
		Method:     method,
		Confidence: clamp01(confidence),
	}
}

// NeedsLLM returns an outcome awaiting adjudication among candidates.
func NeedsLLM(method Method, confidence float64) MatchOutcome {
	return MatchOutcome{Status: StatusNeedsLLM, Method: method, Confidence: clamp01(confidence)}
}

// NeedsReview returns an outcome whose candidates are all below the noise floor.
func NeedsReview(method Method, confidence float64) MatchOutcome {
	return MatchOutcome{Status: StatusNeedsReview, Method: method, Confidence: clamp01(confidence)}
}

// Unmatched returns an outcome with no citekey.
func Unmatched(method Method, confidence float64) MatchOutcome {
	return MatchOutcome{Status: StatusUnmatched, Method: method, Confidence: clamp01(confidence)}
}

// ReferenceEntry is one citation from the source document plus its outcome.
type ReferenceEntry struct {
	RefID     string      `json:"ref_id" yaml:"ref_id"`
	LineStart int         `json:"line_start" yaml:"line_start"`
	LineEnd   int         `json:"line_end" yaml:"line_end"`
	RawText   string      `json:"raw_text" yaml:"raw_text"`
	Parsed    ParsedHints `json:"parsed" yaml:"parsed"`

	Match MatchOutcome `json:"match" yaml:"match"`

	// Candidates is the audit trail of the outcome. It is never nil in a
	// written report and decision merge never reorders it.
	Candidates []Candidate `json:"candidates" yaml:"candidates"`
}

// HasCandidate reports whether citekey is among the entry's candidates and
// returns that candidate.
func (r ReferenceEntry) HasCandidate(citekey string) (Candidate, bool) {
	for _, c := range r.Candidates {
		if c.Citekey == citekey {
			return c, true
		}
	}
	return Candidate{}, false
}

// Validate checks the invariants tying the status to its payload.
func (r ReferenceEntry) Validate() error {
	m := r.Match
	if !m.Status.Valid() {
		return fmt.Errorf("ref %s: invalid status %q", r.RefID, m.Status)
	}
	if r.Candidates == nil {
		return fmt.Errorf("ref %s: candidates missing", r.RefID)
	}
	if math.IsNaN(m.Confidence) || m.Confidence < 0 || m.Confidence > 1 {
		return fmt.Errorf("ref %s: confidence %v out of range", r.RefID, m.Confidence)
	}
	switch m.Status {
	case StatusMatched:
		if Deref(m.Citekey) == "" {
			return fmt.Errorf("ref %s: matched without citekey", r.RefID)
		}
		if m.Method.Deterministic() && m.Confidence != DeterministicConfidence {
			return fmt.Errorf("ref %s: %s match with confidence %v", r.RefID, m.Method, m.Confidence)
		}
	case StatusNeedsLLM:
		if m.Citekey != nil {
			return fmt.Errorf("ref %s: needs_llm with citekey %q", r.RefID, *m.Citekey)
		}
		if len(r.Candidates) == 0 {
			return fmt.Errorf("ref %s: needs_llm without candidates", r.RefID)
		}
	case StatusNeedsReview, StatusUnmatched:
		if m.Citekey != nil {
			return fmt.Errorf("ref %s: %s with citekey %q", r.RefID, m.Status, *m.Citekey)
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
