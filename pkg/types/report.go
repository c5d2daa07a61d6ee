// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ReportMeta describes where a report came from. Fields are additive only.
type ReportMeta struct {
	RunID       string `json:"run_id" yaml:"run_id"`
	DocPath     string `json:"doc_path" yaml:"doc_path"`
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`

	// Source is the library location actually used: endpoint URL, cache
	// file path, or snapshot database path.
	Source           string  `json:"source" yaml:"source"`
	ZoteroEndpoint   *string `json:"zotero_endpoint" yaml:"zotero_endpoint"`
	LibraryCachePath *string `json:"library_cache_path" yaml:"library_cache_path"`

	LibraryItemCount      int `json:"library_item_count" yaml:"library_item_count"`
	LibraryTotalItemCount int `json:"library_total_item_count" yaml:"library_total_item_count"`

	Warnings []string `json:"warnings" yaml:"warnings"`
}

// Stats counts references per status.
type Stats struct {
	Total       int `json:"total" yaml:"total"`
	Matched     int `json:"matched" yaml:"matched"`
	NeedsLLM    int `json:"needs_llm" yaml:"needs_llm"`
	NeedsReview int `json:"needs_review" yaml:"needs_review"`
	Unmatched   int `json:"unmatched" yaml:"unmatched"`
}

// Count returns the number of references in status s.
func (s Stats) Count(status Status) int {
	switch status {
	case StatusMatched:
		return s.Matched
	case StatusNeedsLLM:
		return s.NeedsLLM
	case StatusNeedsReview:
		return s.NeedsReview
	default:
		return s.Unmatched
	}
}

// Add counts one reference in status. Unknown statuses count as unmatched.
func (s *Stats) Add(status Status) {
	s.Total++
	switch status {
	case StatusMatched:
		s.Matched++
	case StatusNeedsLLM:
		s.NeedsLLM++
	case StatusNeedsReview:
		s.NeedsReview++
	default:
		s.Unmatched++
	}
}

// Report is the match result written to match_result.json.
type Report struct {
	Meta  ReportMeta       `json:"meta" yaml:"meta"`
	Refs  []ReferenceEntry `json:"refs" yaml:"refs"`
	Stats Stats            `json:"stats" yaml:"stats"`
}

// DecisionSource tells whether an adjudication came from a model or a person.
type DecisionSource string

const (
	SourceLLM    DecisionSource = "llm"
	SourceManual DecisionSource = "manual"
)

// Decision is one external adjudication for a needs_llm reference.
// A nil Citekey rejects every candidate.
type Decision struct {
	RefID      string         `json:"ref_id" yaml:"ref_id"`
	Citekey    *string        `json:"citekey" yaml:"citekey"`
	Reason     string         `json:"reason,omitempty" yaml:"reason,omitempty"`
	Confidence *float64       `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Source     DecisionSource `json:"source,omitempty" yaml:"source,omitempty"`

	// InvalidConfidence holds a supplied confidence that was not a number
	// in [0,1] and was therefore dropped.
	InvalidConfidence string `json:"-" yaml:"-"`
}
