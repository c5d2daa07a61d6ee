// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decide applies external adjudications to references that the
// resolution pass left in needs_llm. A decision may only pick one of the
// reference's own candidates or reject them all; anything else is refused
// without touching the reference.
package decide

import (
	"fmt"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/literature-match/pkg/types"
)

// ErrDecisionInvalid marks a decision whose citekey is not among the target
// reference's candidates.
var ErrDecisionInvalid = eris.New("decision citekey not among candidates")

// Outcome is what happened to one decision.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRejected Outcome = "rejected"
	OutcomeSkipped  Outcome = "skipped"
	// OutcomeUnchanged means the reference already carries this decision.
	OutcomeUnchanged Outcome = "unchanged"
)

// Record describes the handling of one decision, in input order.
type Record struct {
	Decision types.Decision
	Outcome  Outcome

	// Err is set for rejected decisions and wraps ErrDecisionInvalid.
	Err error

	// Message is the warning text for rejected and skipped decisions.
	Message string
}

// Result summarizes a merge.
type Result struct {
	Records  []Record
	Warnings []string
}

// Count returns how many decisions ended with outcome o.
func (r Result) Count(o Outcome) int {
	n := 0
	for _, rec := range r.Records {
		if rec.Outcome == o {
			n++
		}
	}
	return n
}

// Apply merges decisions into a copy of rep and returns it. References not
// named by a decision are unchanged. Candidates are never modified. Stats
// are recomputed and new warnings appended to the meta, skipping any the
// meta already holds, so applying the same decisions twice yields the same
// report.
func Apply(rep types.Report, decisions []types.Decision) (types.Report, Result) {
	out := rep
	out.Refs = slices.Clone(rep.Refs)
	out.Meta.Warnings = slices.Clone(rep.Meta.Warnings)

	byID := make(map[string]int, len(out.Refs))
	for i, ref := range out.Refs {
		if ref.RefID == "" {
			continue
		}
		if _, dup := byID[ref.RefID]; !dup {
			byID[ref.RefID] = i
		}
	}

	var res Result
	for _, d := range decisions {
		if d.InvalidConfidence != "" {
			w := fmt.Sprintf("Decision for ref_id=%s: ignored invalid confidence %q", d.RefID, d.InvalidConfidence)
			res.Warnings = append(res.Warnings, w)
			zap.L().Warn("invalid decision confidence",
				zap.String("ref_id", d.RefID),
				zap.String("confidence", d.InvalidConfidence),
			)
		}
		rec := Record{Decision: d}
		i, ok := byID[d.RefID]
		switch {
		case d.RefID == "":
			rec.Outcome = OutcomeSkipped
			rec.Message = "Skipped decision with empty ref_id"
		case !ok:
			rec.Outcome = OutcomeSkipped
			rec.Message = fmt.Sprintf("Decision ref_id not found in report: %s", d.RefID)
		default:
			rec = merge(&out.Refs[i], d)
		}
		if rec.Message != "" {
			res.Warnings = append(res.Warnings, rec.Message)
			zap.L().Warn("decision not applied",
				zap.String("ref_id", d.RefID),
				zap.String("outcome", string(rec.Outcome)),
				zap.String("reason", rec.Message),
			)
		}
		res.Records = append(res.Records, rec)
	}

	var stats types.Stats
	for _, ref := range out.Refs {
		stats.Add(ref.Match.Status)
	}
	out.Stats = stats

	for _, w := range res.Warnings {
		if !slices.Contains(out.Meta.Warnings, w) {
			out.Meta.Warnings = append(out.Meta.Warnings, w)
		}
	}
	return out, res
}

func merge(ref *types.ReferenceEntry, d types.Decision) Record {
	rec := Record{Decision: d}
	want, err := outcomeFor(*ref, d)
	if err != nil {
		rec.Outcome = OutcomeRejected
		rec.Err = err
		rec.Message = fmt.Sprintf("Rejected decision for ref_id=%s: %v", d.RefID, err)
		return rec
	}

	if ref.Match.Status != types.StatusNeedsLLM {
		if sameOutcome(ref.Match, want) {
			rec.Outcome = OutcomeUnchanged
			return rec
		}
		rec.Outcome = OutcomeSkipped
		rec.Message = fmt.Sprintf("Decision for ref_id=%s ignored: status is %s, not needs_llm", d.RefID, ref.Match.Status)
		return rec
	}

	ref.Match = want
	rec.Outcome = OutcomeApplied
	return rec
}

// outcomeFor builds the match a decision would produce for ref.
func outcomeFor(ref types.ReferenceEntry, d types.Decision) (types.MatchOutcome, error) {
	method := types.MethodLLM
	if d.Source == types.SourceManual {
		method = types.MethodManual
	}
	var reason *string
	if d.Reason != "" {
		reason = types.StringPtr(d.Reason)
	}

	if d.Citekey == nil {
		m := types.Unmatched(method, valueOr(d.Confidence, 0))
		m.Reason = reason
		return m, nil
	}

	cand, ok := ref.HasCandidate(*d.Citekey)
	if !ok {
		return types.MatchOutcome{}, eris.Wrapf(ErrDecisionInvalid, "%q is not a candidate of ref_id=%s", *d.Citekey, ref.RefID)
	}
	m := types.Matched(method, cand.Citekey, cand.ItemKey, valueOr(d.Confidence, types.AdjudicatedConfidence))
	m.Reason = reason
	return m, nil
}

func sameOutcome(a, b types.MatchOutcome) bool {
	return a.Status == b.Status &&
		types.Deref(a.Citekey) == types.Deref(b.Citekey) &&
		a.Method == b.Method &&
		a.Confidence == b.Confidence &&
		types.Deref(a.Reason) == types.Deref(b.Reason)
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
