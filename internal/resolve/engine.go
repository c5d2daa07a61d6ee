// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve classifies references against a library index. Each
// reference is tried against the DOI, arXiv and URL indices in that order,
// then ranked by title similarity, and finally assigned one of the four
// match statuses.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/literature-match/internal/library"
	"github.com/pdiddy/literature-match/internal/normalize"
	"github.com/pdiddy/literature-match/internal/retrieve"
	"github.com/pdiddy/literature-match/pkg/types"
)

// Engine resolves references against one library. It holds no mutable
// state and may be shared by concurrent callers.
type Engine struct {
	index *library.Index
	model *retrieve.Model
	cfg   types.MatchConfig
}

// New builds the similarity model over idx and returns an engine. A
// non-positive TopK or Workers takes the default.
func New(idx *library.Index, cfg types.MatchConfig) *Engine {
	def := types.DefaultMatchConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	return &Engine{
		index: idx,
		model: retrieve.NewModel(idx.Records(), retrieve.Boosts{Year: cfg.YearBoost, Author: cfg.AuthorBoost}),
		cfg:   cfg,
	}
}

// Config returns the effective thresholds.
func (e *Engine) Config() types.MatchConfig { return e.cfg }

// Resolve returns ref with its match outcome and candidates filled in, plus
// any warnings about the reference. It never fails: an unusable reference is
// classified unmatched.
func (e *Engine) Resolve(ref types.ReferenceEntry) (types.ReferenceEntry, []string) {
	var warnings []string
	hints := ref.Parsed

	if strings.TrimSpace(ref.RawText) == "" {
		ref.Match = types.Unmatched(types.MethodNone, 0)
		ref.Candidates = []types.Candidate{}
		return ref, []string{fmt.Sprintf("Ref %s: empty raw_text; marked unmatched", label(ref))}
	}

	doi := types.Deref(hints.DOI)
	if doi != "" && normalize.DOI(doi) == "" {
		warnings = append(warnings, fmt.Sprintf("Ref %s: unparseable DOI hint %q ignored", label(ref), doi))
	}
	url := types.Deref(hints.URL)

	// Every identifier hint is looked up before any of them is trusted.
	var hits []identifierHit
	for _, raw := range []string{doi, url} {
		if ck, ok := e.index.LookupDOI(raw); ok {
			hits = append(hits, identifierHit{types.MethodDOI, ck})
			break
		}
	}
	for _, raw := range []string{types.Deref(hints.Arxiv), doi, url} {
		if ck, ok := e.index.LookupArxiv(raw); ok {
			hits = append(hits, identifierHit{types.MethodArxiv, ck})
			break
		}
	}
	keys := e.index.LookupURL(url)
	if len(keys) == 1 {
		hits = append(hits, identifierHit{types.MethodURL, keys[0]})
	}

	if len(hits) > 0 {
		if conflict := conflicting(hits); conflict != "" {
			warnings = append(warnings, fmt.Sprintf("Ref %s: contradictory identifier hints (%s); marked unmatched", label(ref), conflict))
			return e.contradictory(ref, hits), warnings
		}
		return e.deterministic(ref, hits[0].method, hits[0].citekey), warnings
	}

	var candidates []types.Candidate
	seen := make(map[string]bool)
	for _, ck := range keys {
		rec, _ := e.index.Record(ck)
		candidates = append(candidates, types.NewCandidate(rec, types.DeterministicConfidence))
		seen[ck] = true
	}

	limit := e.cfg.TopK
	if len(candidates) > limit {
		limit = len(candidates)
	}
	scored := e.model.Retrieve(retrieve.Query{
		Title:       types.Deref(hints.TitleGuess),
		Year:        types.Deref(hints.Year),
		AuthorGuess: types.Deref(hints.AuthorGuess),
	}, e.cfg.TopK)
	for _, s := range scored {
		if len(candidates) >= limit {
			break
		}
		if seen[s.Record.Citekey] {
			continue
		}
		candidates = append(candidates, types.NewCandidate(s.Record, s.Score))
		seen[s.Record.Citekey] = true
	}

	if candidates == nil {
		candidates = []types.Candidate{}
	}
	ref.Candidates = candidates
	ref.Match = e.classify(candidates)
	return ref, warnings
}

func (e *Engine) deterministic(ref types.ReferenceEntry, method types.Method, citekey string) types.ReferenceEntry {
	rec, _ := e.index.Record(citekey)
	ref.Match = types.Matched(method, citekey, rec.ItemKey, types.DeterministicConfidence)
	ref.Candidates = []types.Candidate{types.NewCandidate(rec, types.DeterministicConfidence)}
	return ref
}

// identifierHit is a record found through one exact identifier.
type identifierHit struct {
	method  types.Method
	citekey string
}

// conflicting describes the hits when they name more than one record, or
// returns "".
func conflicting(hits []identifierHit) string {
	parts := make([]string, 0, len(hits))
	distinct := false
	for _, h := range hits {
		parts = append(parts, string(h.method)+"="+h.citekey)
		if h.citekey != hits[0].citekey {
			distinct = true
		}
	}
	if !distinct {
		return ""
	}
	return strings.Join(parts, ", ")
}

// contradictory marks ref unmatched and keeps every record its identifiers
// named as candidates, in lookup order.
func (e *Engine) contradictory(ref types.ReferenceEntry, hits []identifierHit) types.ReferenceEntry {
	ref.Match = types.Unmatched(types.MethodNone, 0)
	ref.Candidates = []types.Candidate{}
	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		if seen[h.citekey] {
			continue
		}
		seen[h.citekey] = true
		rec, _ := e.index.Record(h.citekey)
		ref.Candidates = append(ref.Candidates, types.NewCandidate(rec, types.DeterministicConfidence))
	}
	return ref
}

// classify maps a ranked candidate list to an outcome.
func (e *Engine) classify(candidates []types.Candidate) types.MatchOutcome {
	if len(candidates) == 0 {
		return types.Unmatched(types.MethodNone, 0)
	}
	top := candidates[0]
	gap := top.Score
	if len(candidates) > 1 {
		gap = top.Score - candidates[1].Score
	}
	switch {
	case top.Score >= e.cfg.AutoMatchThreshold && gap >= e.cfg.AutoMatchGap:
		return types.Matched(types.MethodTFIDF, top.Citekey, top.ItemKey, top.Score)
	case top.Score >= e.cfg.NeedsLLMThreshold:
		return types.NeedsLLM(types.MethodTFIDF, top.Score)
	default:
		return types.NeedsReview(types.MethodTFIDF, top.Score)
	}
}

// ResolveAll resolves refs on up to Workers goroutines and returns them in
// input order with the collected warnings, also in input order. The context
// is checked before each reference; on cancellation nothing is returned.
func (e *Engine) ResolveAll(ctx context.Context, refs []types.ReferenceEntry) ([]types.ReferenceEntry, []string, error) {
	out := make([]types.ReferenceEntry, len(refs))
	perRef := make([][]string, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i := range refs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i], perRef[i] = e.Resolve(refs[i])
			zap.L().Debug("reference resolved",
				zap.String("ref_id", refs[i].RefID),
				zap.String("status", string(out[i].Match.Status)),
				zap.String("method", string(out[i].Match.Method)),
				zap.Int("candidates", len(out[i].Candidates)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var warnings []string
	for _, w := range perRef {
		warnings = append(warnings, w...)
	}
	zap.L().Info("references resolved", zap.Int("refs", len(out)), zap.Int("warnings", len(warnings)))
	return out, warnings, nil
}

func label(ref types.ReferenceEntry) string {
	if ref.RefID == "" {
		return "(no id)"
	}
	return ref.RefID
}
