// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve ranks library records against a reference title using
// TF-IDF weighted cosine similarity over title unigrams and bigrams.
package retrieve

import (
	"math"
	"sort"
	"strconv"

	"github.com/pdiddy/literature-match/pkg/types"
)

// DefaultTopK is the candidate cap used when none is configured.
const DefaultTopK = 10

// Boosts are small score bonuses for agreeing metadata. They are added to
// the cosine score (capped at 1) and are the first two tie-breakers.
type Boosts struct {
	Year   float64
	Author float64
}

// Query is what the retriever knows about a reference.
type Query struct {
	Title       string
	Year        string
	AuthorGuess string
}

// Scored is one ranked record.
type Scored struct {
	Record types.LibraryRecord

	// Position is the record's index in library order.
	Position int

	// Cosine is the raw TF-IDF similarity in [0,1].
	Cosine float64

	YearBonus   float64
	AuthorBonus float64

	// Score is Cosine plus bonuses, clamped to [0,1].
	Score float64
}

type posting struct {
	doc    int
	weight float64
}

// Model is an immutable TF-IDF index over library titles. It is safe for
// concurrent use.
type Model struct {
	records  []types.LibraryRecord
	surnames []map[string]bool
	vocab    map[string]int
	idf      []float64
	postings [][]posting
	boosts   Boosts
}

// NewModel builds the index over records, which must be in library order.
// IDF is smoothed: idf(t) = ln((1+n)/(1+df(t))) + 1.
func NewModel(records []types.LibraryRecord, boosts Boosts) *Model {
	m := &Model{
		records:  records,
		surnames: make([]map[string]bool, len(records)),
		vocab:    make(map[string]int),
		boosts:   boosts,
	}

	docTerms := make([]map[string]int, len(records))
	df := make(map[string]int)
	for i, rec := range records {
		counts := make(map[string]int)
		for _, f := range features(rec.Title) {
			counts[f]++
		}
		for term := range counts {
			df[term]++
		}
		docTerms[i] = counts
		m.surnames[i] = surnames(rec.Authors)
	}

	// Term ids follow sorted order so every float sum below runs in a
	// fixed order and results are bit-for-bit reproducible.
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	n := float64(len(records))
	m.idf = make([]float64, len(terms))
	for id, term := range terms {
		m.vocab[term] = id
		m.idf[id] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	m.postings = make([][]posting, len(terms))
	for doc, counts := range docTerms {
		vec := m.vector(counts)
		for _, e := range vec {
			m.postings[e.id] = append(m.postings[e.id], posting{doc: doc, weight: e.weight})
		}
	}
	return m
}

// Len returns the number of indexed records.
func (m *Model) Len() int { return len(m.records) }

type entry struct {
	id     int
	weight float64
}

// vector returns the L2-normalized TF-IDF vector of term counts, sorted by
// term id. Terms outside the vocabulary are ignored.
func (m *Model) vector(counts map[string]int) []entry {
	vec := make([]entry, 0, len(counts))
	for term, c := range counts {
		id, ok := m.vocab[term]
		if !ok {
			continue
		}
		vec = append(vec, entry{id: id, weight: float64(c) * m.idf[id]})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].id < vec[j].id })

	var norm float64
	for _, e := range vec {
		norm += e.weight * e.weight
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i].weight /= norm
	}
	return vec
}

// Retrieve returns up to topK records sharing at least one title term with
// q.Title, best first. Order: score, then year bonus, then author bonus,
// then library position. An empty title yields no candidates. topK <= 0
// uses DefaultTopK.
func (m *Model) Retrieve(q Query, topK int) []Scored {
	if topK <= 0 {
		topK = DefaultTopK
	}

	counts := make(map[string]int)
	for _, f := range features(q.Title) {
		counts[f]++
	}
	qvec := m.vector(counts)
	if len(qvec) == 0 {
		return nil
	}

	sims := make(map[int]float64)
	for _, e := range qvec {
		for _, p := range m.postings[e.id] {
			sims[p.doc] += e.weight * p.weight
		}
	}

	guess := guessWords(q.AuthorGuess)
	out := make([]Scored, 0, len(sims))
	for doc, cos := range sims {
		if math.IsNaN(cos) || math.IsInf(cos, 0) || cos <= 0 {
			continue
		}
		s := Scored{
			Record:   m.records[doc],
			Position: doc,
			Cosine:   clamp01(cos),
		}
		if yearsClose(q.Year, m.records[doc].YearString()) {
			s.YearBonus = m.boosts.Year
		}
		if overlaps(guess, m.surnames[doc]) {
			s.AuthorBonus = m.boosts.Author
		}
		s.Score = clamp01(s.Cosine + s.YearBonus + s.AuthorBonus)
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.YearBonus != b.YearBonus {
			return a.YearBonus > b.YearBonus
		}
		if a.AuthorBonus != b.AuthorBonus {
			return a.AuthorBonus > b.AuthorBonus
		}
		return a.Position < b.Position
	})

	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// yearsClose reports whether two four-digit years are equal or adjacent.
func yearsClose(a, b string) bool {
	ya, errA := strconv.Atoi(a)
	yb, errB := strconv.Atoi(b)
	if errA != nil || errB != nil {
		return false
	}
	d := ya - yb
	return d >= -1 && d <= 1
}

func overlaps(guess []string, names map[string]bool) bool {
	for _, w := range guess {
		if names[w] {
			return true
		}
	}
	return false
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
