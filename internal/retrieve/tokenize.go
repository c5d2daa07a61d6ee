// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopWords is deliberately short: titles are brief and most words carry
// signal.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "into": true,
	"is": true, "it": true, "of": true, "on": true, "or": true, "the": true,
	"to": true, "with": true,
}

// fold lower-cases s and strips diacritics ("Schrödinger" becomes "schrodinger").
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// words splits folded text into runs of letters and digits.
func words(s string) []string {
	return strings.FieldsFunc(fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// tokens returns the indexable words of a title: at least two characters
// and not a stop word.
func tokens(s string) []string {
	var out []string
	for _, w := range words(s) {
		if len([]rune(w)) < 2 || stopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// features returns unigram and bigram terms of a title, with repeats.
func features(s string) []string {
	toks := tokens(s)
	out := make([]string, 0, 2*len(toks))
	out = append(out, toks...)
	for i := 1; i < len(toks); i++ {
		out = append(out, toks[i-1]+" "+toks[i])
	}
	return out
}

// surnames returns the folded family-name words of "Last, First" or
// "First Last" formatted author names.
func surnames(authors []string) map[string]bool {
	out := make(map[string]bool)
	for _, a := range authors {
		family := a
		if i := strings.Index(a, ","); i >= 0 {
			family = a[:i]
		} else if f := strings.Fields(a); len(f) > 0 {
			family = f[len(f)-1]
		}
		for _, w := range words(family) {
			if len([]rune(w)) >= 2 {
				out[w] = true
			}
		}
	}
	return out
}

// guessWords are the words of a free-form author guess that can match a
// surname ("Smith et al." yields "smith").
func guessWords(guess string) []string {
	var out []string
	for _, w := range words(guess) {
		if len([]rune(w)) < 2 || w == "et" || w == "al" || w == "and" {
			continue
		}
		out = append(out, w)
	}
	return out
}
