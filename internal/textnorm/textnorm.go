// Package textnorm holds the word and entity-name normalization shared by the
// sentiment lexicons and the graph dedup key.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Punctuation is the fixed ASCII punctuation set removed from words and names.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// StripPunctuation removes every rune of Punctuation from s.
func StripPunctuation(s string) string {
	if !strings.ContainsAny(s, Punctuation) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune(Punctuation, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Word lower-cases a single whitespace-delimited token and strips punctuation.
// An empty result means the token carried no letters worth counting.
func Word(token string) string {
	return StripPunctuation(strings.ToLower(token))
}

// Key returns the dedup key of an entity name: NFC-normalized, punctuation
// stripped, lower-cased, with runs of whitespace collapsed to one space.
func Key(name string) string {
	s := norm.NFC.String(name)
	s = StripPunctuation(s)
	s = cases.Lower(language.Und).String(s)
	return strings.Join(strings.Fields(s), " ")
}
