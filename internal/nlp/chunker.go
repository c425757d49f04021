package nlp

import "strings"

// isProperNoun reports whether tag marks a singular or plural proper noun.
func isProperNoun(tag string) bool {
	return tag == "NNP" || tag == "NNPS"
}

// Entities is a lazy, finite, single-pass sequence of entity phrases.
// A run of consecutive proper-noun tokens inside one sentence forms one phrase.
// Phrases are not deduplicated.
type Entities struct {
	sentences []Sentence
	sent      int
	pos       int
}

// ExtractEntities returns an iterator over the entity phrases of sentences.
func ExtractEntities(sentences []Sentence) *Entities {
	return &Entities{sentences: sentences}
}

// Next returns the next entity phrase. Once it returns false the sequence is
// exhausted and every later call returns false as well.
func (e *Entities) Next() (string, bool) {
	for e.sent < len(e.sentences) {
		words := e.sentences[e.sent]

		for e.pos < len(words) && !isProperNoun(words[e.pos].Tag) {
			e.pos++
		}
		if e.pos >= len(words) {
			e.sent++
			e.pos = 0
			continue
		}

		var parts []string
		for e.pos < len(words) && isProperNoun(words[e.pos].Tag) {
			parts = append(parts, words[e.pos].Word)
			e.pos++
		}
		return strings.Join(parts, " "), true
	}
	return "", false
}

// Collect drains the remaining phrases into a slice.
func (e *Entities) Collect() []string {
	var out []string
	for {
		ent, ok := e.Next()
		if !ok {
			return out
		}
		out = append(out, ent)
	}
}
