package sentiment

import (
	"bufio"
	"strings"

	"github.com/TobiSchelling/NewsGraph/internal/textnorm"
)

// StopWords is a set of words ignored by the lexicon and the scorer.
type StopWords map[string]struct{}

// Contains reports whether word is a stop word.
func (s StopWords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// ParseStopWords reads one stop word per line. Blank lines and lines starting
// with '#' are ignored.
func ParseStopWords(text string) StopWords {
	stop := make(StopWords)
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		stop[strings.ToLower(line)] = struct{}{}
	}
	return stop
}

// Lexicon maps each known word to a count.
type Lexicon map[string]int

// BuildLexicon returns the shared vocabulary of both corpora with every count
// reset to zero, so that both polarity passes are scored over identical keys.
func BuildLexicon(positive, negative string, stop StopWords) Lexicon {
	counts := make(Lexicon)
	for _, token := range strings.Fields(positive + " " + negative) {
		w := textnorm.Word(token)
		if w == "" || stop.Contains(w) {
			continue
		}
		counts[w]++
	}
	for w := range counts {
		counts[w] = 0
	}
	return counts
}

// clone returns a private copy of l.
func (l Lexicon) clone() Lexicon {
	out := make(Lexicon, len(l))
	for w, c := range l {
		out[w] = c
	}
	return out
}
