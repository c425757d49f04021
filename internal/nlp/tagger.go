// Package nlp turns raw text into POS-tagged sentences and extracts proper-noun
// entity phrases from them.
package nlp

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// TaggedWord is a single token with its Penn Treebank part-of-speech tag.
type TaggedWord struct {
	Word string
	Tag  string
}

// Sentence is the ordered list of tagged tokens of one sentence.
type Sentence []TaggedWord

// Tagger splits text into sentences and tags every word.
type Tagger interface {
	Tag(text string) ([]Sentence, error)
}

// ProseTagger tags English text with prose's averaged perceptron model.
type ProseTagger struct{}

// NewProseTagger creates a new ProseTagger.
func NewProseTagger() *ProseTagger {
	return &ProseTagger{}
}

// Tag segments text into sentences, then tokenizes and tags each sentence
// separately so tokens never straddle a sentence boundary.
func (p *ProseTagger) Tag(text string) (sentences []Sentence, err error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	// prose panics on some degenerate inputs; surface that as an error.
	defer func() {
		if r := recover(); r != nil {
			sentences = nil
			err = fmt.Errorf("tagger panic: %v", r)
		}
	}()

	segments, err := segment(text)
	if err != nil {
		return nil, err
	}

	for _, seg := range segments {
		sdoc, err := prose.NewDocument(seg,
			prose.WithSegmentation(false),
			prose.WithExtraction(false),
		)
		if err != nil {
			return nil, fmt.Errorf("tagging sentence: %w", err)
		}
		tokens := sdoc.Tokens()
		if len(tokens) == 0 {
			continue
		}
		sent := make(Sentence, 0, len(tokens))
		for _, tok := range tokens {
			// Re-attach a period the tokenizer split off an abbreviation.
			if n := len(sent); tok.Text == "." && n > 0 && isAbbreviation(sent[n-1].Word+".") {
				sent[n-1].Word += "."
				continue
			}
			sent = append(sent, TaggedWord{Word: tok.Text, Tag: tok.Tag})
		}
		sentences = append(sentences, sent)
	}

	return sentences, nil
}

// SplitSentences returns the sentences of text. Blank text yields none.
func SplitSentences(text string) (out []string, err error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("segmenter panic: %v", r)
		}
	}()

	return segment(text)
}

func segment(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("segmenting text: %w", err)
	}
	var out []string
	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return mergeAbbreviations(out), nil
}

// titles are abbreviations that precede a name and never end a sentence.
var titles = map[string]struct{}{
	"Dr.": {}, "Mr.": {}, "Mrs.": {}, "Ms.": {}, "Prof.": {}, "St.": {}, "Mt.": {},
	"Gen.": {}, "Gov.": {}, "Sen.": {}, "Rep.": {}, "Pres.": {}, "Rev.": {},
	"Capt.": {}, "Col.": {}, "Lt.": {}, "Sgt.": {}, "Cpl.": {}, "Adm.": {},
}

// isAbbreviation reports whether word is a title or a single-letter initial
// such as "J.". "A." and "I." end sentences too often to count.
func isAbbreviation(word string) bool {
	if _, ok := titles[word]; ok {
		return true
	}
	r := []rune(word)
	return len(r) == 2 && r[1] == '.' && unicode.IsUpper(r[0]) && r[0] != 'A' && r[0] != 'I'
}

// mergeAbbreviations joins a segment ending in an abbreviation with the
// segment that follows it, undoing splits such as "Dr." | "Foster said".
func mergeAbbreviations(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if n := len(out); n > 0 && endsInAbbreviation(out[n-1]) {
			out[n-1] += " " + seg
			continue
		}
		out = append(out, seg)
	}
	return out
}

func endsInAbbreviation(seg string) bool {
	fields := strings.Fields(seg)
	return len(fields) > 0 && isAbbreviation(fields[len(fields)-1])
}
