package sentiment

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
)

//go:embed data/pos.txt
var defaultPositive string

//go:embed data/neg.txt
var defaultNegative string

//go:embed data/stopwords.txt
var defaultStopWords string

// ErrLexiconUnavailable is returned when a reference corpus cannot be read.
var ErrLexiconUnavailable = errors.New("sentiment lexicon unavailable")

// Corpora names the files a Model is trained from. Empty paths select the
// built-in corpora.
type Corpora struct {
	Positive  string
	Negative  string
	StopWords string
}

// Model holds the two trained lexicons. It is read-only after construction
// and safe for concurrent use.
type Model struct {
	pos  Trained
	neg  Trained
	stop StopWords
}

// NewModel trains a model from in-memory corpora.
func NewModel(positive, negative string, stop StopWords) *Model {
	shape := BuildLexicon(positive, negative, stop)
	return &Model{
		pos:  Generate(positive, shape),
		neg:  Generate(negative, shape),
		stop: stop,
	}
}

// DefaultModel trains a model from the built-in corpora.
func DefaultModel() *Model {
	return NewModel(defaultPositive, defaultNegative, ParseStopWords(defaultStopWords))
}

// LoadModel reads the corpora named by c and trains a model from them.
func LoadModel(c Corpora) (*Model, error) {
	positive, err := readCorpus(c.Positive, defaultPositive)
	if err != nil {
		return nil, err
	}
	negative, err := readCorpus(c.Negative, defaultNegative)
	if err != nil {
		return nil, err
	}
	stopText, err := readCorpus(c.StopWords, defaultStopWords)
	if err != nil {
		return nil, err
	}
	if len(positive) == 0 || len(negative) == 0 {
		return nil, fmt.Errorf("%w: empty corpus", ErrLexiconUnavailable)
	}
	return NewModel(positive, negative, ParseStopWords(stopText)), nil
}

func readCorpus(path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", ErrLexiconUnavailable, path, err)
	}
	return string(data), nil
}

// Score returns the sentiment of text in [0,1].
func (m *Model) Score(text string) float64 {
	return Score(text, m.pos, m.neg, m.stop)
}

// Average scores every text and returns the mean. It reports false when texts
// is empty.
func (m *Model) Average(texts []string) (float64, bool) {
	scores := make([]float64, 0, len(texts))
	for _, t := range texts {
		scores = append(scores, m.Score(t))
	}
	return Mean(scores)
}

// VocabularySize returns the number of words shared by both lexicons.
func (m *Model) VocabularySize() int {
	return len(m.pos)
}
