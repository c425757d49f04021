package sentiment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultModelPolarity(t *testing.T) {
	m := DefaultModel()

	assert.Less(t, m.Score("That was terrible. I hated it."), 0.5)
	assert.Greater(t, m.Score("That was amazing. I loved it."), 0.5)
	assert.Equal(t, 0.5, m.Score(""))
}

func TestScoreNeutralWhenNothingRecognized(t *testing.T) {
	m := DefaultModel()

	assert.Equal(t, Neutral, m.Score("the and of to"))
	assert.Equal(t, Neutral, m.Score("zyxwv qwfpg"))
}

func TestScoreIsRoundedAndBounded(t *testing.T) {
	m := DefaultModel()
	for _, s := range []string{
		"a brilliant , wonderful triumph",
		"an awful , boring disaster",
		"the film was brilliant but the ending was awful",
	} {
		got := m.Score(s)
		assert.GreaterOrEqual(t, got, 0.0, s)
		assert.LessOrEqual(t, got, 1.0, s)
		assert.InDelta(t, got, round4(got), 1e-12, s)
	}
}

func TestBuildLexiconSharedZeroedVocabulary(t *testing.T) {
	stop := ParseStopWords("the\na\n")
	lex := BuildLexicon("The good film.", "a bad film", stop)

	assert.Equal(t, Lexicon{"good": 0, "film": 0, "bad": 0}, lex)
}

func TestGenerateLaplaceSmoothing(t *testing.T) {
	shape := Lexicon{"good": 0, "bad": 0, "film": 0}
	trained := Generate("good good film unknown", shape)

	// total counted = 3, |V| = 3
	assert.InDelta(t, 3.0/6.0, trained["good"], 1e-12)
	assert.InDelta(t, 2.0/6.0, trained["film"], 1e-12)
	assert.InDelta(t, 1.0/6.0, trained["bad"], 1e-12)
	assert.NotContains(t, trained, "unknown")

	var sum float64
	for _, p := range trained {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-12)

	// the shared shape is never mutated
	assert.Equal(t, Lexicon{"good": 0, "bad": 0, "film": 0}, shape)
}

func TestScoreFormula(t *testing.T) {
	pos := Trained{"good": 0.75, "bad": 0.25}
	neg := Trained{"good": 0.25, "bad": 0.75}

	assert.Equal(t, 0.75, Score("good", pos, neg, nil))
	assert.Equal(t, 0.25, Score("Bad!", pos, neg, nil))
	assert.Equal(t, 0.5, Score("good bad", pos, neg, nil))
	assert.Equal(t, 0.9, Score("good good", pos, neg, nil))
}

func TestScoreZeroProductIsNeutral(t *testing.T) {
	pos := Trained{"x": 0}
	neg := Trained{"x": 0.5}

	assert.Equal(t, Neutral, Score("x", pos, neg, nil))
}

func TestAverageAndMean(t *testing.T) {
	m := DefaultModel()

	_, ok := m.Average(nil)
	assert.False(t, ok)

	avg, ok := m.Average([]string{"", "zzz"})
	require.True(t, ok)
	assert.Equal(t, 0.5, avg)

	mean, ok := Mean([]float64{0.2, 0.4, 0.9})
	require.True(t, ok)
	assert.InDelta(t, 0.5, mean, 1e-12)
}

func TestLoadModelFromFiles(t *testing.T) {
	dir := t.TempDir()
	posPath := filepath.Join(dir, "pos.txt")
	negPath := filepath.Join(dir, "neg.txt")
	require.NoError(t, os.WriteFile(posPath, []byte("sunny bright happy"), 0o644))
	require.NoError(t, os.WriteFile(negPath, []byte("rainy dark sad"), 0o644))

	m, err := LoadModel(Corpora{Positive: posPath, Negative: negPath})
	require.NoError(t, err)

	assert.Equal(t, 6, m.VocabularySize())
	assert.Greater(t, m.Score("a happy day"), 0.5)
	assert.Less(t, m.Score("a sad day"), 0.5)
}

func TestLoadModelMissingCorpus(t *testing.T) {
	_, err := LoadModel(Corpora{Positive: filepath.Join(t.TempDir(), "missing.txt")})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLexiconUnavailable)
}

func TestLoadModelDefaults(t *testing.T) {
	m, err := LoadModel(Corpora{})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel().VocabularySize(), m.VocabularySize())
}
