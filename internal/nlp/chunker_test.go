package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEntitiesBreaksRunAtNonProperNoun(t *testing.T) {
	sentences := []Sentence{{
		{"Dr", "NNP"}, {"Foster", "NNP"}, {"went", "VBD"}, {"to", "TO"}, {"Glouster", "NNP"},
	}}

	assert.Equal(t, []string{"Dr Foster", "Glouster"}, ExtractEntities(sentences).Collect())
}

func TestExtractEntitiesNoEntities(t *testing.T) {
	sentences := []Sentence{
		{{"The", "DT"}, {"cat", "NN"}, {"sat", "VBD"}, {"on", "IN"}, {"the", "DT"}, {"mat", "NN"}, {".", "."}},
		{{"The", "DT"}, {"dog", "NN"}, {"however", "RB"}, {",", ","}, {"did", "VBD"}, {"not", "RB"}, {"!", "."}},
	}

	assert.Empty(t, ExtractEntities(sentences).Collect())
}

func TestExtractEntitiesDoesNotCrossSentences(t *testing.T) {
	sentences := []Sentence{
		{{"He", "PRP"}, {"met", "VBD"}, {"Angela", "NNP"}},
		{{"Merkel", "NNP"}, {"spoke", "VBD"}},
	}

	assert.Equal(t, []string{"Angela", "Merkel"}, ExtractEntities(sentences).Collect())
}

func TestExtractEntitiesKeepsRepeats(t *testing.T) {
	sentences := []Sentence{
		{{"Paris", "NNP"}, {"is", "VBZ"}, {"big", "JJ"}},
		{{"Paris", "NNP"}, {"Hilton", "NNP"}, {"and", "CC"}, {"Paris", "NNP"}},
	}

	assert.Equal(t, []string{"Paris", "Paris Hilton", "Paris"}, ExtractEntities(sentences).Collect())
}

func TestExtractEntitiesPluralProperNoun(t *testing.T) {
	sentences := []Sentence{{{"United", "NNP"}, {"Nations", "NNPS"}, {"met", "VBD"}}}

	assert.Equal(t, []string{"United Nations"}, ExtractEntities(sentences).Collect())
}

func TestExtractEntitiesEmptySentences(t *testing.T) {
	assert.Empty(t, ExtractEntities(nil).Collect())
	assert.Empty(t, ExtractEntities([]Sentence{{}, {}}).Collect())
}

func TestEntitiesIsSinglePass(t *testing.T) {
	it := ExtractEntities([]Sentence{{{"Rome", "NNP"}}})

	ent, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, "Rome", ent)

	_, ok = it.Next()
	assert.False(t, ok)
	_, ok = it.Next()
	assert.False(t, ok)
	assert.Empty(t, it.Collect())
}
