// Package sentiment implements the naive-Bayes style word-polarity scorer used
// to attach sentiment to graph nodes.
package sentiment

import (
	"math"
	"strings"

	"github.com/TobiSchelling/NewsGraph/internal/textnorm"
)

// Neutral is returned whenever no sentiment-bearing word is recognized.
const Neutral = 0.5

// prior is the fixed class prior of both polarities; it cancels out.
const prior = 0.5

// Trained maps each vocabulary word to its Laplace-smoothed probability
// under one polarity.
type Trained map[string]float64

// Generate counts the words of corpus that occur in shape and converts every
// count c to (c+1) / (total + |V|). shape itself is never modified.
func Generate(corpus string, shape Lexicon) Trained {
	counts := shape.clone()
	for _, token := range strings.Fields(corpus) {
		w := textnorm.Word(token)
		if _, ok := counts[w]; ok {
			counts[w]++
		}
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	denom := float64(total + len(counts))

	trained := make(Trained, len(counts))
	for w, c := range counts {
		trained[w] = float64(c+1) / denom
	}
	return trained
}

// Score returns p_pos / (p_pos + p_neg) rounded to four decimals, where each p
// is the prior times the product of the word probabilities of sentence under
// that polarity. It returns Neutral when either product is zero.
func Score(sentence string, pos, neg Trained, stop StopWords) float64 {
	words := strings.Fields(sentence)

	pPos := prior
	pNeg := prior
	for _, token := range words {
		w := textnorm.Word(token)
		if w == "" || stop.Contains(w) {
			continue
		}
		if p, ok := pos[w]; ok {
			pPos *= p
		}
		if p, ok := neg[w]; ok {
			pNeg *= p
		}
	}

	if pPos == 0 || pNeg == 0 {
		return Neutral
	}
	return round4(pPos / (pPos + pNeg))
}

// Mean returns the arithmetic mean of scores and false when there are none.
func Mean(scores []float64) (float64, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores)), true
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
