package llm

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrNoScore is returned when the model's reply carries no usable score.
var ErrNoScore = errors.New("no sentiment score in llm response")

const sentimentSystem = `You rate the overall sentiment of news text on a scale from 0 to 1,
where 0 is entirely negative, 0.5 is neutral and 1 is entirely positive.
Reply with JSON of the form {"sentiment": <number>}.`

// maxPromptRunes bounds the text sent to the provider.
const maxPromptRunes = 4000

// scoreReply is the reply the model is constrained to.
type scoreReply struct {
	Sentiment *number `json:"sentiment" jsonschema:"description=Sentiment from 0 (negative) to 1 (positive)"`
}

var sentimentSchema = schemaFor(&scoreReply{})

// SentimentRater asks an LLM provider for document sentiment.
type SentimentRater struct {
	provider Provider
}

// NewSentimentRater creates a rater backed by provider.
func NewSentimentRater(provider Provider) *SentimentRater {
	return &SentimentRater{provider: provider}
}

// Rate returns the sentiment of text in [0,1]. Scores outside the range are
// clamped.
func (r *SentimentRater) Rate(ctx context.Context, text string) (float64, error) {
	reply, err := r.provider.Complete(ctx, sentimentSystem, truncate(text, maxPromptRunes), sentimentSchema)
	if err != nil {
		return 0, fmt.Errorf("rating sentiment with %s: %w", r.provider.Name(), err)
	}

	var out scoreReply
	if err := decodeReply(reply, &out); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoScore, err)
	}
	if out.Sentiment == nil {
		return 0, ErrNoScore
	}
	return min(max(float64(*out.Sentiment), 0), 1), nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
