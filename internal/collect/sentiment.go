package collect

import (
	"context"
	"fmt"

	"github.com/TobiSchelling/NewsGraph/internal/config"
	"github.com/TobiSchelling/NewsGraph/internal/llm"
	"github.com/TobiSchelling/NewsGraph/internal/nlp"
	"github.com/TobiSchelling/NewsGraph/internal/sentiment"
)

// SentimentSource supplies the sentiment of an entry. A nil score means the
// entry is ingested without sentiment.
type SentimentSource interface {
	Rate(ctx context.Context, e Entry) (*float64, error)
}

// ModelSentiment scores entries with the word-polarity model. The score is the
// mean over the entry's comments when it has any, otherwise over the
// sentences of its text.
type ModelSentiment struct {
	model *sentiment.Model
}

// NewModelSentiment creates a model-backed sentiment source.
func NewModelSentiment(model *sentiment.Model) *ModelSentiment {
	return &ModelSentiment{model: model}
}

func (s *ModelSentiment) Rate(_ context.Context, e Entry) (*float64, error) {
	texts := e.Comments
	if len(texts) == 0 {
		sentences, err := nlp.SplitSentences(e.Text())
		if err != nil {
			return nil, fmt.Errorf("splitting sentences: %w", err)
		}
		texts = sentences
	}
	avg, ok := s.model.Average(texts)
	if !ok {
		return nil, nil
	}
	return &avg, nil
}

// LLMSentiment asks an LLM provider for the sentiment of an entry.
type LLMSentiment struct {
	rater *llm.SentimentRater
}

// NewLLMSentiment creates an LLM-backed sentiment source.
func NewLLMSentiment(rater *llm.SentimentRater) *LLMSentiment {
	return &LLMSentiment{rater: rater}
}

func (s *LLMSentiment) Rate(ctx context.Context, e Entry) (*float64, error) {
	score, err := s.rater.Rate(ctx, e.Text())
	if err != nil {
		return nil, err
	}
	return &score, nil
}

// NoSentiment leaves every entry without sentiment.
type NoSentiment struct{}

func (NoSentiment) Rate(context.Context, Entry) (*float64, error) { return nil, nil }

// NewSentimentSource returns the source selected by cfg.Sentiment.Source.
// model may be nil unless the source is "model"; provider may be nil unless
// it is "llm".
func NewSentimentSource(cfg *config.Config, model *sentiment.Model, provider llm.Provider) (SentimentSource, error) {
	switch cfg.Sentiment.Source {
	case "model":
		if model == nil {
			return nil, fmt.Errorf("sentiment source model: %w", sentiment.ErrLexiconUnavailable)
		}
		return NewModelSentiment(model), nil
	case "llm":
		if provider == nil {
			return nil, fmt.Errorf("sentiment source llm: no provider available")
		}
		return NewLLMSentiment(llm.NewSentimentRater(provider)), nil
	case "none":
		return NoSentiment{}, nil
	default:
		return nil, fmt.Errorf("unknown sentiment source %q", cfg.Sentiment.Source)
	}
}
