// Package llm asks a chat model for structured judgements about news text.
// Replies are constrained to a JSON schema and decoded leniently.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/TobiSchelling/NewsGraph/internal/config"
)

// ErrUnavailable is returned when the configured provider cannot be used.
var ErrUnavailable = errors.New("llm provider unavailable")

// Provider sends one system and one user message to a chat model and
// returns the raw reply. schema is a JSON schema the reply must follow.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string, schema any) (string, error)
}

// NewProvider returns the provider selected by cfg.Provider. There is no
// fallback between providers.
func NewProvider(ctx context.Context, cfg config.LLM) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		p, err := NewOllama(cfg.OllamaURL, cfg.Model, nil)
		if err != nil {
			return nil, err
		}
		if err := p.Available(ctx); err != nil {
			return nil, err
		}
		log.Info("rating sentiment with ollama", "model", cfg.Model)
		return p, nil
	case "openai":
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("%w: %s is not set", ErrUnavailable, cfg.APIKeyEnv)
		}
		log.Info("rating sentiment with openai", "model", cfg.OpenAIModel)
		return NewOpenAI(cfg.OpenAIModel, key), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrUnavailable, cfg.Provider)
	}
}
