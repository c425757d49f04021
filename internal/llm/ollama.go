package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// Ollama talks to a local Ollama server.
type Ollama struct {
	client *api.Client
	model  string
}

// NewOllama creates a client for the server at baseURL. A nil httpClient
// uses one with a two minute timeout.
func NewOllama(baseURL, model string, httpClient *http.Client) (*Ollama, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Ollama{client: api.NewClient(u, httpClient), model: model}, nil
}

func (o *Ollama) Name() string { return "ollama" }

// Available reports an error unless the server answers and has the model.
func (o *Ollama) Available(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	list, err := o.client.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	base, _, _ := strings.Cut(o.model, ":")
	for _, m := range list.Models {
		if strings.HasPrefix(m.Name, base) {
			return nil
		}
	}
	return fmt.Errorf("%w: model %s not pulled", ErrUnavailable, o.model)
}

func (o *Ollama) Complete(ctx context.Context, system, user string, schema any) (string, error) {
	format, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("encoding schema: %w", err)
	}

	stream := false
	req := &api.ChatRequest{
		Model: o.model,
		Messages: []api.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream:  &stream,
		Format:  json.RawMessage(format),
		Options: map[string]any{"temperature": 0},
	}

	var reply strings.Builder
	err = o.client.Chat(ctx, req, func(cr api.ChatResponse) error {
		reply.WriteString(cr.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return reply.String(), nil
}
