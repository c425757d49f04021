package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3/option"

	"github.com/TobiSchelling/NewsGraph/internal/config"
)

type fakeProvider struct {
	reply  string
	err    error
	system string
	user   string
	schema any
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, system, user string, schema any) (string, error) {
	f.system, f.user, f.schema = system, user, schema
	return f.reply, f.err
}

func rate(t *testing.T, reply string) (float64, error) {
	t.Helper()
	return NewSentimentRater(&fakeProvider{reply: reply}).Rate(context.Background(), "x")
}

func TestSentimentRaterParsesScore(t *testing.T) {
	p := &fakeProvider{reply: "```json\n{\"sentiment\": 0.82}\n```"}
	score, err := NewSentimentRater(p).Rate(context.Background(), "Markets rallied.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0.82 {
		t.Errorf("expected 0.82, got %v", score)
	}
	if p.user != "Markets rallied." {
		t.Errorf("expected text as user message, got %q", p.user)
	}
	if p.schema == nil {
		t.Error("expected a reply schema")
	}
}

func TestSentimentRaterLenientReplies(t *testing.T) {
	cases := map[string]float64{
		`{"sentiment": 1.7}`:          1,
		`{"sentiment": -2}`:           0,
		`{"sentiment": "0.25"}`:       0.25,
		`"{\"sentiment\": 0.3}"`:      0.3,
		`{sentiment: 0.6}`:            0.6,
		"  \n {\"sentiment\": 0.5} ": 0.5,
	}
	for reply, want := range cases {
		got, err := rate(t, reply)
		if err != nil {
			t.Errorf("reply %q: unexpected error: %v", reply, err)
			continue
		}
		if got != want {
			t.Errorf("reply %q: expected %v, got %v", reply, want, got)
		}
	}
}

func TestSentimentRaterErrors(t *testing.T) {
	for _, reply := range []string{"", "I cannot say", `{}`, `{"sentiment": "high"}`} {
		if _, err := rate(t, reply); !errors.Is(err, ErrNoScore) {
			t.Errorf("reply %q: expected ErrNoScore, got %v", reply, err)
		}
	}

	boom := errors.New("connection refused")
	_, err := NewSentimentRater(&fakeProvider{err: boom}).Rate(context.Background(), "x")
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
}

func TestSentimentSchema(t *testing.T) {
	data, err := json.Marshal(sentimentSchema)
	if err != nil {
		t.Fatalf("encoding schema: %v", err)
	}
	var schema struct {
		Type       string                     `json:"type"`
		Properties map[string]json.RawMessage `json:"properties"`
		Required   []string                   `json:"required"`
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("decoding schema: %v", err)
	}
	if schema.Type != "object" {
		t.Errorf("expected object schema, got %q", schema.Type)
	}
	if !strings.Contains(string(schema.Properties["sentiment"]), `"number"`) {
		t.Errorf("expected numeric sentiment property, got %s", schema.Properties["sentiment"])
	}
	if len(schema.Required) != 1 || schema.Required[0] != "sentiment" {
		t.Errorf("expected sentiment to be required, got %v", schema.Required)
	}
}

func TestOpenAIComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"json_schema"`) {
			t.Errorf("expected json_schema response format, got %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":0,"model":"m",` +
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"sentiment\": 0.4}"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAI("m", "secret", option.WithBaseURL(srv.URL), option.WithHTTPClient(srv.Client()), option.WithMaxRetries(0))
	score, err := NewSentimentRater(p).Rate(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0.4 {
		t.Errorf("expected 0.4, got %v", score)
	}
}

func TestOllamaComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"qwen2.5:7b"}]}`))
		case "/api/chat":
			var req struct {
				Format   json.RawMessage `json:"format"`
				Messages []struct {
					Role string `json:"role"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decoding request: %v", err)
			}
			if !strings.Contains(string(req.Format), "sentiment") {
				t.Errorf("expected schema format, got %s", req.Format)
			}
			if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
				t.Errorf("expected system and user messages, got %+v", req.Messages)
			}
			w.Write([]byte(`{"model":"qwen2.5:7b","message":{"role":"assistant","content":"{\"sentiment\": 0.1}"},"done":true}` + "\n"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	p, err := NewOllama(srv.URL, "qwen2.5:7b", srv.Client())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Available(context.Background()); err != nil {
		t.Fatalf("expected model available: %v", err)
	}
	score, err := NewSentimentRater(p).Rate(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0.1 {
		t.Errorf("expected 0.1, got %v", score)
	}
}

func TestOllamaMissingModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"llama3:8b"}]}`))
	}))
	defer srv.Close()

	p, _ := NewOllama(srv.URL, "qwen2.5:7b", srv.Client())
	if err := p.Available(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestNewProviderSelection(t *testing.T) {
	t.Setenv("NEWSGRAPH_TEST_KEY", "")
	_, err := NewProvider(context.Background(), config.LLM{Provider: "openai", APIKeyEnv: "NEWSGRAPH_TEST_KEY"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable without key, got %v", err)
	}

	t.Setenv("NEWSGRAPH_TEST_KEY", "k")
	p, err := NewProvider(context.Background(), config.LLM{Provider: "OpenAI", OpenAIModel: "m", APIKeyEnv: "NEWSGRAPH_TEST_KEY"})
	if err != nil || p.Name() != "openai" {
		t.Errorf("expected openai provider, got %v (%v)", p, err)
	}

	if _, err := NewProvider(context.Background(), config.LLM{Provider: "bard"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for unknown provider, got %v", err)
	}
}
