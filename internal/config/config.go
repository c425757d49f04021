package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// DataDirEnv overrides output.data_dir when set.
const DataDirEnv = "NEWSGRAPH_DATA_DIR"

type Config struct {
	Sources   Sources   `yaml:"sources"`
	Sentiment Sentiment `yaml:"sentiment"`
	LLM       LLM       `yaml:"llm"`
	Graph     Graph     `yaml:"graph"`
	Ingest    Ingest    `yaml:"ingest"`
	Output    Output    `yaml:"output"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
}

type Sources struct {
	Feeds        []Feed     `yaml:"feeds"`
	APIs         APIsConfig `yaml:"apis"`
	FetchContent bool       `yaml:"fetch_content"`
	MaxPerFeed   int        `yaml:"max_per_feed"`
	// Comments enables fetching discussion comments for reddit items.
	Comments bool `yaml:"comments"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type APIsConfig struct {
	NewsAPI NewsAPIConfig `yaml:"newsapi"`
}

type NewsAPIConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKeyEnv string `yaml:"api_key_env"`
	Query     string `yaml:"query"`
}

// Sentiment selects how document sentiment is obtained: "model" uses the
// built-in word-polarity model, "llm" asks the configured provider and
// "none" ingests documents without sentiment.
type Sentiment struct {
	Source    string `yaml:"source"`
	Positive  string `yaml:"positive_corpus"`
	Negative  string `yaml:"negative_corpus"`
	StopWords string `yaml:"stopwords"`
}

type LLM struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
}

type Graph struct {
	RetentionDays int `yaml:"retention_days"`
}

type Ingest struct {
	Workers int `yaml:"workers"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for newsgraph.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "newsgraph")
}

// DataDir returns the XDG data directory for newsgraph.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "newsgraph")
}

// LoadEnv loads variables from a .env file in the working directory, if
// present. Variables already set in the environment win.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/newsgraph/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'newsgraph init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{
			APIs: APIsConfig{
				NewsAPI: NewsAPIConfig{
					APIKeyEnv: "NEWSAPI_KEY",
					Query:     "world news",
				},
			},
			MaxPerFeed: 25,
		},
		Sentiment: Sentiment{Source: "model"},
		LLM: LLM{
			Provider:    "ollama",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
		},
		Graph:   Graph{RetentionDays: 3},
		Ingest:  Ingest{Workers: 1},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Sentiment.Source {
	case "model", "llm", "none":
	default:
		return fmt.Errorf("invalid sentiment.source %q: want model, llm or none", c.Sentiment.Source)
	}
	if c.Graph.RetentionDays < 1 {
		return fmt.Errorf("graph.retention_days must be at least 1, got %d", c.Graph.RetentionDays)
	}
	if c.Ingest.Workers < 1 {
		c.Ingest.Workers = 1
	}
	return nil
}

// GetDataDir returns the effective data directory: the environment override,
// then config, then the XDG default.
func (c *Config) GetDataDir() string {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir
	}
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DBPath returns the path of the graph database.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), "newsgraph.db")
}

// RecencyWindow returns the graph retention as a duration.
func (c *Config) RecencyWindow() time.Duration {
	return time.Duration(c.Graph.RetentionDays) * 24 * time.Hour
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
