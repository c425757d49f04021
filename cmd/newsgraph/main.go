package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/NewsGraph/internal/collect"
	"github.com/TobiSchelling/NewsGraph/internal/config"
	"github.com/TobiSchelling/NewsGraph/internal/database"
	"github.com/TobiSchelling/NewsGraph/internal/graph"
	"github.com/TobiSchelling/NewsGraph/internal/llm"
	"github.com/TobiSchelling/NewsGraph/internal/nlp"
	"github.com/TobiSchelling/NewsGraph/internal/pipeline"
	"github.com/TobiSchelling/NewsGraph/internal/recency"
	"github.com/TobiSchelling/NewsGraph/internal/sentiment"
	"github.com/TobiSchelling/NewsGraph/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "newsgraph",
	Short:   "Entity knowledge graph of recent news",
	Long:    "NewsGraph collects news items, links the named entities that appear together and tracks how people talk about them.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging("")

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		if err := config.LoadEnv(); err != nil {
			return err
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		setupLogging(cfg.Logging.Level)
		log.Debug("config loaded", "path", path)
		return nil
	},
}

func setupLogging(level string) {
	lvl := log.InfoLevel
	if level != "" {
		if parsed, err := log.ParseLevel(strings.ToLower(level)); err == nil {
			lvl = parsed
		}
	}
	if verbose {
		lvl = log.DebugLevel
	}
	log.SetLevel(lvl)
	log.SetReportCaller(lvl == log.DebugLevel)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("newsgraph", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/newsgraph/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, the sentiment source and the LLM provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and graph status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		snap, err := recency.NewView(db, cfg.RecencyWindow()).Snapshot()
		if err != nil {
			return fmt.Errorf("building snapshot: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Graph:")
		fmt.Printf("  Sources: %d\n", stats.Sources)
		fmt.Printf("  Entities: %d\n", stats.Nodes)
		fmt.Printf("  Links: %d\n", stats.Edges)
		fmt.Printf("  Sentiment observations: %d\n", stats.Sentiments)
		fmt.Printf("\nRecent (last %s):\n", snap.Window)
		fmt.Printf("  Entities: %d\n", len(snap.Nodes))
		fmt.Printf("  Links: %d\n", len(snap.Edges))
		fmt.Println("\nRuns:")
		fmt.Printf("  Total: %d\n", stats.Runs)
		if last := stats.LastRun; last != nil {
			fmt.Printf("  Last: %s (%d ingested, %d skipped, %d failed)\n",
				last.StartedAt.Local().Format("2006-01-02 15:04"), last.Ingested, last.Skipped, last.Failed)
		}
		return nil
	},
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "List what the configured sources currently offer, without ingesting",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Collecting entries from sources...")

		collector := collect.NewCollector(cfg, cfg.RecencyWindow())
		entries, result := collector.Collect(cmd.Context())

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  Unique entries: %d\n", len(entries))
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)

		if len(result.Sources) > 0 {
			fmt.Println("\nEntries by source:")
			for _, name := range sortedSources(result.Sources) {
				fmt.Printf("  %s: %d\n", name, result.Sources[name])
			}
		}
		return nil
	},
}

// --- run command ---

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the feed loop: collect -> filter -> fetch -> ingest",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		source, err := newSentimentSource()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		collector := collect.NewCollector(cfg, cfg.RecencyWindow())
		pipe := pipeline.New(cfg, db, collector, newEngine(db), source)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(ctx)
		} else {
			result = pipe.Run(ctx)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if !dryRun {
			fmt.Println("\nRun complete! Run 'newsgraph serve' to browse the graph.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

// --- add command ---

var (
	addSourceID string
	addTitle    string
)

var addCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Ingest one document from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		sourceID := addSourceID
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
			if sourceID == "" {
				abs, absErr := filepath.Abs(args[0])
				if absErr != nil {
					return absErr
				}
				sourceID = "file://" + abs
			}
		} else {
			data, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return fmt.Errorf("reading document: %w", err)
		}
		if sourceID == "" {
			return errors.New("--source-id is required when reading from stdin")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		source, err := newSentimentSource()
		if err != nil {
			return err
		}

		entry := collect.Entry{URL: sourceID, Title: addTitle, Content: string(data)}
		score, err := source.Rate(cmd.Context(), entry)
		if err != nil {
			log.Warn("sentiment unavailable", "source", sourceID, "err", err)
			score = nil
		}

		res, err := newEngine(db).Ingest(entry.Document(score))
		if err != nil {
			return err
		}

		if res.Status == graph.StatusSkipped {
			fmt.Printf("Already ingested: %s\n", sourceID)
			return nil
		}
		fmt.Printf("Ingested %s\n", sourceID)
		fmt.Printf("  Entities: %s\n", strings.Join(res.Entities, ", "))
		fmt.Printf("  Nodes: %d created, %d updated\n", res.NodesCreated, res.NodesUpdated)
		fmt.Printf("  Links: %d\n", res.Edges)
		if score != nil {
			fmt.Printf("  Sentiment: %.4f\n", *score)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addSourceID, "source-id", "", "Source identifier (defaults to the file URL)")
	addCmd.Flags().StringVar(&addTitle, "title", "", "Document title")
}

// --- score command ---

var scoreCmd = &cobra.Command{
	Use:   "score [text...]",
	Short: "Print the sentiment of text from arguments or stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := loadModel()
		if err != nil {
			return err
		}

		text := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading text: %w", err)
			}
			text = string(data)
		}

		fmt.Printf("%.4f\n", model.Score(text))
		return nil
	},
}

// --- graph command ---

var (
	graphMarkdown bool
	graphWeb      bool
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the recent graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		snap, err := recency.NewView(db, cfg.RecencyWindow()).Snapshot()
		if err != nil {
			return fmt.Errorf("building snapshot: %w", err)
		}

		if graphMarkdown {
			fmt.Print(server.Report(snap))
			return nil
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if graphWeb {
			return enc.Encode(server.BuildGraphJSON(snap))
		}
		return enc.Encode(snap)
	},
}

func init() {
	graphCmd.Flags().BoolVar(&graphMarkdown, "markdown", false, "Print a markdown report instead of JSON")
	graphCmd.Flags().BoolVar(&graphWeb, "web", false, "Print the node-link document served at /graph.json")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, recency.NewView(db, cfg.RecencyWindow()), port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

func openDB() (*database.DB, error) {
	if err := os.MkdirAll(cfg.GetDataDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.DBPath())
}

func newEngine(db *database.DB) *graph.Engine {
	return graph.NewEngine(graph.NewStore(db), nlp.NewProseTagger())
}

func loadModel() (*sentiment.Model, error) {
	model, err := sentiment.LoadModel(sentiment.Corpora{
		Positive:  cfg.Sentiment.Positive,
		Negative:  cfg.Sentiment.Negative,
		StopWords: cfg.Sentiment.StopWords,
	})
	if err != nil {
		return nil, fmt.Errorf("loading sentiment model: %w", err)
	}
	log.Debug("sentiment model ready", "vocabulary", model.VocabularySize())
	return model, nil
}

// newSentimentSource builds the configured sentiment source. A model that
// cannot be loaded stops the command before anything is ingested.
func newSentimentSource() (collect.SentimentSource, error) {
	var (
		model    *sentiment.Model
		provider llm.Provider
		err      error
	)
	switch cfg.Sentiment.Source {
	case "model":
		if model, err = loadModel(); err != nil {
			return nil, err
		}
	case "llm":
		if provider, err = llm.NewProvider(context.Background(), cfg.LLM); err != nil {
			return nil, err
		}
	}
	return collect.NewSentimentSource(cfg, model, provider)
}

// sortedSources returns per-source counts, largest first.
func sortedSources(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
