// Package pipeline runs one ingestion pass: collect entries, drop the ones
// already in the graph, optionally fetch article text, then score and ingest
// the rest.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/NewsGraph/internal/collect"
	"github.com/TobiSchelling/NewsGraph/internal/config"
	"github.com/TobiSchelling/NewsGraph/internal/database"
	"github.com/TobiSchelling/NewsGraph/internal/fetch"
	"github.com/TobiSchelling/NewsGraph/internal/graph"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID string
	Steps []StepResult
	Run   database.IngestRun
}

// Source yields the entries of one run.
type Source interface {
	Collect(ctx context.Context) ([]collect.Entry, *collect.Result)
}

// Pipeline orchestrates the ingestion steps.
type Pipeline struct {
	cfg       *config.Config
	db        *database.DB
	source    Source
	engine    *graph.Engine
	sentiment collect.SentimentSource
	fetcher   *fetch.ContentFetcher
	now       func() time.Time
}

// New creates a new pipeline.
func New(cfg *config.Config, db *database.DB, source Source, engine *graph.Engine, sentiment collect.SentimentSource) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		db:        db,
		source:    source,
		engine:    engine,
		sentiment: sentiment,
		now:       time.Now,
	}
	if cfg.Sources.FetchContent {
		p.fetcher = fetch.NewContentFetcher(15 * time.Second)
	}
	return p
}

// Run executes collect, filter, fetch and ingest, recording the run.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{}

	runID, err := p.db.StartRun(p.now())
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Start", Err: err})
		return r
	}
	r.RunID = runID
	r.Run.ID = runID

	// Step 1: Collect
	log.Info("step 1/4: collecting entries")
	entries, collected := p.source.Collect(ctx)
	r.Run.Documents = len(entries)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("Found %d entries (%d total, %d duplicates)", len(entries), collected.TotalFound, collected.Duplicates),
	})

	// Step 2: Filter entries whose source is already in the graph
	log.Info("step 2/4: filtering known sources")
	fresh, known, err := p.filterKnown(entries)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Filter", Err: err})
		p.finish(r)
		return r
	}
	r.Run.Skipped += known
	r.Steps = append(r.Steps, StepResult{
		Name:    "Filter",
		Summary: fmt.Sprintf("%d new, %d already ingested", len(fresh), known),
	})

	// Step 3: Fetch content
	if p.fetcher != nil {
		log.Info("step 3/4: fetching article content")
		fetched := p.fetcher.FetchMissingContent(ctx, fresh)
		r.Steps = append(r.Steps, StepResult{
			Name:    "Fetch",
			Summary: fmt.Sprintf("Fetched %d articles, %d failed", fetched.Fetched, fetched.Failed),
		})
	} else {
		log.Info("step 3/4: content fetching disabled")
	}

	// Step 4: Ingest
	log.Info("step 4/4: ingesting", "entries", len(fresh), "workers", p.cfg.Ingest.Workers)
	counts := p.IngestEntries(ctx, fresh)
	r.Run.Ingested += counts.Ingested
	r.Run.Skipped += counts.Skipped
	r.Run.Failed += counts.Failed
	step := StepResult{
		Name: "Ingest",
		Summary: fmt.Sprintf("Ingested %d documents: %d nodes created, %d edges (%d skipped, %d failed)",
			counts.Ingested, counts.NodesCreated, counts.Edges, counts.Skipped, counts.Failed),
	}
	if ctx.Err() != nil {
		step.Err = ctx.Err()
	}
	r.Steps = append(r.Steps, step)

	p.finish(r)
	return r
}

func (p *Pipeline) finish(r *Result) {
	if err := p.db.FinishRun(r.Run, p.now()); err != nil {
		log.Error("recording run", "run", r.RunID, "err", err)
	}
}

func (p *Pipeline) filterKnown(entries []collect.Entry) ([]collect.Entry, int, error) {
	fresh := make([]collect.Entry, 0, len(entries))
	known := 0
	for _, e := range entries {
		seen, err := p.db.HasSource(e.URL)
		if err != nil {
			return nil, 0, err
		}
		if seen {
			known++
			continue
		}
		fresh = append(fresh, e)
	}
	return fresh, known, nil
}

// Counts aggregates the outcomes of ingesting a batch of entries.
type Counts struct {
	Ingested     int
	Skipped      int
	Failed       int
	NodesCreated int
	Edges        int
}

func (c *Counts) add(res *graph.Result) {
	switch res.Status {
	case graph.StatusIngested:
		c.Ingested++
		c.NodesCreated += res.NodesCreated
		c.Edges += res.Edges
	case graph.StatusSkipped:
		c.Skipped++
	}
}

// IngestEntries scores and ingests entries using the configured number of
// workers. A failing entry is logged and counted; the batch continues.
func (p *Pipeline) IngestEntries(ctx context.Context, entries []collect.Entry) Counts {
	var (
		mu     sync.Mutex
		counts Counts
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.cfg.Ingest.Workers, 1))
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := p.ingestOne(ctx, e)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				counts.Failed++
				if errors.Is(err, graph.ErrExtraction) {
					log.Warn("extraction failed", "source", e.URL, "err", err)
				} else {
					log.Error("ingest failed", "source", e.URL, "err", err)
				}
				return nil
			}
			counts.add(res)
			log.Debug("ingested", "source", e.URL, "status", res.Status, "entities", len(res.Entities))
			return nil
		})
	}
	_ = g.Wait()
	return counts
}

func (p *Pipeline) ingestOne(ctx context.Context, e collect.Entry) (*graph.Result, error) {
	score, err := p.sentiment.Rate(ctx, e)
	if err != nil {
		// Sentiment is optional; the entities are still worth keeping.
		log.Warn("sentiment unavailable", "source", e.URL, "err", err)
		score = nil
	}
	return p.engine.Ingest(e.Document(score))
}

// DryRun collects entries and reports what a run would do without writing.
func (p *Pipeline) DryRun(ctx context.Context) *Result {
	r := &Result{}

	entries, collected := p.source.Collect(ctx)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("[dry-run] %d entries found (%d duplicates)", len(entries), collected.Duplicates),
	})

	fresh, known, err := p.filterKnown(entries)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Filter", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Filter",
		Summary: fmt.Sprintf("[dry-run] %d new, %d already ingested", len(fresh), known),
	})

	needing := 0
	for _, e := range fresh {
		if fetch.NeedsFetch(e) {
			needing++
		}
	}
	if p.fetcher != nil {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Fetch",
			Summary: fmt.Sprintf("[dry-run] %d entries need content fetching", needing),
		})
	}

	r.Steps = append(r.Steps, StepResult{
		Name:    "Ingest",
		Summary: fmt.Sprintf("[dry-run] Would ingest %d documents", len(fresh)),
	})
	return r
}
