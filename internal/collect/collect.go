// Package collect gathers news entries from RSS/Atom feeds and NewsAPI and
// turns them into graph documents.
package collect

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/TobiSchelling/NewsGraph/internal/config"
	"github.com/TobiSchelling/NewsGraph/internal/graph"
)

// Entry is one collected news item.
type Entry struct {
	URL       string
	Title     string
	Content   string
	Source    string
	Published *time.Time
	// Comments holds discussion text used for sentiment, when available.
	Comments []string
}

// Text returns the text entities are extracted from: the title followed by
// the entry content.
func (e Entry) Text() string {
	title := strings.TrimSpace(e.Title)
	content := strings.TrimSpace(e.Content)
	switch {
	case content == "":
		return title
	case title == "":
		return content
	case strings.ContainsAny(title[len(title)-1:], ".!?"):
		return title + " " + content
	default:
		return title + ". " + content
	}
}

// Document converts the entry into a graph document.
func (e Entry) Document(score *float64) graph.Document {
	return graph.Document{
		SourceID:    e.URL,
		Text:        e.Text(),
		PublishedAt: e.Published,
		Sentiment:   score,
	}
}

// Result holds the results of a collection run.
type Result struct {
	TotalFound int
	Duplicates int
	Sources    map[string]int
}

// Collector orchestrates entry collection from RSS feeds and NewsAPI.
type Collector struct {
	feedParser *FeedParser
	newsClient *NewsAPIClient
	comments   *CommentFetcher
	newsQuery  string
	maxAge     time.Duration
}

// NewCollector creates a new collector. Entries published more than maxAge ago
// are dropped.
func NewCollector(cfg *config.Config, maxAge time.Duration) *Collector {
	c := &Collector{maxAge: maxAge}

	if len(cfg.Sources.Feeds) > 0 {
		feeds := make([]FeedConfig, len(cfg.Sources.Feeds))
		for i, f := range cfg.Sources.Feeds {
			feeds[i] = FeedConfig{URL: f.URL, Name: f.Name}
		}
		c.feedParser = NewFeedParser(feeds, cfg.Sources.MaxPerFeed)
	}

	apiCfg := cfg.Sources.APIs.NewsAPI
	if apiCfg.Enabled {
		c.newsClient = NewNewsAPIClient(apiCfg.APIKeyEnv)
		c.newsQuery = apiCfg.Query
		if c.newsQuery == "" {
			c.newsQuery = "world news"
		}
	}

	if cfg.Sources.Comments {
		c.comments = NewCommentFetcher()
	}

	return c
}

// Collect returns the entries of all configured sources, deduplicated by URL.
func (c *Collector) Collect(ctx context.Context) ([]Entry, *Result) {
	r := &Result{Sources: make(map[string]int)}
	cutoff := time.Now().Add(-c.maxAge)

	var found []Entry
	if c.feedParser != nil {
		log.Info("collecting from feeds", "feeds", len(c.feedParser.feeds))
		found = append(found, c.feedParser.ParseAll(ctx, cutoff)...)
	}

	if c.newsClient != nil && c.newsClient.IsConfigured() {
		log.Info("collecting from newsapi", "query", c.newsQuery)
		found = append(found, c.newsClient.Search(ctx, c.newsQuery, cutoff, 100)...)
	}

	r.TotalFound = len(found)
	entries := make([]Entry, 0, len(found))
	seen := make(map[string]struct{}, len(found))
	for _, e := range found {
		if _, dup := seen[e.URL]; dup {
			r.Duplicates++
			continue
		}
		seen[e.URL] = struct{}{}
		r.Sources[e.Source]++
		entries = append(entries, e)
	}

	if c.comments != nil {
		c.comments.Attach(ctx, entries)
	}

	log.Info("collection complete", "found", r.TotalFound, "unique", len(entries), "duplicates", r.Duplicates)
	return entries, r
}
