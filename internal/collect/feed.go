package collect

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxPerFeed = 25
	feedConcurrency   = 4
	userAgent         = "NewsGraph/1.0 (entity graph builder)"
)

// FeedConfig represents a single feed configuration.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedParser parses RSS/Atom feeds.
type FeedParser struct {
	feeds      []FeedConfig
	maxPerFeed int
}

// NewFeedParser creates a new FeedParser keeping at most maxPerFeed items per
// feed.
func NewFeedParser(feeds []FeedConfig, maxPerFeed int) *FeedParser {
	if maxPerFeed <= 0 {
		maxPerFeed = defaultMaxPerFeed
	}
	return &FeedParser{feeds: feeds, maxPerFeed: maxPerFeed}
}

// ParseAll parses all configured feeds concurrently and returns the entries
// published at or after cutoff, in feed order. A failing feed is logged and
// skipped.
func (fp *FeedParser) ParseAll(ctx context.Context, cutoff time.Time) []Entry {
	perFeed := make([][]Entry, len(fp.feeds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(feedConcurrency)
	for i, fc := range fp.feeds {
		g.Go(func() error {
			name := fc.Name
			if name == "" {
				name = extractSourceName(fc.URL)
			}

			parser := gofeed.NewParser()
			parser.UserAgent = userAgent
			entries, err := fp.parseFeed(ctx, parser, fc.URL, name, cutoff)
			if err != nil {
				log.Warn("failed to parse feed", "url", fc.URL, "err", err)
				return nil
			}
			perFeed[i] = entries
			log.Debug("parsed feed", "source", name, "entries", len(entries))
			return nil
		})
	}
	_ = g.Wait()

	var all []Entry
	for _, entries := range perFeed {
		all = append(all, entries...)
	}
	return all
}

func (fp *FeedParser) parseFeed(ctx context.Context, parser *gofeed.Parser, feedURL, sourceName string, cutoff time.Time) ([]Entry, error) {
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, item := range feed.Items {
		if len(entries) >= fp.maxPerFeed {
			break
		}

		entry := parseItem(item, sourceName)
		if entry == nil {
			continue
		}
		if isWithinWindow(entry.Published, cutoff) {
			entries = append(entries, *entry)
		}
	}

	return entries, nil
}

func parseItem(item *gofeed.Item, source string) *Entry {
	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}
	if itemURL == "" {
		return nil
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil
	}

	var published *time.Time
	if item.PublishedParsed != nil {
		published = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed
	}

	var content string
	if item.Description != "" {
		content = stripHTML(item.Description)
	} else if item.Content != "" {
		content = stripHTML(item.Content)
	}

	return &Entry{
		URL:       itemURL,
		Title:     stripHTML(title),
		Published: published,
		Content:   content,
		Source:    source,
	}
}

func isWithinWindow(published *time.Time, cutoff time.Time) bool {
	if published == nil {
		return true // benefit of the doubt
	}
	return !published.Before(cutoff)
}

// stripHTML returns the visible text of an HTML fragment with whitespace
// collapsed.
func stripHTML(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return strings.Join(strings.Fields(text), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return strings.Join(strings.Fields(text), " ")
	}
	// Keep words from adjacent block elements apart.
	doc.Find("br, p, div, li").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		return strings.ToUpper(name[:1]) + name[1:]
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
