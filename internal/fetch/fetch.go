// Package fetch enriches short feed entries with the readable text of the
// linked article.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	readability "github.com/go-shiori/go-readability"

	"github.com/TobiSchelling/NewsGraph/internal/collect"
)

const (
	// minContentChars is the feed text length below which an article is fetched.
	minContentChars = 200
	// minExtractedChars is the extracted text length below which a page counts
	// as having no article.
	minExtractedChars = 100
	// maxContentChars bounds the text kept per entry.
	maxContentChars = 5000
)

// Result holds the results of a content fetch run.
type Result struct {
	Fetched           int
	AlreadyHadContent int
	Failed            int
}

// ContentFetcher fetches full article text via HTTP + readability extraction.
type ContentFetcher struct {
	client *http.Client
}

// NewContentFetcher creates a new content fetcher.
func NewContentFetcher(timeout time.Duration) *ContentFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &ContentFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// NeedsFetch reports whether e has too little text of its own.
func NeedsFetch(e collect.Entry) bool {
	return len(strings.TrimSpace(e.Content)) < minContentChars
}

// FetchMissingContent replaces the content of short entries with the text
// extracted from their article page. After an HTTP error from a domain the
// remaining entries of that domain are skipped.
func (f *ContentFetcher) FetchMissingContent(ctx context.Context, entries []collect.Entry) *Result {
	result := &Result{}
	failedDomains := make(map[string]struct{})

	for i := range entries {
		entry := &entries[i]
		if !NeedsFetch(*entry) {
			result.AlreadyHadContent++
			continue
		}

		u, err := url.Parse(entry.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			result.Failed++
			continue
		}
		domain := strings.ToLower(u.Host)

		if _, failed := failedDomains[domain]; failed {
			result.Failed++
			continue
		}

		content, err := f.fetchArticleContent(ctx, u)
		if err != nil {
			result.Failed++
			failedDomains[domain] = struct{}{}
			log.Warn("http error, skipping domain", "url", entry.URL, "domain", domain, "err", err)
			continue
		}

		if content == "" {
			result.Failed++
			log.Debug("no extractable content", "url", entry.URL)
			continue
		}

		entry.Content = content
		result.Fetched++
		log.Debug("fetched content", "title", entry.Title)
	}

	log.Info("content fetch complete", "fetched", result.Fetched, "failed", result.Failed)
	return result
}

// fetchArticleContent returns the readable text of the page at u. Only HTTP
// status errors are returned as errors; connection and extraction problems
// yield empty content.
func (f *ContentFetcher) fetchArticleContent(ctx context.Context, u *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return "", nil
	}
	req.Header.Set("User-Agent", "NewsGraph/1.0 (entity graph builder)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil // connection error, not HTTP error
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	article, err := readability.FromReader(resp.Body, u)
	if err != nil {
		return "", nil
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	if len(text) <= minExtractedChars {
		return "", nil
	}
	if len(text) > maxContentChars {
		text = truncateWords(text, maxContentChars)
	}
	return text, nil
}

func truncateWords(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := strings.LastIndexByte(s[:n], ' ')
	if cut <= 0 {
		cut = n
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
	}
	return s[:cut]
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("%d %s", e.code, http.StatusText(e.code))
}
