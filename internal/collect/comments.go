package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	maxComments        = 25
	commentConcurrency = 2
)

// CommentFetcher loads the top-level comments of reddit threads through
// reddit's public JSON listing.
type CommentFetcher struct {
	client *http.Client
	hosts  []string
}

// NewCommentFetcher creates a fetcher for reddit thread URLs.
func NewCommentFetcher() *CommentFetcher {
	return &CommentFetcher{
		client: &http.Client{Timeout: 15 * time.Second},
		hosts:  []string{"reddit.com"},
	}
}

// Attach fills Comments for every entry that links to a discussion thread.
// Failures are logged and leave the entry without comments.
func (f *CommentFetcher) Attach(ctx context.Context, entries []Entry) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(commentConcurrency)
	for i := range entries {
		if !f.isThread(entries[i].URL) {
			continue
		}
		g.Go(func() error {
			comments, err := f.Fetch(ctx, entries[i].URL)
			if err != nil {
				log.Debug("could not load comments", "url", entries[i].URL, "err", err)
				return nil
			}
			entries[i].Comments = comments
			return nil
		})
	}
	_ = g.Wait()
}

func (f *CommentFetcher) isThread(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || !strings.Contains(u.Path, "/comments/") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range f.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

type listing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				Body string `json:"body"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Fetch returns the bodies of up to maxComments top-level comments of the
// thread at threadURL.
func (f *CommentFetcher) Fetch(ctx context.Context, threadURL string) ([]string, error) {
	u, err := url.Parse(threadURL)
	if err != nil {
		return nil, fmt.Errorf("parsing thread url: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + ".json"
	q := u.Query()
	q.Set("limit", fmt.Sprint(maxComments))
	q.Set("depth", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching comments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching comments: status %d", resp.StatusCode)
	}

	// The response is [post listing, comment listing].
	var listings []listing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, fmt.Errorf("decoding comments: %w", err)
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var comments []string
	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" {
			continue
		}
		body := strings.TrimSpace(child.Data.Body)
		if body == "" || body == "[deleted]" || body == "[removed]" {
			continue
		}
		comments = append(comments, body)
		if len(comments) >= maxComments {
			break
		}
	}
	return comments, nil
}
