package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/NewsGraph/internal/collect"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Summit ends</title></head>
<body>
<nav>Home | World | Sport</nav>
<article>
<h1>Summit ends</h1>
<p>Angela Merkel and Emmanuel Macron met in Brussels on Monday to discuss the future of the European Union budget and trade policy.</p>
<p>The talks lasted several hours and ended with a joint statement promising closer cooperation on energy, defence and migration in the coming year.</p>
<p>Officials said further meetings would follow in Paris and Berlin before the end of the month.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestFetchMissingContent(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		switch r.URL.Path {
		case "/article":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(articleHTML))
		default:
			http.Error(w, "gone", http.StatusGone)
		}
	}))
	defer srv.Close()

	long := strings.Repeat("word ", 60)
	entries := []collect.Entry{
		{URL: srv.URL + "/article", Title: "Summit ends"},
		{URL: "http://other.example/x", Content: long},
		{URL: srv.URL + "/broken"},
		{URL: srv.URL + "/article?again=1"},
		{URL: "not a url"},
	}

	res := NewContentFetcher(0).FetchMissingContent(context.Background(), entries)

	assert.Equal(t, 1, res.Fetched)
	assert.Equal(t, 1, res.AlreadyHadContent)
	assert.Equal(t, 3, res.Failed)
	assert.Contains(t, entries[0].Content, "Angela Merkel and Emmanuel Macron")
	assert.Equal(t, long, entries[1].Content)
	assert.Empty(t, entries[3].Content)
	// the domain is skipped after the failure
	require.Equal(t, 2, hits)
}

func TestTruncateWords(t *testing.T) {
	assert.Equal(t, "one two", truncateWords("one two three", 9))
	assert.Equal(t, "short", truncateWords("short", 10))
}

func TestTruncateWordsKeepsRunesWhole(t *testing.T) {
	// "Zürich" has a two-byte ü at bytes 1-2; cutting at byte 2 would split it.
	got := truncateWords("Zürichsee", 2)
	assert.Equal(t, "Z", got)
	assert.True(t, utf8.ValidString(got))

	got = truncateWords("日本語のニュース", 4)
	assert.Equal(t, "日", got)
	assert.True(t, utf8.ValidString(got))
}
