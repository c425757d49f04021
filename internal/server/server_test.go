package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/NewsGraph/internal/database"
	"github.com/TobiSchelling/NewsGraph/internal/graph"
	"github.com/TobiSchelling/NewsGraph/internal/nlp"
	"github.com/TobiSchelling/NewsGraph/internal/recency"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// wordTagger makes every token its own proper-noun entity.
type wordTagger struct{}

func (wordTagger) Tag(text string) ([]nlp.Sentence, error) {
	var out []nlp.Sentence
	for _, w := range strings.Fields(text) {
		out = append(out, nlp.Sentence{{Word: w, Tag: "NNP"}})
	}
	return out, nil
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seed(t *testing.T, db *database.DB) {
	t.Helper()
	score := 0.2
	docs := []struct {
		at  time.Time
		doc graph.Document
	}{
		{now.Add(-time.Hour), graph.Document{SourceID: "https://a.com/1", Text: "Obama Paris", Sentiment: &score}},
		{now.Add(-2 * time.Hour), graph.Document{SourceID: "https://a.com/2", Text: "Obama Merkel"}},
		{now.Add(-100 * 24 * time.Hour), graph.Document{SourceID: "https://a.com/3", Text: "Stale Forgotten"}},
	}
	for _, d := range docs {
		e := graph.NewEngine(graph.NewStore(db), wordTagger{}, graph.WithClock(func() time.Time { return d.at }))
		if _, err := e.Ingest(d.doc); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}
}

func newTestServer(t *testing.T) (*Server, *database.DB) {
	t.Helper()
	db := openTestDB(t)
	seed(t, db)
	view := recency.NewView(db, recency.DefaultWindow).WithClock(func() time.Time { return now })
	srv, err := New(db, view)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv, db
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndexRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(srv, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Most connected entities") {
		t.Error("expected report heading in response body")
	}
	if !strings.Contains(body, "<table>") {
		t.Error("expected markdown table to be rendered")
	}
	if strings.Contains(body, "Forgotten") {
		t.Error("expected stale entity to be hidden")
	}
}

func TestGraphJSONRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(srv, "/graph.json")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc GraphJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(doc.Nodes) != 3 {
		t.Errorf("expected 3 recent nodes, got %d", len(doc.Nodes))
	}
	if len(doc.Links) != 2 {
		t.Errorf("expected 2 recent links, got %d", len(doc.Links))
	}

	byName := map[string]float64{}
	for _, n := range doc.Nodes {
		byName[n.Name] = n.Sentiment
	}
	if got := byName["Paris"]; got != 0.25 {
		t.Errorf("expected Paris display sentiment 0.25, got %v", got)
	}
	if got := byName["Merkel"]; got != 0.75 {
		t.Errorf("expected unknown sentiment to display as 0.75, got %v", got)
	}
}

func TestNodeRoute(t *testing.T) {
	srv, db := newTestServer(t)
	node, err := db.GetNodeByKey("obama")
	if err != nil || node == nil {
		t.Fatalf("expected node, got %v %v", node, err)
	}

	rec := get(srv, fmt.Sprintf("/node/%d", node.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "https://a.com/1") || !strings.Contains(body, "https://a.com/2") {
		t.Error("expected both sources listed")
	}
	if !strings.Contains(body, "0.20") {
		t.Error("expected sentiment observation listed")
	}

	if rec := get(srv, "/node/9999"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing node, got %d", rec.Code)
	}
	if rec := get(srv, "/node/abc"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for bad id, got %d", rec.Code)
	}
}

func TestNodeRouteStoreError(t *testing.T) {
	srv, db := newTestServer(t)
	node, err := db.GetNodeByKey("obama")
	if err != nil || node == nil {
		t.Fatalf("expected node, got %v %v", node, err)
	}

	raw, err := sql.Open("sqlite", db.Path())
	if err != nil {
		t.Fatalf("opening raw connection: %v", err)
	}
	defer raw.Close()
	if _, err := raw.Exec("DROP TABLE sentiments"); err != nil {
		t.Fatalf("dropping table: %v", err)
	}

	rec := get(srv, fmt.Sprintf("/node/%d", node.ID))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 when observations cannot be read, got %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	if rec := get(srv, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestDisplaySentiment(t *testing.T) {
	v := func(f float64) *float64 { return &f }
	cases := []struct {
		in   *float64
		want float64
	}{
		{nil, 0.75},
		{v(0), 0},
		{v(0.2), 0.25},
		{v(0.4), 0.5},
		{v(0.6), 0.75},
		{v(0.8), 1},
		{v(-0.1), 0},
		{v(0.95), 1},
	}
	for _, c := range cases {
		if got := DisplaySentiment(c.in); got != c.want {
			t.Errorf("DisplaySentiment(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestReportEmpty(t *testing.T) {
	out := Report(&recency.Snapshot{Window: "72h0m0s"})
	if !strings.Contains(out, "Nothing has been ingested recently") {
		t.Errorf("unexpected report: %s", out)
	}
}
