package recency

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/NewsGraph/internal/database"
	"github.com/TobiSchelling/NewsGraph/internal/graph"
	"github.com/TobiSchelling/NewsGraph/internal/nlp"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func TestIsRecent(t *testing.T) {
	assert.False(t, IsRecent(now.Add(-100*day), now, DefaultWindow))
	assert.True(t, IsRecent(now.Add(-1*day), now, DefaultWindow))
	assert.True(t, IsRecent(now.Add(-DefaultWindow), now, DefaultWindow))
	assert.False(t, IsRecent(now.Add(-DefaultWindow-time.Nanosecond), now, DefaultWindow))
	assert.True(t, IsRecent(now.Add(time.Hour), now, DefaultWindow))
}

func TestEdgeIsRecent(t *testing.T) {
	fresh := database.Node{ID: 1, LastSeen: now.Add(-day)}
	stale := database.Node{ID: 2, LastSeen: now.Add(-100 * day)}
	other := database.Node{ID: 3, LastSeen: now}

	assert.True(t, EdgeIsRecent(fresh, other, now, DefaultWindow))
	assert.False(t, EdgeIsRecent(fresh, stale, now, DefaultWindow))
	assert.False(t, EdgeIsRecent(stale, fresh, now, DefaultWindow))
}

// wordTagger makes every token a one-word sentence tagged as a proper noun,
// so each word becomes its own entity.
type wordTagger struct{}

func (wordTagger) Tag(text string) ([]nlp.Sentence, error) {
	var out []nlp.Sentence
	for _, w := range strings.Fields(text) {
		out = append(out, nlp.Sentence{{Word: w, Tag: "NNP"}})
	}
	return out, nil
}

func ingestAt(t *testing.T, db *database.DB, at time.Time, doc graph.Document) {
	t.Helper()
	e := graph.NewEngine(graph.NewStore(db), wordTagger{}, graph.WithClock(func() time.Time { return at }))
	_, err := e.Ingest(doc)
	require.NoError(t, err)
}

func ptr(v float64) *float64 { return &v }

func TestSnapshot(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ingestAt(t, db, now.Add(-100*day), graph.Document{SourceID: "old", Text: "Old Stale", Sentiment: ptr(0.1)})
	ingestAt(t, db, now.Add(-day), graph.Document{SourceID: "a", Text: "Alpha Beta", Sentiment: ptr(0.2)})
	ingestAt(t, db, now.Add(-2*day), graph.Document{SourceID: "b", Text: "Alpha Beta Old", Sentiment: ptr(0.6)})
	ingestAt(t, db, now.Add(-100*day), graph.Document{SourceID: "c", Text: "Stale Gamma"})

	snap, err := NewView(db, 0).WithClock(func() time.Time { return now }).Snapshot()
	require.NoError(t, err)

	names := map[string]Node{}
	for _, n := range snap.Nodes {
		names[n.Name] = n
	}
	assert.Len(t, names, 3)
	assert.Contains(t, names, "Alpha")
	assert.Contains(t, names, "Beta")
	assert.Contains(t, names, "Old")
	assert.NotContains(t, names, "Stale")
	assert.NotContains(t, names, "Gamma")

	alpha := names["Alpha"]
	require.NotNil(t, alpha.Sentiment)
	assert.InDelta(t, 0.4, *alpha.Sentiment, 1e-9)
	assert.Equal(t, 2, alpha.Observations)

	old := names["Old"]
	require.NotNil(t, old.Sentiment)
	assert.InDelta(t, 0.35, *old.Sentiment, 1e-9)

	// Alpha-Beta appears in two sources; Alpha-Old and Beta-Old once each;
	// Old-Stale and Stale-Gamma are dropped.
	require.Len(t, snap.Edges, 3)
	assert.Equal(t, 2, snap.Edges[0].Weight)
	assert.Equal(t, alpha.ID, snap.Edges[0].Origin)
	assert.Equal(t, names["Beta"].ID, snap.Edges[0].Destination)
	for _, e := range snap.Edges {
		assert.NotEqual(t, names["Stale"].ID, e.Origin)
	}
	assert.Equal(t, DefaultWindow.String(), snap.Window)
}

func TestSnapshotEmpty(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	snap, err := NewView(db, time.Hour).Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snap.Nodes)
	assert.Empty(t, snap.Edges)
	assert.NotNil(t, snap.Nodes)
}
