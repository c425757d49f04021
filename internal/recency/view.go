package recency

import (
	"fmt"
	"time"

	"github.com/TobiSchelling/NewsGraph/internal/database"
	"github.com/TobiSchelling/NewsGraph/internal/sentiment"
)

// Reader is the read side of the graph store.
type Reader interface {
	GetNodesSeenSince(cutoff time.Time) ([]database.Node, error)
	GetEdgesSeenSince(cutoff time.Time) ([]database.Edge, error)
	GetNodeScoresSince(cutoff time.Time) (map[int64][]float64, error)
}

// Node is a recent node with its aggregate sentiment.
type Node struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	LastSeen time.Time `json:"last_seen"`
	// Sentiment is the mean of all observations, nil when there are none.
	Sentiment    *float64 `json:"sentiment,omitempty"`
	Observations int      `json:"observations"`
}

// Edge is a recent link between two nodes. Weight counts the sources the
// pair co-occurred in.
type Edge struct {
	Origin      int64 `json:"origin"`
	Destination int64 `json:"destination"`
	Weight      int   `json:"weight"`
}

// Snapshot is the recent part of the graph.
type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at"`
	Window      string    `json:"window"`
	Nodes       []Node    `json:"nodes"`
	Edges       []Edge    `json:"edges"`
}

// View builds snapshots of the recent graph.
type View struct {
	reader Reader
	window time.Duration
	now    func() time.Time
}

// NewView returns a View over reader. A non-positive window selects
// DefaultWindow.
func NewView(reader Reader, window time.Duration) *View {
	if window <= 0 {
		window = DefaultWindow
	}
	return &View{reader: reader, window: window, now: time.Now}
}

// WithClock returns a copy of v that reads the time from now.
func (v *View) WithClock(now func() time.Time) *View {
	cp := *v
	cp.now = now
	return &cp
}

// Now returns the view's current time.
func (v *View) Now() time.Time {
	return v.now()
}

// Window returns the recency window.
func (v *View) Window() time.Duration {
	return v.window
}

// Snapshot returns recent nodes and the edges between them.
func (v *View) Snapshot() (*Snapshot, error) {
	now := v.now()
	cutoff := now.Add(-v.window)

	nodes, err := v.reader.GetNodesSeenSince(cutoff)
	if err != nil {
		return nil, fmt.Errorf("loading nodes: %w", err)
	}
	scores, err := v.reader.GetNodeScoresSince(cutoff)
	if err != nil {
		return nil, fmt.Errorf("loading sentiments: %w", err)
	}
	edges, err := v.reader.GetEdgesSeenSince(cutoff)
	if err != nil {
		return nil, fmt.Errorf("loading edges: %w", err)
	}

	snap := &Snapshot{
		GeneratedAt: now,
		Window:      v.window.String(),
		Nodes:       []Node{},
		Edges:       []Edge{},
	}

	byID := make(map[int64]database.Node, len(nodes))
	for _, n := range nodes {
		if !NodeIsRecent(n, now, v.window) {
			continue
		}
		byID[n.ID] = n
		out := Node{ID: n.ID, Name: n.Name, LastSeen: n.LastSeen, Observations: len(scores[n.ID])}
		if mean, ok := sentiment.Mean(scores[n.ID]); ok {
			out.Sentiment = &mean
		}
		snap.Nodes = append(snap.Nodes, out)
	}

	type pair struct{ a, b int64 }
	index := make(map[pair]int)
	for _, e := range edges {
		origin, ok1 := byID[e.OriginID]
		dest, ok2 := byID[e.DestinationID]
		if !ok1 || !ok2 || !EdgeIsRecent(origin, dest, now, v.window) {
			continue
		}
		p := pair{e.OriginID, e.DestinationID}
		if i, seen := index[p]; seen {
			snap.Edges[i].Weight++
			continue
		}
		index[p] = len(snap.Edges)
		snap.Edges = append(snap.Edges, Edge{Origin: e.OriginID, Destination: e.DestinationID, Weight: 1})
	}

	return snap, nil
}
