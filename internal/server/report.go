package server

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TobiSchelling/NewsGraph/internal/recency"
)

const (
	// unknownSentiment is shown for nodes without observations.
	unknownSentiment = 0.6
	// sentimentSlope stretches [0, 0.8] onto [0, 1]; model scores rarely
	// exceed 0.8.
	sentimentSlope = 1.25
	reportTopN       = 15
)

// DisplaySentiment maps a mean sentiment onto the display scale: unknown
// becomes 0.6, then [0, 0.8] is stretched linearly onto [0, 1] and clamped.
func DisplaySentiment(mean *float64) float64 {
	v := unknownSentiment
	if mean != nil {
		v = *mean
	}
	return min(max(v*sentimentSlope, 0), 1)
}

func formatSentiment(mean *float64) string {
	if mean == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *mean)
}

// Report renders a snapshot as a markdown summary: the most connected
// entities and the strongest links.
func Report(snap *recency.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Recent news graph\n\n")
	fmt.Fprintf(&b, "%d entities and %d links seen in the last %s.\n\n", len(snap.Nodes), len(snap.Edges), snap.Window)

	if len(snap.Nodes) == 0 {
		b.WriteString("_Nothing has been ingested recently._\n")
		return b.String()
	}

	names := make(map[int64]string, len(snap.Nodes))
	degree := make(map[int64]int, len(snap.Nodes))
	for _, n := range snap.Nodes {
		names[n.ID] = n.Name
	}
	for _, e := range snap.Edges {
		degree[e.Origin] += e.Weight
		degree[e.Destination] += e.Weight
	}

	nodes := make([]recency.Node, len(snap.Nodes))
	copy(nodes, snap.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool {
		if degree[nodes[i].ID] != degree[nodes[j].ID] {
			return degree[nodes[i].ID] > degree[nodes[j].ID]
		}
		return nodes[i].Name < nodes[j].Name
	})

	b.WriteString("## Most connected entities\n\n")
	b.WriteString("| Entity | Links | Sentiment | Observations |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for _, n := range nodes[:min(len(nodes), reportTopN)] {
		fmt.Fprintf(&b, "| [%s](/node/%d) | %d | %s | %d |\n",
			escapeCell(n.Name), n.ID, degree[n.ID], formatSentiment(n.Sentiment), n.Observations)
	}

	if len(snap.Edges) > 0 {
		edges := make([]recency.Edge, len(snap.Edges))
		copy(edges, snap.Edges)
		sort.SliceStable(edges, func(i, j int) bool { return edges[i].Weight > edges[j].Weight })

		b.WriteString("\n## Strongest links\n\n")
		for _, e := range edges[:min(len(edges), reportTopN)] {
			fmt.Fprintf(&b, "- **%s** and **%s** (%d)\n", names[e.Origin], names[e.Destination], e.Weight)
		}
	}

	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
