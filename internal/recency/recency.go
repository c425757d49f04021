// Package recency filters the graph down to what was seen recently.
// Expiry is a read-side filter only; nothing is ever deleted.
package recency

import (
	"time"

	"github.com/TobiSchelling/NewsGraph/internal/database"
)

// DefaultWindow is how long a node stays recent after it was last seen.
const DefaultWindow = 72 * time.Hour

// IsRecent reports whether ts falls within window before now. The cutoff
// itself counts as recent.
func IsRecent(ts, now time.Time, window time.Duration) bool {
	return !ts.Before(now.Add(-window))
}

// NodeIsRecent reports whether node was last seen within window.
func NodeIsRecent(node database.Node, now time.Time, window time.Duration) bool {
	return IsRecent(node.LastSeen, now, window)
}

// EdgeIsRecent reports whether an edge is recent, which requires both of its
// endpoints to be recent.
func EdgeIsRecent(origin, destination database.Node, now time.Time, window time.Duration) bool {
	return NodeIsRecent(origin, now, window) && NodeIsRecent(destination, now, window)
}
