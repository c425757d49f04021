package database

import "time"

// Source is an ingested document. A source is never ingested twice.
type Source struct {
	ID          int64
	SourceID    string
	Content     string
	PublishedAt *time.Time
	IngestedAt  time.Time
}

// Node is a named entity. At most one node exists per dedup key.
type Node struct {
	ID        int64
	Name      string
	DedupKey  string
	FirstSeen time.Time
	LastSeen  time.Time
}

// Edge links two entities that co-occurred in a source.
type Edge struct {
	ID            int64
	SourceID      string
	OriginID      int64
	DestinationID int64
	CreatedAt     time.Time
}

// Sentiment is one sentiment observation of a node in a source.
type Sentiment struct {
	NodeID   int64
	SourceID string
	Score    float64
}

// IngestRun holds metadata about one ingestion run.
type IngestRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Documents  int
	Ingested   int
	Skipped    int
	Failed     int
}

// Stats contains aggregate database statistics.
type Stats struct {
	Sources    int
	Nodes      int
	Edges      int
	Sentiments int
	Runs       int
	LastRun    *IngestRun
}
