// Package graph turns documents into entity nodes, co-occurrence edges and
// sentiment observations, committing each document atomically.
package graph

import (
	"errors"
	"time"

	"github.com/TobiSchelling/NewsGraph/internal/database"
)

var (
	// ErrInvalidDocument is returned for documents without a source ID or with
	// a sentiment outside [0,1].
	ErrInvalidDocument = errors.New("invalid document")

	// ErrExtraction is returned when tagging or chunking fails. Nothing is
	// committed for the document.
	ErrExtraction = errors.New("entity extraction failed")
)

// Document is one unit of ingestion.
type Document struct {
	SourceID    string
	Text        string
	PublishedAt *time.Time
	// Sentiment is attached to every entity of the document when set.
	Sentiment *float64
}

// Status is the outcome of ingesting one document.
type Status string

const (
	StatusIngested Status = "ingested"
	StatusSkipped  Status = "skipped"
)

// Result describes what one Ingest call did.
type Result struct {
	SourceID     string
	Status       Status
	Entities     []string
	NodesCreated int
	NodesUpdated int
	Edges        int
	Sentiments   int
}

// Store is the persistence the engine writes through.
type Store interface {
	HasSource(sourceID string) (bool, error)
	InTx(fn func(tx Tx) error) error
}

// Tx is one atomic unit of graph writes. All writes made through a Tx are
// committed together or not at all.
type Tx interface {
	InsertSource(sourceID, content string, publishedAt *time.Time, at time.Time) (bool, error)
	UpsertNode(name, key, sourceID string, at time.Time) (*database.Node, bool, error)
	InsertSentiment(nodeID int64, sourceID string, score float64) error
	InsertEdge(sourceID string, originID, destinationID int64, at time.Time) (int64, error)
}

// dbStore adapts *database.DB to Store.
type dbStore struct {
	db *database.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *database.DB) Store {
	return dbStore{db: db}
}

func (s dbStore) HasSource(sourceID string) (bool, error) {
	return s.db.HasSource(sourceID)
}

func (s dbStore) InTx(fn func(tx Tx) error) error {
	return s.db.Update(func(tx *database.Tx) error {
		return fn(tx)
	})
}
