package graph

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/TobiSchelling/NewsGraph/internal/nlp"
	"github.com/TobiSchelling/NewsGraph/internal/textnorm"
)

// errSkipped aborts the transaction when another writer committed the same
// source first.
var errSkipped = errors.New("source already ingested")

// Engine is the sole writer of the graph.
type Engine struct {
	store  Store
	tagger nlp.Tagger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an Engine writing to store and extracting entities with tagger.
func NewEngine(store Store, tagger nlp.Tagger, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		tagger: tagger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ingest adds one document to the graph. A document whose source was already
// ingested is reported as StatusSkipped and changes nothing.
func (e *Engine) Ingest(doc Document) (*Result, error) {
	if err := validate(doc); err != nil {
		return nil, err
	}

	result := &Result{SourceID: doc.SourceID}

	seen, err := e.store.HasSource(doc.SourceID)
	if err != nil {
		return nil, fmt.Errorf("checking source: %w", err)
	}
	if seen {
		result.Status = StatusSkipped
		return result, nil
	}

	entities, err := e.extract(doc.Text)
	if err != nil {
		return nil, err
	}
	result.Entities = entities

	at := e.now()
	err = e.store.InTx(func(tx Tx) error {
		return e.write(tx, doc, entities, at, result)
	})
	if errors.Is(err, errSkipped) {
		log.Debug("source committed concurrently", "source", doc.SourceID)
		return &Result{SourceID: doc.SourceID, Status: StatusSkipped}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ingesting %s: %w", doc.SourceID, err)
	}

	result.Status = StatusIngested
	return result, nil
}

func validate(doc Document) error {
	if doc.SourceID == "" {
		return fmt.Errorf("%w: empty source id", ErrInvalidDocument)
	}
	if doc.Sentiment != nil && (*doc.Sentiment < 0 || *doc.Sentiment > 1) {
		return fmt.Errorf("%w: sentiment %v outside [0,1]", ErrInvalidDocument, *doc.Sentiment)
	}
	return nil
}

// extract returns the document's entities, deduplicated by dedup key in
// first-occurrence order.
func (e *Engine) extract(text string) ([]string, error) {
	sentences, err := e.tagger.Tag(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	var entities []string
	keys := make(map[string]struct{})
	it := nlp.ExtractEntities(sentences)
	for name, ok := it.Next(); ok; name, ok = it.Next() {
		key := textnorm.Key(name)
		if key == "" {
			continue
		}
		if _, dup := keys[key]; dup {
			continue
		}
		keys[key] = struct{}{}
		entities = append(entities, name)
	}
	return entities, nil
}

func (e *Engine) write(tx Tx, doc Document, entities []string, at time.Time, result *Result) error {
	inserted, err := tx.InsertSource(doc.SourceID, doc.Text, doc.PublishedAt, at)
	if err != nil {
		return err
	}
	if !inserted {
		return errSkipped
	}

	ids := make([]int64, 0, len(entities))
	for _, name := range entities {
		node, created, err := tx.UpsertNode(name, textnorm.Key(name), doc.SourceID, at)
		if err != nil {
			return err
		}
		if created {
			result.NodesCreated++
		} else {
			result.NodesUpdated++
		}
		ids = append(ids, node.ID)

		if doc.Sentiment != nil {
			if err := tx.InsertSentiment(node.ID, doc.SourceID, *doc.Sentiment); err != nil {
				return err
			}
			result.Sentiments++
		}
	}

	for _, p := range ChainPairs(ids) {
		if _, err := tx.InsertEdge(doc.SourceID, p[0], p[1], at); err != nil {
			return err
		}
		result.Edges++
	}
	return nil
}

// ChainPairs pairs the first ID with every later one, then the second with
// every later one, and so on: [a b c] gives (a,b) (a,c) (b,c).
func ChainPairs(ids []int64) [][2]int64 {
	if len(ids) < 2 {
		return nil
	}
	pairs := make([][2]int64, 0, len(ids)*(len(ids)-1)/2)
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			pairs = append(pairs, [2]int64{ids[i], ids[j]})
		}
	}
	return pairs
}
