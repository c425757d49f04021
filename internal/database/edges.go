package database

import (
	"database/sql"
	"fmt"
	"time"
)

// InsertEdge records a co-occurrence of two nodes in a source and returns the
// new edge ID.
func (t *Tx) InsertEdge(sourceID string, originID, destinationID int64, at time.Time) (int64, error) {
	result, err := t.tx.Exec(
		`INSERT INTO edges (source_id, origin_id, destination_id, created_at)
		VALUES (?, ?, ?, ?)`,
		sourceID, originID, destinationID, formatTime(at),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting edge %d->%d: %w", originID, destinationID, err)
	}
	return result.LastInsertId()
}

// GetEdgesForSource returns the edges created from one source in insertion order.
func (db *DB) GetEdgesForSource(sourceID string) ([]Edge, error) {
	rows, err := db.conn.Query(
		`SELECT id, source_id, origin_id, destination_id, created_at
		FROM edges WHERE source_id = ? ORDER BY id`, sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading edges for %s: %w", sourceID, err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// GetEdgesSeenSince returns edges whose endpoints were both seen at or after
// cutoff.
func (db *DB) GetEdgesSeenSince(cutoff time.Time) ([]Edge, error) {
	ts := formatTime(cutoff)
	rows, err := db.conn.Query(
		`SELECT e.id, e.source_id, e.origin_id, e.destination_id, e.created_at
		FROM edges e
		JOIN nodes o ON o.id = e.origin_id
		JOIN nodes d ON d.id = e.destination_id
		WHERE o.last_seen >= ? AND d.last_seen >= ?
		ORDER BY e.id`, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("loading recent edges: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

func scanEdges(rows *sql.Rows) ([]Edge, error) {
	var edges []Edge
	for rows.Next() {
		var e Edge
		var created string
		if err := rows.Scan(&e.ID, &e.SourceID, &e.OriginID, &e.DestinationID, &created); err != nil {
			return nil, err
		}
		var err error
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
