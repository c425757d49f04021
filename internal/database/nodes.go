package database

import (
	"database/sql"
	"fmt"
	"time"
)

const nodeColumns = "id, name, dedup_key, first_seen, last_seen"

// UpsertNode resolves the node for key, creating it with name when absent and
// otherwise moving its last_seen forward to at. The source is added to the
// node's source references in both cases. It reports whether the node was
// created.
func (t *Tx) UpsertNode(name, key, sourceID string, at time.Time) (*Node, bool, error) {
	ts := formatTime(at)
	result, err := t.tx.Exec(
		`INSERT INTO nodes (name, dedup_key, first_seen, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(dedup_key) DO NOTHING`,
		name, key, ts, ts,
	)
	if err != nil {
		return nil, false, fmt.Errorf("inserting node %q: %w", key, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("inserting node %q: %w", key, err)
	}
	created := n == 1

	if !created {
		if _, err := t.tx.Exec(
			"UPDATE nodes SET last_seen = MAX(last_seen, ?) WHERE dedup_key = ?", ts, key,
		); err != nil {
			return nil, false, fmt.Errorf("updating node %q: %w", key, err)
		}
	}

	node, err := scanNode(t.tx.QueryRow("SELECT "+nodeColumns+" FROM nodes WHERE dedup_key = ?", key))
	if err != nil {
		return nil, false, fmt.Errorf("loading node %q: %w", key, err)
	}

	if _, err := t.tx.Exec(
		"INSERT OR IGNORE INTO node_sources (node_id, source_id) VALUES (?, ?)",
		node.ID, sourceID,
	); err != nil {
		return nil, false, fmt.Errorf("linking node %q to %s: %w", key, sourceID, err)
	}

	return node, created, nil
}

// GetNodeByKey returns the node with the given dedup key, or nil if none exists.
func (db *DB) GetNodeByKey(key string) (*Node, error) {
	node, err := scanNode(db.conn.QueryRow("SELECT "+nodeColumns+" FROM nodes WHERE dedup_key = ?", key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading node %q: %w", key, err)
	}
	return node, nil
}

// GetNode returns the node with the given ID, or nil if none exists.
func (db *DB) GetNode(id int64) (*Node, error) {
	node, err := scanNode(db.conn.QueryRow("SELECT "+nodeColumns+" FROM nodes WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading node %d: %w", id, err)
	}
	return node, nil
}

// GetNodeSourceRefs returns the source IDs a node was extracted from.
func (db *DB) GetNodeSourceRefs(nodeID int64) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT source_id FROM node_sources WHERE node_id = ? ORDER BY source_id", nodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading source refs for node %d: %w", nodeID, err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// GetNodesSeenSince returns nodes whose last_seen is at or after cutoff,
// ordered by name.
func (db *DB) GetNodesSeenSince(cutoff time.Time) ([]Node, error) {
	rows, err := db.conn.Query(
		"SELECT "+nodeColumns+" FROM nodes WHERE last_seen >= ? ORDER BY name, id",
		formatTime(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("loading recent nodes: %w", err)
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*Node, error) {
	var n Node
	var first, last string
	if err := row.Scan(&n.ID, &n.Name, &n.DedupKey, &first, &last); err != nil {
		return nil, err
	}
	var err error
	if n.FirstSeen, err = parseTime(first); err != nil {
		return nil, err
	}
	if n.LastSeen, err = parseTime(last); err != nil {
		return nil, err
	}
	return &n, nil
}
