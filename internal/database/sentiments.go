package database

import (
	"fmt"
	"time"
)

// InsertSentiment records the sentiment of a node in a source. A repeated
// observation for the same node and source is ignored.
func (t *Tx) InsertSentiment(nodeID int64, sourceID string, score float64) error {
	if _, err := t.tx.Exec(
		`INSERT INTO sentiments (node_id, source_id, score) VALUES (?, ?, ?)
		ON CONFLICT(node_id, source_id) DO NOTHING`,
		nodeID, sourceID, score,
	); err != nil {
		return fmt.Errorf("inserting sentiment for node %d: %w", nodeID, err)
	}
	return nil
}

// GetNodeSentiments returns every sentiment observation of a node.
func (db *DB) GetNodeSentiments(nodeID int64) ([]Sentiment, error) {
	rows, err := db.conn.Query(
		"SELECT node_id, source_id, score FROM sentiments WHERE node_id = ? ORDER BY id", nodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading sentiments for node %d: %w", nodeID, err)
	}
	defer rows.Close()

	var out []Sentiment
	for rows.Next() {
		var s Sentiment
		if err := rows.Scan(&s.NodeID, &s.SourceID, &s.Score); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetNodeScoresSince returns the sentiment scores of every node seen at or
// after cutoff, keyed by node ID. Nodes without observations are absent.
func (db *DB) GetNodeScoresSince(cutoff time.Time) (map[int64][]float64, error) {
	rows, err := db.conn.Query(
		`SELECT s.node_id, s.score
		FROM sentiments s JOIN nodes n ON n.id = s.node_id
		WHERE n.last_seen >= ?
		ORDER BY s.id`, formatTime(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("loading recent sentiments: %w", err)
	}
	defer rows.Close()

	scores := make(map[int64][]float64)
	for rows.Next() {
		var id int64
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			return nil, err
		}
		scores[id] = append(scores[id], score)
	}
	return scores, rows.Err()
}
