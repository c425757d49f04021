package database

import "fmt"

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM sources", &s.Sources},
		{"SELECT COUNT(*) FROM nodes", &s.Nodes},
		{"SELECT COUNT(*) FROM edges", &s.Edges},
		{"SELECT COUNT(*) FROM sentiments", &s.Sentiments},
		{"SELECT COUNT(*) FROM ingest_runs", &s.Runs},
	}
	for _, c := range counts {
		if err := db.conn.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("counting: %w", err)
		}
	}

	last, err := db.GetLatestRun()
	if err != nil {
		return nil, err
	}
	s.LastRun = last
	return s, nil
}
