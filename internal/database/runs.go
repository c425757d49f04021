package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StartRun records the start of an ingestion run and returns its ID.
func (db *DB) StartRun(at time.Time) (string, error) {
	id := uuid.NewString()
	if _, err := db.conn.Exec(
		"INSERT INTO ingest_runs (id, started_at) VALUES (?, ?)", id, formatTime(at),
	); err != nil {
		return "", fmt.Errorf("starting run: %w", err)
	}
	return id, nil
}

// FinishRun stores the final counts of a run.
func (db *DB) FinishRun(run IngestRun, at time.Time) error {
	_, err := db.conn.Exec(
		`UPDATE ingest_runs SET finished_at = ?, documents = ?, ingested = ?, skipped = ?, failed = ?
		WHERE id = ?`,
		formatTime(at), run.Documents, run.Ingested, run.Skipped, run.Failed, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", run.ID, err)
	}
	return nil
}

// GetLatestRun returns the most recently started run, or nil if none exists.
func (db *DB) GetLatestRun() (*IngestRun, error) {
	var r IngestRun
	var started string
	var finished sql.NullString
	err := db.conn.QueryRow(
		`SELECT id, started_at, finished_at, documents, ingested, skipped, failed
		FROM ingest_runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&r.ID, &started, &finished, &r.Documents, &r.Ingested, &r.Skipped, &r.Failed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest run: %w", err)
	}
	if r.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if r.FinishedAt, err = parseNullTime(finished); err != nil {
		return nil, err
	}
	return &r, nil
}
