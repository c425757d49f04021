package database

import (
	"database/sql"
	"fmt"
	"time"
)

// HasSource reports whether a document with sourceID was already ingested.
func (db *DB) HasSource(sourceID string) (bool, error) {
	var exists int
	err := db.conn.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM sources WHERE source_id = ?)", sourceID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking source %s: %w", sourceID, err)
	}
	return exists != 0, nil
}

// GetSource returns the source with sourceID, or nil if it was never ingested.
func (db *DB) GetSource(sourceID string) (*Source, error) {
	var s Source
	var published sql.NullString
	var ingested string
	err := db.conn.QueryRow(
		`SELECT id, source_id, content, published_at, ingested_at
		FROM sources WHERE source_id = ?`, sourceID,
	).Scan(&s.ID, &s.SourceID, &s.Content, &published, &ingested)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading source %s: %w", sourceID, err)
	}
	if s.PublishedAt, err = parseNullTime(published); err != nil {
		return nil, err
	}
	if s.IngestedAt, err = parseTime(ingested); err != nil {
		return nil, err
	}
	return &s, nil
}

// InsertSource records a document. It returns false without error when the
// source already exists.
func (t *Tx) InsertSource(sourceID, content string, publishedAt *time.Time, at time.Time) (bool, error) {
	var published *string
	if publishedAt != nil {
		p := formatTime(*publishedAt)
		published = &p
	}
	result, err := t.tx.Exec(
		`INSERT INTO sources (source_id, content, published_at, ingested_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source_id) DO NOTHING`,
		sourceID, content, published, formatTime(at),
	)
	if err != nil {
		return false, fmt.Errorf("inserting source %s: %w", sourceID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting source %s: %w", sourceID, err)
	}
	return n == 1, nil
}
