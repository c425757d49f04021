package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial graph schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id TEXT UNIQUE NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    published_at TEXT,
    ingested_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS nodes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    dedup_key TEXT UNIQUE NOT NULL,
    first_seen TEXT NOT NULL,
    last_seen TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS node_sources (
    node_id INTEGER NOT NULL REFERENCES nodes(id),
    source_id TEXT NOT NULL REFERENCES sources(source_id),
    PRIMARY KEY (node_id, source_id)
);

CREATE TABLE IF NOT EXISTS sentiments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    node_id INTEGER NOT NULL REFERENCES nodes(id),
    source_id TEXT NOT NULL REFERENCES sources(source_id),
    score REAL NOT NULL CHECK(score >= 0 AND score <= 1),
    UNIQUE(node_id, source_id)
);

CREATE TABLE IF NOT EXISTS edges (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id TEXT NOT NULL REFERENCES sources(source_id),
    origin_id INTEGER NOT NULL REFERENCES nodes(id),
    destination_id INTEGER NOT NULL REFERENCES nodes(id),
    created_at TEXT NOT NULL,
    CHECK(origin_id <> destination_id)
);

CREATE INDEX IF NOT EXISTS idx_nodes_last_seen ON nodes(last_seen);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
CREATE INDEX IF NOT EXISTS idx_edges_origin ON edges(origin_id);
CREATE INDEX IF NOT EXISTS idx_edges_destination ON edges(destination_id);
CREATE INDEX IF NOT EXISTS idx_sentiments_node ON sentiments(node_id);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "ingest run log",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS ingest_runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    documents INTEGER DEFAULT 0,
    ingested INTEGER DEFAULT 0,
    skipped INTEGER DEFAULT 0,
    failed INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_ingest_runs_started ON ingest_runs(started_at);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
