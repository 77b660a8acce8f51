// Package db provides SQLite database management for twinprov state.
// Two databases live in the state directory: twinprov.db (run history and
// artifact metadata) and twinprov-audit.db (append-only audit log).
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/twinprov/twinprov/internal/artifact"
)

const (
	RunsDBFile  = "twinprov.db"
	AuditDBFile = "twinprov-audit.db"
)

// RunsSchema defines the run history table. Remote resources are never stored
// here; the remote services stay the source of truth.
const RunsSchema = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS runs (
    uuid            TEXT PRIMARY KEY,
    operation       TEXT NOT NULL,  -- workspace.create | workspace.delete | bucket.delete | role.delete
    target          TEXT NOT NULL,  -- workspace id, bucket name or role name
    region          TEXT DEFAULT '',
    commit_mode     INTEGER DEFAULT 0,
    status          TEXT NOT NULL DEFAULT 'running',
    started_at      TEXT NOT NULL,
    completed_at    TEXT,
    outputs         TEXT DEFAULT '{}',
    error_detail    TEXT,
    created_by      TEXT NOT NULL DEFAULT 'local'
);

CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// AuditSchema defines the append-only audit log table.
const AuditSchema = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS audit_log (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp       TEXT NOT NULL,
    chain           TEXT NOT NULL,
    run_uuid        TEXT DEFAULT '',
    operator        TEXT NOT NULL DEFAULT 'local',
    event_type      TEXT NOT NULL,
    detail          TEXT DEFAULT '{}',
    record_hash     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_chain ON audit_log(chain);
CREATE INDEX IF NOT EXISTS idx_audit_event_type ON audit_log(event_type);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_run ON audit_log(run_uuid);
`

// OpenRunsDB opens or creates the run history database.
func OpenRunsDB(stateDir string) (*sql.DB, error) {
	dbPath := filepath.Join(stateDir, RunsDBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening runs db: %w", err)
	}

	if _, err := db.Exec(RunsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing runs schema: %w", err)
	}
	if _, err := db.Exec(artifact.Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing artifacts schema: %w", err)
	}

	return db, nil
}

// OpenAuditDB opens or creates the append-only audit database.
func OpenAuditDB(stateDir string) (*sql.DB, error) {
	dbPath := filepath.Join(stateDir, AuditDBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening audit db: %w", err)
	}

	if _, err := db.Exec(AuditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing audit schema: %w", err)
	}

	return db, nil
}

// EnsureStateDir creates the state directory.
func EnsureStateDir(path string) error {
	if err := os.MkdirAll(path, 0700); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}
