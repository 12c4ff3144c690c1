// Package store persists audit runs, diagnostics and source availability
// checks in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/slp-atlas/pkg/diag"
	"github.com/hazyhaar/slp-atlas/pkg/verify"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  INTEGER NOT NULL,
	records     INTEGER NOT NULL,
	ok          INTEGER NOT NULL,
	violations  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS violations (
	run_id   INTEGER NOT NULL REFERENCES audit_runs(id),
	check_id TEXT NOT NULL,
	message  TEXT NOT NULL,
	details  TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_violations_run ON violations(run_id);
CREATE TABLE IF NOT EXISTS diagnostics (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	check_id  TEXT NOT NULL,
	message   TEXT NOT NULL,
	logged_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS sources (
	name         TEXT PRIMARY KEY,
	location     TEXT NOT NULL,
	last_check   INTEGER,
	last_status  INTEGER,
	last_error   TEXT,
	updated_at   INTEGER NOT NULL
);`

// DB wraps the SQLite database.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (s *DB) Close() error {
	return s.db.Close()
}

// Run is one row of audit_runs.
type Run struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	Records    int       `json:"records"`
	OK         bool      `json:"ok"`
	Violations int       `json:"violations"`
}

// RecordRun stores a verification report and its violations in a single
// transaction and returns the run ID.
func (s *DB) RecordRun(r verify.Report, records int) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO audit_runs (started_at, records, ok, violations) VALUES (?, ?, ?, ?)`,
		time.Now().Unix(), records, r.OK, len(r.Violations))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for _, v := range r.Violations {
		details, err := json.Marshal(v.Details)
		if err != nil {
			return 0, fmt.Errorf("marshal %s details: %w", v.Check, err)
		}
		if _, err := tx.Exec(`INSERT INTO violations (run_id, check_id, message, details) VALUES (?, ?, ?, ?)`,
			id, v.Check, v.Message, string(details)); err != nil {
			return 0, fmt.Errorf("insert violation: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

// Runs returns the most recent runs, newest first.
func (s *DB) Runs(limit int) ([]Run, error) {
	rows, err := s.db.Query(`SELECT id, started_at, records, ok, violations
		FROM audit_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started int64
		if err := rows.Scan(&r.ID, &started, &r.Records, &r.OK, &r.Violations); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(started, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Violations returns the violations stored for a run. Details come back
// as decoded JSON.
func (s *DB) Violations(runID int64) ([]verify.Violation, error) {
	rows, err := s.db.Query(`SELECT check_id, message, details FROM violations WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("list violations: %w", err)
	}
	defer rows.Close()

	var out []verify.Violation
	for rows.Next() {
		var v verify.Violation
		var details string
		if err := rows.Scan(&v.Check, &v.Message, &details); err != nil {
			return nil, fmt.Errorf("scan violation: %w", err)
		}
		if err := json.Unmarshal([]byte(details), &v.Details); err != nil {
			return nil, fmt.Errorf("decode details: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// AddDiagnostic appends one diagnostic entry.
func (s *DB) AddDiagnostic(e diag.Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO diagnostics (check_id, message, logged_at) VALUES (?, ?, ?)`,
		e.Check, e.Message, e.Time.Unix())
	if err != nil {
		return fmt.Errorf("insert diagnostic: %w", err)
	}
	return nil
}

// Diagnostics returns up to limit entries, oldest first. An empty check
// returns every check.
func (s *DB) Diagnostics(check string, limit int) ([]diag.Entry, error) {
	rows, err := s.db.Query(`SELECT check_id, message, logged_at FROM diagnostics
		WHERE ? = '' OR check_id = ? ORDER BY id LIMIT ?`, check, check, limit)
	if err != nil {
		return nil, fmt.Errorf("list diagnostics: %w", err)
	}
	defer rows.Close()

	var out []diag.Entry
	for rows.Next() {
		var e diag.Entry
		var at int64
		if err := rows.Scan(&e.Check, &e.Message, &at); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		e.Time = time.Unix(at, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Sink returns a diag.Sink writing into the diagnostics table. Write
// failures are logged and otherwise dropped.
func (s *DB) Sink(logger *slog.Logger) diag.Sink {
	return diag.SinkFunc(func(e diag.Entry) {
		if err := s.AddDiagnostic(e); err != nil && logger != nil {
			logger.Error("store diagnostic", "check", e.Check, "error", err)
		}
	})
}
