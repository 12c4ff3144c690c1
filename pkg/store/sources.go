package store

import (
	"fmt"
	"time"
)

// Source is a row of the sources table.
type Source struct {
	Name       string  `json:"name"`
	Location   string  `json:"location"`
	LastCheck  *int64  `json:"last_check,omitempty"`
	LastStatus *int    `json:"last_status,omitempty"`
	LastError  *string `json:"last_error,omitempty"`
	UpdatedAt  int64   `json:"updated_at"`
}

// SyncSources upserts one row per named input location. A changed
// location clears the previous check result.
func (s *DB) SyncSources(locations map[string]string) error {
	const q = `INSERT INTO sources (name, location, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			location = excluded.location,
			updated_at = excluded.updated_at,
			last_check = NULL, last_status = NULL, last_error = NULL
		WHERE sources.location <> excluded.location`

	now := time.Now().Unix()
	for name, loc := range locations {
		if _, err := s.db.Exec(q, name, loc, now); err != nil {
			return fmt.Errorf("sync source %s: %w", name, err)
		}
	}
	return nil
}

// UpdateCheck persists the result of an availability check.
func (s *DB) UpdateCheck(name string, status int, checkErr string) error {
	var errPtr *string
	if checkErr != "" {
		errPtr = &checkErr
	}
	res, err := s.db.Exec(
		`UPDATE sources SET last_check = ?, last_status = ?, last_error = ? WHERE name = ?`,
		time.Now().Unix(), status, errPtr, name,
	)
	if err != nil {
		return fmt.Errorf("update check for %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("source %s not found", name)
	}
	return nil
}

// ListSources returns all sources ordered by name.
func (s *DB) ListSources() ([]Source, error) {
	rows, err := s.db.Query(`SELECT name, location, last_check, last_status, last_error, updated_at
		FROM sources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.Name, &src.Location, &src.LastCheck, &src.LastStatus, &src.LastError, &src.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}
