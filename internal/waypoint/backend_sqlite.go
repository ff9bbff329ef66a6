// SPDX-License-Identifier: MIT

package waypoint

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS waypoints (
	id   TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS groups (
	id   TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
`

// SQLiteBackend persists records as JSON documents, one row per entry.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLiteBackend opens (or creates) a sqlite database at path.
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	// The store serializes writes itself; a single connection avoids
	// SQLITE_BUSY on concurrent access.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Load() ([]Waypoint, []Group, error) {
	var wps []Waypoint
	rows, err := s.db.Query(`SELECT data FROM waypoints`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, nil, err
		}
		var wp Waypoint
		if err := json.Unmarshal([]byte(data), &wp); err != nil {
			return nil, nil, fmt.Errorf("decode waypoint row: %w", err)
		}
		wps = append(wps, wp)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var groups []Group
	grows, err := s.db.Query(`SELECT data FROM groups`)
	if err != nil {
		return nil, nil, err
	}
	defer grows.Close()
	for grows.Next() {
		var data string
		if err := grows.Scan(&data); err != nil {
			return nil, nil, err
		}
		var g Group
		if err := json.Unmarshal([]byte(data), &g); err != nil {
			return nil, nil, fmt.Errorf("decode group row: %w", err)
		}
		groups = append(groups, g)
	}
	return wps, groups, grows.Err()
}

func (s *SQLiteBackend) PutWaypoint(wp Waypoint) error {
	buf, err := json.Marshal(wp)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO waypoints (id, data) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		wp.ID, string(buf),
	)
	return err
}

func (s *SQLiteBackend) DeleteWaypoint(id string) error {
	_, err := s.db.Exec(`DELETE FROM waypoints WHERE id = ?`, id)
	return err
}

func (s *SQLiteBackend) PutGroup(g Group) error {
	buf, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO groups (id, data) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		g.ID, string(buf),
	)
	return err
}

func (s *SQLiteBackend) DeleteGroup(id string) error {
	_, err := s.db.Exec(`DELETE FROM groups WHERE id = ?`, id)
	return err
}

func (s *SQLiteBackend) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM waypoints`); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM groups`)
	return err
}

func (s *SQLiteBackend) Close() error { return s.db.Close() }

var _ Backend = (*SQLiteBackend)(nil)
