package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotCached is returned when no payload is cached for a request.
var ErrNotCached = errors.New("payload not cached")

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- Last successful response per endpoint and request key
		CREATE TABLE IF NOT EXISTS payloads (
			endpoint TEXT NOT NULL,
			key TEXT NOT NULL,
			payload TEXT NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (endpoint, key)
		);

		CREATE INDEX IF NOT EXISTS idx_payloads_fetched ON payloads(fetched_at);

		-- Settled node positions per network view
		CREATE TABLE IF NOT EXISTS positions (
			view TEXT NOT NULL,
			node_id TEXT NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			PRIMARY KEY (view, node_id)
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Put stores or replaces a payload.
func (d *DB) Put(e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := d.db.Exec(`
		INSERT INTO payloads (endpoint, key, payload, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(endpoint, key) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`, e.Endpoint, e.Key, string(e.Payload), e.FetchedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("storing payload %s/%s: %w", e.Endpoint, e.Key, err)
	}
	return nil
}

// PutJSON marshals v and stores it.
func (d *DB) PutJSON(endpoint, key string, v any, fetchedAt time.Time) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding payload %s/%s: %w", endpoint, key, err)
	}
	return d.Put(Entry{Endpoint: endpoint, Key: key, Payload: data, FetchedAt: fetchedAt})
}

// Get returns the cached payload for a request.
func (d *DB) Get(endpoint, key string) (*Entry, error) {
	row := d.db.QueryRow(`
		SELECT endpoint, key, payload, fetched_at
		FROM payloads WHERE endpoint = ? AND key = ?
	`, endpoint, key)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotCached, endpoint, key)
	}
	return e, err
}

// GetJSON decodes the cached payload for a request into v and returns when it
// was fetched.
func (d *DB) GetJSON(endpoint, key string, v any) (time.Time, error) {
	e, err := d.Get(endpoint, key)
	if err != nil {
		return time.Time{}, err
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return time.Time{}, fmt.Errorf("decoding payload %s/%s: %w", endpoint, key, err)
	}
	return e.FetchedAt, nil
}

// List returns all cached payloads, most recent first. An empty endpoint
// lists every endpoint.
func (d *DB) List(endpoint string) ([]Entry, error) {
	query := `SELECT endpoint, key, payload, fetched_at FROM payloads`
	var args []any
	if endpoint != "" {
		query += ` WHERE endpoint = ?`
		args = append(args, endpoint)
	}
	query += ` ORDER BY fetched_at DESC, endpoint, key`

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing payloads: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Count returns the number of cached payloads.
func (d *DB) Count() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM payloads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting payloads: %w", err)
	}
	return n, nil
}

// Clear deletes cached payloads for endpoint, or all payloads and positions
// if endpoint is empty. It returns the number of payloads removed.
func (d *DB) Clear(endpoint string) (int, error) {
	var res sql.Result
	var err error
	if endpoint == "" {
		res, err = d.db.Exec(`DELETE FROM payloads`)
		if err == nil {
			_, err = d.db.Exec(`DELETE FROM positions`)
		}
	} else {
		res, err = d.db.Exec(`DELETE FROM payloads WHERE endpoint = ?`, endpoint)
	}
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cleared rows: %w", err)
	}
	return int(n), nil
}

// RebuildFromJSONL clears the payload table and reloads it from a JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	entries, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM payloads"); err != nil {
		return 0, fmt.Errorf("clearing payloads table: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO payloads (endpoint, key, payload, fetched_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing payload insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.Endpoint, e.Key, string(e.Payload), e.FetchedAt.UnixNano()); err != nil {
			return 0, fmt.Errorf("inserting payload %s/%s: %w", e.Endpoint, e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return len(entries), nil
}

// ExportJSONL writes every cached payload to a JSONL file.
func (d *DB) ExportJSONL(jsonlPath string) (int, error) {
	entries, err := d.List("")
	if err != nil {
		return 0, err
	}
	if err := WriteAll(jsonlPath, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var payload string
	var fetched int64
	if err := s.Scan(&e.Endpoint, &e.Key, &payload, &fetched); err != nil {
		return nil, err
	}
	e.Payload = json.RawMessage(payload)
	e.FetchedAt = time.Unix(0, fetched).UTC()
	return &e, nil
}
