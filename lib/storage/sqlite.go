package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/edwago/edwa"
)

//go:embed schema.sql
var sqliteSchema string

// SQLiteStore persists blobs to a SQLite database, keyed by scope and
// id. It backs StoredCodec for sessions whose page state outgrows
// URL-safe tokens.
//
// The store performs no cross-request locking of its own: edwa is
// single-writer per session, and serializing concurrent sessions is
// the database's job.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite blob store at the given
// DSN.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}

	// Enable WAL mode for concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: set WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Put stores data under scope and returns a fresh id.
func (s *SQLiteStore) Put(scope string, data []byte) (string, error) {
	id := newID()
	_, err := s.db.Exec(
		`INSERT INTO edwa_blob (scope, id, data, created) VALUES (?, ?, ?, ?)`,
		scope, id, data, time.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("storage: put: %w", err)
	}
	return id, nil
}

// Get returns the blob stored under scope and id.
func (s *SQLiteStore) Get(scope, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(
		`SELECT data FROM edwa_blob WHERE scope = ? AND id = ?`,
		scope, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, scope, id)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get: %w", err)
	}
	return data, nil
}

// Prune deletes blobs older than the given age. Old page and action
// blobs stop resolving once pruned, which breaks bookmarked links
// into pruned state - the trade every server-resident strategy makes.
func (s *SQLiteStore) Prune(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan).UnixNano()
	if _, err := s.db.Exec(`DELETE FROM edwa_blob WHERE created < ?`, cutoff); err != nil {
		return fmt.Errorf("storage: prune: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ edwa.Store = (*SQLiteStore)(nil)
