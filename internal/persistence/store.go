// Package persistence provides SQLite-backed snapshot storage for
// documents: periodic and idle-eviction writes of (doc_id, revision, text),
// and loading that snapshot back as a Hub's seed text when a document
// is reopened after the process restarted.
package persistence

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/textsync/textsync/internal/logging"
)

// Snapshot is a document's persisted state at the revision it was
// last written.
type Snapshot struct {
	ID       string
	Revision int
	Text     string
}

// Store wraps a SQLite connection holding document snapshots.
// Grounded on the teacher's pkg/database/database.go, re-scoped from
// (id, text, language) rows to (id, revision, text) since spec.md
// drops syntax-highlighting language entirely.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at uri and runs pending
// migrations.
func Open(uri string, log *logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", uri)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := migrate(db, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load retrieves a document's last snapshot, or (nil, nil) if none has
// ever been written.
func (s *Store) Load(id string) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.QueryRow(
		"SELECT id, revision, text FROM document WHERE id = ?",
		id,
	).Scan(&snap.ID, &snap.Revision, &snap.Text)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return &snap, nil
}

// Store upserts a document snapshot.
func (s *Store) Store(snap Snapshot) error {
	_, err := s.db.Exec(`
		INSERT INTO document (id, revision, text, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			revision = excluded.revision,
			text = excluded.text,
			updated_at = excluded.updated_at
	`, snap.ID, snap.Revision, snap.Text, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// Count returns the number of documents with a persisted snapshot, for
// the stats endpoint.
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM document").Scan(&count); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return count, nil
}

// Delete removes a document's snapshot.
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec("DELETE FROM document WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}
