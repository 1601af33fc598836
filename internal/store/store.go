// Package store provides the sqlite-backed entry store for cuplog.
//
// The database runs in embedded mode with WAL for concurrent reads. Entries
// are keyed by (owner, occurred_at): owner is the single-tenant partition
// key and occurred_at is the RFC3339 sort key that doubles as the entry id.
//
// Entries are append-only; after creation only the rating and location
// fields change, and only through ApplyPatch.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mwalters/cuplog/internal/coffee"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store wraps the sqlite database connection.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates a database connection at the specified path.
//
// If the database doesn't exist it is created; the caller MUST call Close()
// when done. InitSchema must be called before first use.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path}

	// WAL mode for concurrent readers during writes
	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return s, nil
}

// RawDB returns the underlying sql.DB connection.
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Close closes the database connection after checkpointing the WAL.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}

// InitSchema creates the database schema if it doesn't exist.
// Idempotent - safe to call multiple times.
func (s *Store) InitSchema() error {
	return s.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the database schema with context support.
func (s *Store) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		owner       TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		amount      REAL NOT NULL,
		unit        TEXT NOT NULL,
		rating      INTEGER,
		location    TEXT,
		PRIMARY KEY (owner, occurred_at)
	);

	-- Covers the overview query: newest entries for an owner first
	CREATE INDEX IF NOT EXISTS idx_entries_owner_occurred
	    ON entries(owner, occurred_at DESC);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// PutEntry inserts a new entry.
//
// Entries are created exactly once: a key collision is a caller error, not
// an upsert, so re-creating an existing entry fails validation.
func (s *Store) PutEntry(entry *coffee.Entry) error {
	return s.PutEntryContext(context.Background(), entry)
}

// PutEntryContext inserts a new entry with context support.
func (s *Store) PutEntryContext(ctx context.Context, entry *coffee.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	query := `
	INSERT INTO entries (owner, occurred_at, amount, unit, rating, location)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.conn.ExecContext(ctx, query,
		entry.Owner,
		entry.OccurredAt,
		entry.Amount,
		string(entry.Unit),
		intPtrToNull(entry.Rating),
		stringPtrToNull(entry.Location),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return coffee.NewValidationError(fmt.Sprintf("entry %s already exists", entry.OccurredAt))
		}
		return coffee.NewStorageError(fmt.Errorf("failed to insert entry: %w", err))
	}

	return nil
}

// GetEntry retrieves a single entry by key.
// Returns coffee.ErrNotFound if no entry exists for the key.
func (s *Store) GetEntry(owner, occurredAt string) (*coffee.Entry, error) {
	return s.GetEntryContext(context.Background(), owner, occurredAt)
}

// GetEntryContext retrieves a single entry by key with context support.
func (s *Store) GetEntryContext(ctx context.Context, owner, occurredAt string) (*coffee.Entry, error) {
	query := `
	SELECT owner, occurred_at, amount, unit, rating, location
	FROM entries
	WHERE owner = ? AND occurred_at = ?
	`

	row := s.conn.QueryRowContext(ctx, query, owner, occurredAt)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, coffee.ErrNotFound
		}
		return nil, coffee.NewStorageError(fmt.Errorf("failed to query entry: %w", err))
	}

	return entry, nil
}

// ListRecent retrieves the owner's newest entries, most recent first.
// A limit of 0 applies the default of 10.
func (s *Store) ListRecent(owner string, limit int) ([]*coffee.Entry, error) {
	return s.ListRecentContext(context.Background(), owner, limit)
}

// DefaultListLimit bounds the overview query when no limit is given.
const DefaultListLimit = 10

// ListRecentContext retrieves recent entries with context support.
func (s *Store) ListRecentContext(ctx context.Context, owner string, limit int) ([]*coffee.Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
	SELECT owner, occurred_at, amount, unit, rating, location
	FROM entries
	WHERE owner = ?
	ORDER BY occurred_at DESC
	LIMIT ?
	`

	rows, err := s.conn.QueryContext(ctx, query, owner, limit)
	if err != nil {
		return nil, coffee.NewStorageError(fmt.Errorf("failed to list entries: %w", err))
	}
	defer rows.Close()

	var entries []*coffee.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, coffee.NewStorageError(fmt.Errorf("failed to scan entry: %w", err))
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, coffee.NewStorageError(fmt.Errorf("error iterating entries: %w", err))
	}

	return entries, nil
}

// CountEntries returns the total number of entries for an owner.
func (s *Store) CountEntries(ctx context.Context, owner string) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries WHERE owner = ?", owner).Scan(&count)
	if err != nil {
		return 0, coffee.NewStorageError(fmt.Errorf("failed to count entries: %w", err))
	}
	return count, nil
}

// scanner abstracts sql.Row and sql.Rows for scanEntry.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*coffee.Entry, error) {
	var entry coffee.Entry
	var unit string
	var rating sql.NullInt64
	var location sql.NullString

	err := row.Scan(
		&entry.Owner,
		&entry.OccurredAt,
		&entry.Amount,
		&unit,
		&rating,
		&location,
	)
	if err != nil {
		return nil, err
	}

	entry.Unit = coffee.Unit(unit)
	if rating.Valid {
		r := int(rating.Int64)
		entry.Rating = &r
	}
	if location.Valid {
		l := location.String
		entry.Location = &l
	}

	return &entry, nil
}

func intPtrToNull(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func stringPtrToNull(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func isUniqueViolation(err error) bool {
	// The wasm sqlite driver reports constraint failures by message; its
	// typed errors are not exposed through database/sql.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
