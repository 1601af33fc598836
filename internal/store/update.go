package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mwalters/cuplog/internal/coffee"
)

// ApplyPatch applies a sparse patch to the entry keyed by (owner, occurredAt)
// and returns the post-update entry.
//
// Each mutable field is inspected for presence independently; every present
// field contributes one SET clause, and all clauses execute as a single
// UPDATE so the change is all-or-nothing. Validation happens before any
// mutation is attempted: an out-of-range rating or an empty patch never
// touches the store. Identity fields are not patchable.
//
// Returns coffee.ErrNotFound if no entry exists for the key, a
// *coffee.ValidationError for caller errors, and a *coffee.StorageError for
// driver failures. No retries are performed at this level.
func (s *Store) ApplyPatch(owner, occurredAt string, patch *coffee.Patch) (*coffee.Entry, error) {
	return s.ApplyPatchContext(context.Background(), owner, occurredAt, patch)
}

// ApplyPatchContext applies a sparse patch with context support.
func (s *Store) ApplyPatchContext(ctx context.Context, owner, occurredAt string, patch *coffee.Patch) (*coffee.Entry, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var sets []string
	var args []interface{}

	if patch.Rating != nil {
		sets = append(sets, "rating = ?")
		args = append(args, *patch.Rating)
	}

	if patch.Location != nil {
		sets = append(sets, "location = ?")
		args = append(args, *patch.Location)
	}

	query := `UPDATE entries SET ` + strings.Join(sets, ", ") + ` WHERE owner = ? AND occurred_at = ?`
	args = append(args, owner, occurredAt)

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, coffee.NewStorageError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, coffee.NewStorageError(fmt.Errorf("failed to update entry: %w", err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, coffee.NewStorageError(fmt.Errorf("failed to read rows affected: %w", err))
	}
	if affected == 0 {
		return nil, coffee.ErrNotFound
	}

	// Read back the full row inside the same transaction so the returned
	// entry reflects exactly this update.
	row := tx.QueryRowContext(ctx, `
	SELECT owner, occurred_at, amount, unit, rating, location
	FROM entries
	WHERE owner = ? AND occurred_at = ?
	`, owner, occurredAt)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, coffee.ErrNotFound
		}
		return nil, coffee.NewStorageError(fmt.Errorf("failed to read updated entry: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, coffee.NewStorageError(fmt.Errorf("failed to commit update: %w", err))
	}

	return entry, nil
}
