package store

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "hotspotcli/internal/errors"
)

// Store implements the persistence contracts of the voucher ledger, the
// credential generator and the subscription machine against one SQLite
// database.
type Store struct {
	db          *DB
	maxSequence int64
}

// New creates a store over the given database. maxSequence bounds the
// per-account credential sequence namespace.
func New(db *DB, maxSequence int64) *Store {
	return &Store{db: db, maxSequence: maxSequence}
}

// ReserveBlock atomically reserves count consecutive sequence numbers for the
// account and returns the first one. Reservations are never reused, even when
// the batch they were reserved for fails later; gaps are acceptable,
// collisions are not.
func (s *Store) ReserveBlock(ctx context.Context, accountID string, count int) (int64, error) {
	tx, err := s.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reservation: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO account_sequences (account_id, next_seq) VALUES (?, 1)`,
		accountID,
	); err != nil {
		return 0, fmt.Errorf("init sequence row: %w", err)
	}

	var start int64
	if err := tx.QueryRowContext(ctx,
		`SELECT next_seq FROM account_sequences WHERE account_id = ?`,
		accountID,
	).Scan(&start); err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}

	if start+int64(count)-1 > s.maxSequence {
		return 0, &apperrors.ExhaustionError{AccountID: accountID, Limit: s.maxSequence}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE account_sequences SET next_seq = ? WHERE account_id = ?`,
		start+int64(count), accountID,
	); err != nil {
		return 0, fmt.Errorf("advance sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reservation: %w", err)
	}
	return start, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// notFound translates sql.ErrNoRows into the shared not-found sentinel
func notFound(err error, what, id string) error {
	if err == sql.ErrNoRows {
		return fmt.Errorf("%s %s: %w", what, id, apperrors.ErrNotFoundSentinel)
	}
	return err
}
