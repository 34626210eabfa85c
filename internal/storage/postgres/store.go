// Package postgres implements storage.Store on top of database/sql with the
// pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"

	"hassems/internal/storage"
)

//go:embed schema.sql
var schema string

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a Postgres-backed storage.Store.
type Store struct {
	db *sql.DB
	q  querier
}

// NewStore constructs a store over an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// EnsureSchema creates the tables and indexes when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("postgres store: nil db")
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Helpers returns the helper repository.
func (s *Store) Helpers() storage.HelperRepository { return &helperRepo{q: s.q} }

// Points returns the point repository.
func (s *Store) Points() storage.PointRepository { return &pointRepo{q: s.q} }

// Cursors returns the cursor ledger repository.
func (s *Store) Cursors() storage.CursorRepository { return &cursorRepo{q: s.q} }

// InTx runs fn against a transaction-bound store view.
func (s *Store) InTx(ctx context.Context, fn func(storage.Store) error) error {
	if s == nil || s.db == nil {
		return errors.New("postgres store: nil db")
	}
	if s.q != querier(s.db) {
		// Already inside a transaction, reuse it.
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	txStore := &Store{db: s.db, q: tx}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
