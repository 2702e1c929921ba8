package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SaveStore keeps save records in the save_records table.
type SaveStore struct {
	db    *pgxpool.Pool
	owner *Pool
}

// NewSaveStore creates a SaveStore backed by the given pool.
//
// Precondition: db must be a valid, open connection pool and the
// save_records migration must have been applied.
func NewSaveStore(db *pgxpool.Pool) *SaveStore {
	return &SaveStore{db: db}
}

// Get returns the value stored under key.
//
// Postcondition: ok is false and err nil when key is absent.
func (s *SaveStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx, `SELECT value FROM save_records WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying save record %q: %w", key, err)
	}
	return value, true, nil
}

// Set upserts value under key and stamps updated_at.
func (s *SaveStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO save_records (key, value, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("upserting save record %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *SaveStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM save_records WHERE key = $1`, key); err != nil {
		return fmt.Errorf("deleting save record %q: %w", key, err)
	}
	return nil
}

// Keys returns every stored key with the given prefix, sorted.
func (s *SaveStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT key FROM save_records WHERE left(key, $1) = $2 ORDER BY key`, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("listing save records: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning save record keys: %w", err)
	}
	return keys, nil
}

// Close releases the pool when the store was created by Open; a store built
// with NewSaveStore leaves its pool to the caller.
func (s *SaveStore) Close() error {
	if s.owner != nil {
		s.owner.Close()
	}
	return nil
}
