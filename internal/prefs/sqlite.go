package prefs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// migrations are executed one statement at a time on open.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS preferences (
		voucher_type TEXT PRIMARY KEY,
		payload      TEXT NOT NULL,
		updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
	)`,
}

// LocalStore is the durable on-disk preference store backed by SQLite.
// Every save is synchronous; this store is the source of truth when the
// remote push fails.
type LocalStore struct {
	db *sql.DB
}

// OpenLocal opens (and migrates) the SQLite store at path. Use ":memory:"
// for an ephemeral store.
func OpenLocal(path string) (*LocalStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("prefs: open sqlite: %w", err)
	}
	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("prefs: migrate: %w", err)
		}
	}
	return &LocalStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// Load implements Store.
func (s *LocalStore) Load(ctx context.Context, vt voucher.VoucherType) (Bag, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM preferences WHERE voucher_type = ?`, string(vt)).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Bag{}, false, nil
		}
		return Bag{}, false, err
	}
	var bag Bag
	if err := json.Unmarshal([]byte(payload), &bag); err != nil {
		// a corrupt row behaves like a missing one
		return Bag{}, false, nil
	}
	return bag, true, nil
}

// Save implements Store.
func (s *LocalStore) Save(ctx context.Context, vt voucher.VoucherType, bag Bag) error {
	payload, err := json.Marshal(bag)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO preferences (voucher_type, payload, updated_at)
VALUES (?, ?, datetime('now'))
ON CONFLICT(voucher_type) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(vt), string(payload))
	return err
}
