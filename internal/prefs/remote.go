package prefs

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// RemoteStore keeps preference bags in Postgres so layouts follow the user
// across machines. It is a best-effort mirror of the local store.
type RemoteStore struct {
	pool *pgxpool.Pool
}

// NewRemoteStore constructs a RemoteStore.
func NewRemoteStore(pool *pgxpool.Pool) *RemoteStore {
	return &RemoteStore{pool: pool}
}

// Load implements Store.
func (s *RemoteStore) Load(ctx context.Context, vt voucher.VoucherType) (Bag, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM grid_preferences WHERE voucher_type = $1`, string(vt)).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bag{}, false, nil
		}
		return Bag{}, false, err
	}
	var bag Bag
	if err := json.Unmarshal(payload, &bag); err != nil {
		return Bag{}, false, nil
	}
	return bag, true, nil
}

// Save implements Store.
func (s *RemoteStore) Save(ctx context.Context, vt voucher.VoucherType, bag Bag) error {
	payload, err := json.Marshal(bag)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO grid_preferences (voucher_type, payload, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (voucher_type) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`,
		string(vt), payload)
	return err
}
