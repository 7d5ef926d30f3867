package lookup

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

func TestCachedSourceReadThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	var calls atomic.Int64
	src := SourceFunc(func(ctx context.Context, kind voucher.EntityKind, term string, limit int) ([]Candidate, error) {
		calls.Add(1)
		return []Candidate{{ID: 3, Code: "3001", Name: "Inventory"}}, nil
	})

	cached := NewCachedSource(src, rdb, time.Minute, slog.Default())
	ctx := context.Background()

	first, err := cached.Search(ctx, voucher.EntityAccount, "inv", 10)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, int64(1), calls.Load())

	second, err := cached.Search(ctx, voucher.EntityAccount, "INV", 10)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, int64(1), calls.Load(), "case-insensitive cache hit skips the source")
}

func TestCachedSourceDegradesWithoutRedis(t *testing.T) {
	src := SourceFunc(func(ctx context.Context, kind voucher.EntityKind, term string, limit int) ([]Candidate, error) {
		return []Candidate{{ID: 1}}, nil
	})
	cached := NewCachedSource(src, nil, 0, slog.Default())

	got, err := cached.Search(context.Background(), voucher.EntityTaxCode, "vat", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
