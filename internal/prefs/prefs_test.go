package prefs

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := OpenLocal(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	_, ok, err := store.Load(ctx, voucher.TypeJournal)
	require.NoError(t, err)
	require.False(t, ok)

	two := 2
	bag := Bag{
		Columns: []schema.ColumnPref{{ID: "debit", Visible: true, Width: 90, Order: &two}},
		Density: "compact",
	}
	require.NoError(t, store.Save(ctx, voucher.TypeJournal, bag))

	got, ok, err := store.Load(ctx, voucher.TypeJournal)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, bag, got)

	// overwrite, keyed per voucher type
	bag.Density = "comfortable"
	require.NoError(t, store.Save(ctx, voucher.TypeJournal, bag))
	got, _, _ = store.Load(ctx, voucher.TypeJournal)
	require.Equal(t, "comfortable", got.Density)

	_, ok, err = store.Load(ctx, voucher.TypeItem)
	require.NoError(t, err)
	require.False(t, ok)
}

type memoryStore struct {
	mu   sync.Mutex
	bags map[voucher.VoucherType]Bag
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{bags: map[voucher.VoucherType]Bag{}}
}

func (m *memoryStore) Load(ctx context.Context, vt voucher.VoucherType) (Bag, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Bag{}, false, m.err
	}
	bag, ok := m.bags[vt]
	return bag, ok, nil
}

func (m *memoryStore) Save(ctx context.Context, vt voucher.VoucherType, bag Bag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.bags[vt] = bag
	return nil
}

func TestSaverLocalFirstThenDebouncedPush(t *testing.T) {
	local := newMemoryStore()
	var mu sync.Mutex
	var pushed []Bag
	push := func(vt voucher.VoucherType, bag Bag) error {
		mu.Lock()
		pushed = append(pushed, bag)
		mu.Unlock()
		return nil
	}

	saver := NewSaver(local, push, slog.Default(), 20*time.Millisecond)
	ctx := context.Background()

	for _, density := range []string{"compact", "normal", "comfortable"} {
		require.NoError(t, saver.Save(ctx, voucher.TypeItem, Bag{Density: density}))
	}

	// local store reflects every write immediately
	got, ok, _ := local.Load(ctx, voucher.TypeItem)
	require.True(t, ok)
	require.Equal(t, "comfortable", got.Density)

	// the burst coalesces into a single remote push of the latest bag
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(pushed) == 1
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	require.Equal(t, "comfortable", pushed[0].Density)
	mu.Unlock()
}

func TestSaverPushFailureDoesNotSurface(t *testing.T) {
	local := newMemoryStore()
	push := func(vt voucher.VoucherType, bag Bag) error {
		return errors.New("remote unreachable")
	}
	saver := NewSaver(local, push, slog.Default(), time.Millisecond)

	require.NoError(t, saver.Save(context.Background(), voucher.TypeJournal, Bag{Density: "compact"}))
	time.Sleep(20 * time.Millisecond)

	got, ok, _ := local.Load(context.Background(), voucher.TypeJournal)
	require.True(t, ok, "local persistence survives remote failure")
	require.Equal(t, "compact", got.Density)
}

func TestSaverLoadFallsBackToRemote(t *testing.T) {
	local := newMemoryStore()
	remote := newMemoryStore()
	remote.bags[voucher.TypeItem] = Bag{Density: "compact"}

	saver := NewSaver(local, nil, slog.Default(), time.Millisecond)
	bag, ok, err := saver.Load(context.Background(), voucher.TypeItem, remote)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "compact", bag.Density)

	// remote errors degrade to "no preferences"
	remote.err = errors.New("boom")
	_, ok, err = saver.Load(context.Background(), voucher.TypeJournal, remote)
	require.NoError(t, err)
	require.False(t, ok)
}
