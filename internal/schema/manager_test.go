package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

func TestManagerDraftIsolation(t *testing.T) {
	cols, err := Build(BuildInput{VoucherType: voucher.TypeJournal})
	require.NoError(t, err)

	m := NewManager(cols)
	m.ToggleVisible("narration")
	m.SetWidth("debit", 300)

	// live schema untouched until Apply
	idx := indexOf(cols, "narration")
	require.True(t, cols[idx].Visible)
	require.NotEqual(t, 300, cols[indexOf(cols, "debit")].Width)

	draft := m.Draft()
	require.False(t, draft[indexOf(draft, "narration")].Visible)
}

func TestManagerMoveClampsAtBounds(t *testing.T) {
	cols, err := Build(BuildInput{VoucherType: voucher.TypeJournal})
	require.NoError(t, err)
	m := NewManager(cols)

	firstID := m.Draft()[0].ID
	m.Move(firstID, -1)
	require.Equal(t, firstID, m.Draft()[0].ID)

	lastID := m.Draft()[len(cols)-1].ID
	m.Move(lastID, 1)
	require.Equal(t, lastID, m.Draft()[len(cols)-1].ID)

	m.Move(firstID, 1)
	require.Equal(t, firstID, m.Draft()[1].ID)
}

func TestManagerApplyRoundTripsThroughBuild(t *testing.T) {
	cols, err := Build(BuildInput{VoucherType: voucher.TypeItem})
	require.NoError(t, err)

	m := NewManager(cols)
	m.ToggleVisible("discount_pct")
	m.Move("rate", -1)
	prefs := m.Apply()

	rebuilt, err := Build(BuildInput{VoucherType: voucher.TypeItem, Prefs: prefs})
	require.NoError(t, err)

	require.False(t, rebuilt[indexOf(rebuilt, "discount_pct")].Visible)
	require.Less(t, indexOf(rebuilt, "rate"), indexOf(rebuilt, "qty"))
}
