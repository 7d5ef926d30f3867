package grid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

func journalView(t *testing.T, rows []voucher.Row, quick string, filters []Filter) View {
	t.Helper()
	cols, err := schema.Build(schema.BuildInput{VoucherType: voucher.TypeJournal})
	require.NoError(t, err)
	return View{Columns: cols, Visible: VisibleRows(rows, cols, quick, filters)}
}

func makeRows(n int) []voucher.Row {
	rows := make([]voucher.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, voucher.NewBlankRow(nil))
	}
	return rows
}

func TestMoveVerticalClampsAtEdges(t *testing.T) {
	rows := makeRows(3)
	v := journalView(t, rows, "", nil)
	n := NewNavigator()
	n.SetFocus(0, FirstEditable(v.Columns))

	for i := 0; i < 10; i++ {
		n.MoveVertical(v, 1)
	}
	f, ok := n.Focus()
	require.True(t, ok)
	require.Equal(t, 2, f.Row, "repeated Down never leaves the visible range")

	for i := 0; i < 10; i++ {
		n.MoveVertical(v, -1)
	}
	f, _ = n.Focus()
	require.Equal(t, 0, f.Row)
}

func TestMoveVerticalSkipsFilteredRows(t *testing.T) {
	rows := makeRows(3)
	rows[0].Narration = "rent expense"
	rows[1].Narration = "irrelevant"
	rows[2].Narration = "rent accrual"
	v := journalView(t, rows, "rent", nil)
	require.Equal(t, []int{0, 2}, v.Visible)

	n := NewNavigator()
	n.SetFocus(0, FirstEditable(v.Columns))
	n.MoveVertical(v, 1)
	f, _ := n.Focus()
	require.Equal(t, 2, f.Row, "hidden row transparently skipped")
}

func TestMoveHorizontalEditableOnly(t *testing.T) {
	cols, err := schema.Build(schema.BuildInput{VoucherType: voucher.TypeItem})
	require.NoError(t, err)
	rows := makeRows(1)
	v := View{Columns: cols, Visible: VisibleRows(rows, cols, "", nil)}

	n := NewNavigator()
	n.SetFocus(0, FirstEditable(cols))
	for i := 0; i < len(cols)+5; i++ {
		n.MoveHorizontal(v, 1, false)
	}
	f, _ := n.Focus()
	require.NotEqual(t, schema.KindCalculated, cols[f.Col].Kind, "calculated columns are never focused")
	editable := schema.Editable(cols)
	require.Equal(t, editable[len(editable)-1], f.Col, "Right clamps at the last editable column")
}

func TestTabPastEndSignalsAppendExactlyOnce(t *testing.T) {
	rows := makeRows(2)
	v := journalView(t, rows, "", nil)
	n := NewNavigator()
	editable := schema.Editable(v.Columns)

	// focus last editable cell of a non-last row: Tab clamps, no append
	n.SetFocus(0, editable[len(editable)-1])
	require.False(t, n.MoveHorizontal(v, 1, true))

	// last editable cell of the last visible row: Tab requests an append
	n.SetFocus(1, editable[len(editable)-1])
	require.True(t, n.MoveHorizontal(v, 1, true))

	// engine appends and refocuses; the next Tab moves within the new row
	rows = append(rows, voucher.NewBlankRow(nil))
	v = journalView(t, rows, "", nil)
	n.SetFocus(2, editable[0])
	require.False(t, n.MoveHorizontal(v, 1, true))
}

func TestReseatAfterDelete(t *testing.T) {
	rows := makeRows(3)
	v := journalView(t, rows, "", nil)
	n := NewNavigator()
	n.SetFocus(1, FirstEditable(v.Columns))
	p := rank(v.Visible, 1)

	// delete data row 1
	rows = append(rows[:1], rows[2:]...)
	n.ShiftForDelete(1)
	v = journalView(t, rows, "", nil)
	n.ReseatAtRank(v, p)

	f, ok := n.Focus()
	require.True(t, ok)
	require.Equal(t, 1, f.Row, "focus lands on the row now occupying the same rank")

	// deleting the last remaining rows clamps, then loses focus at zero rows
	rows = rows[:1]
	v = journalView(t, rows, "", nil)
	n.ReseatAtRank(v, 5)
	f, _ = n.Focus()
	require.Equal(t, 0, f.Row)

	v = journalView(t, nil, "", nil)
	n.ReseatAtRank(v, 0)
	_, ok = n.Focus()
	require.False(t, ok)
}

func TestTrackMove(t *testing.T) {
	n := NewNavigator()
	n.SetFocus(1, 0)
	n.TrackMove(1, 3)
	f, _ := n.Focus()
	require.Equal(t, 3, f.Row)

	n.SetFocus(2, 0)
	n.TrackMove(0, 3) // row 0 moved below row 2
	f, _ = n.Focus()
	require.Equal(t, 1, f.Row)
}

func TestEnsureValidFallsBackToNearest(t *testing.T) {
	rows := makeRows(2)
	v := journalView(t, rows, "", nil)
	n := NewNavigator()
	n.SetFocus(7, 99) // stale focus beyond the grid

	require.True(t, n.EnsureValid(v))
	f, _ := n.Focus()
	require.Contains(t, v.Visible, f.Row)
	require.True(t, v.Columns[f.Col].EditableCell())
}
