package grid

import "github.com/odyssey-erp/vouchergrid/internal/schema"

// Focus addresses the focused cell by data row index and schema column
// index, not on-screen position, so it stays correct when rows are
// reordered or filtered.
type Focus struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// View is the render-time context navigation operates on: the active
// columns and the ordered data indices of currently visible rows.
type View struct {
	Columns []schema.Column
	Visible []int
}

// Navigator is the keyboard focus state machine.
type Navigator struct {
	focus Focus
	valid bool
}

// NewNavigator returns a navigator with no focus yet.
func NewNavigator() *Navigator {
	return &Navigator{}
}

// Focus returns the current focus and whether one is held.
func (n *Navigator) Focus() (Focus, bool) {
	return n.focus, n.valid
}

// SetFocus places focus on a data row/column pair.
func (n *Navigator) SetFocus(row, col int) {
	n.focus = Focus{Row: row, Col: col}
	n.valid = true
}

// Blur drops focus entirely.
func (n *Navigator) Blur() {
	n.valid = false
}

// rank returns the position of a data row index among visible rows, -1 when
// the row is hidden or gone.
func rank(visible []int, row int) int {
	for i, r := range visible {
		if r == row {
			return i
		}
	}
	return -1
}

// MoveVertical moves focus delta visible rows down (positive) or up,
// clamping at the grid edges. Hidden rows are skipped by construction.
func (n *Navigator) MoveVertical(v View, delta int) {
	if !n.EnsureValid(v) {
		return
	}
	p := rank(v.Visible, n.focus.Row)
	target := p + delta
	if target < 0 {
		target = 0
	}
	if target > len(v.Visible)-1 {
		target = len(v.Visible) - 1
	}
	n.focus.Row = v.Visible[target]
}

// MoveHorizontal moves focus among editable columns only. With appendAtEnd
// set (Tab), moving past the last editable column of the last visible row
// reports that a new row should be appended instead of clamping.
func (n *Navigator) MoveHorizontal(v View, delta int, appendAtEnd bool) (appendRow bool) {
	if !n.EnsureValid(v) {
		return false
	}
	editable := schema.Editable(v.Columns)
	if len(editable) == 0 {
		return false
	}
	pos := nearestEditable(editable, n.focus.Col)
	pos += delta
	if pos < 0 {
		pos = 0
	}
	if pos > len(editable)-1 {
		if appendAtEnd && rank(v.Visible, n.focus.Row) == len(v.Visible)-1 {
			return true
		}
		pos = len(editable) - 1
	}
	n.focus.Col = editable[pos]
	return false
}

// FirstEditable returns the first visible editable column index.
func FirstEditable(cols []schema.Column) int {
	editable := schema.Editable(cols)
	if len(editable) == 0 {
		return 0
	}
	return editable[0]
}

// ShiftForInsert adjusts focus for a row inserted at data index at.
func (n *Navigator) ShiftForInsert(at int) {
	if n.valid && n.focus.Row >= at {
		n.focus.Row++
	}
}

// ShiftForDelete adjusts focus for a row removed at data index at; the
// caller is expected to ReseatAtRank afterwards with the post-delete view.
func (n *Navigator) ShiftForDelete(at int) {
	if n.valid && n.focus.Row > at {
		n.focus.Row--
	}
}

// ReseatAtRank places focus on the visible row now occupying the given
// rank, clamped to the new row count. With no visible rows focus is lost.
func (n *Navigator) ReseatAtRank(v View, p int) {
	if len(v.Visible) == 0 {
		n.valid = false
		return
	}
	if p > len(v.Visible)-1 {
		p = len(v.Visible) - 1
	}
	if p < 0 {
		p = 0
	}
	n.focus.Row = v.Visible[p]
	n.valid = true
	n.EnsureValid(v)
}

// TrackMove adjusts focus for a row spliced out of index from and
// reinserted at index to, keeping focus on the moved row.
func (n *Navigator) TrackMove(from, to int) {
	if !n.valid {
		return
	}
	switch {
	case n.focus.Row == from:
		n.focus.Row = to
	case from < n.focus.Row && n.focus.Row <= to:
		n.focus.Row--
	case to <= n.focus.Row && n.focus.Row < from:
		n.focus.Row++
	}
}

// EnsureValid resolves focus to a real, visible, editable cell, falling
// back to the nearest valid position. Returns false when the grid has no
// focusable cell at all.
func (n *Navigator) EnsureValid(v View) bool {
	if len(v.Visible) == 0 {
		n.valid = false
		return false
	}
	editable := schema.Editable(v.Columns)
	if len(editable) == 0 {
		n.valid = false
		return false
	}
	if !n.valid {
		n.focus = Focus{Row: v.Visible[0], Col: editable[0]}
		n.valid = true
		return true
	}
	if rank(v.Visible, n.focus.Row) < 0 {
		// nearest visible row at or after the stale index, else the last
		row := v.Visible[len(v.Visible)-1]
		for _, r := range v.Visible {
			if r >= n.focus.Row {
				row = r
				break
			}
		}
		n.focus.Row = row
	}
	n.focus.Col = editable[nearestEditable(editable, n.focus.Col)]
	return true
}

// nearestEditable returns the position in editable of col, or of the
// closest editable column when col itself is not editable.
func nearestEditable(editable []int, col int) int {
	best := 0
	bestDist := -1
	for i, c := range editable {
		if c == col {
			return i
		}
		dist := c - col
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return best
}
