package schema

// Manager edits a draft copy of the current schema. Nothing touches live
// state until Apply projects the draft into a preference list.
type Manager struct {
	draft []Column
}

// NewManager copies the current columns into a draft.
func NewManager(cols []Column) *Manager {
	draft := make([]Column, len(cols))
	copy(draft, cols)
	return &Manager{draft: draft}
}

// Draft exposes the working copy for rendering.
func (m *Manager) Draft() []Column {
	return m.draft
}

// ToggleVisible flips a column's visibility in the draft.
func (m *Manager) ToggleVisible(id string) {
	if idx := indexOf(m.draft, id); idx >= 0 {
		m.draft[idx].Visible = !m.draft[idx].Visible
	}
}

// Move shifts a column up or down by one position, clamped at the bounds.
func (m *Manager) Move(id string, delta int) {
	idx := indexOf(m.draft, id)
	if idx < 0 {
		return
	}
	target := idx + delta
	if target < 0 || target >= len(m.draft) {
		return
	}
	m.draft[idx], m.draft[target] = m.draft[target], m.draft[idx]
	for i := range m.draft {
		m.draft[i].Order = i
	}
}

// SetWidth updates a draft column's width; non-positive widths are ignored.
func (m *Manager) SetWidth(id string, width int) {
	if width <= 0 {
		return
	}
	if idx := indexOf(m.draft, id); idx >= 0 {
		m.draft[idx].Width = width
	}
}

// Apply projects the draft into the preference shape that overwrites the
// stored entry for the active voucher type.
func (m *Manager) Apply() []ColumnPref {
	prefs := make([]ColumnPref, 0, len(m.draft))
	for i, col := range m.draft {
		order := i
		prefs = append(prefs, ColumnPref{
			ID:      col.ID,
			Visible: col.Visible,
			Width:   col.Width,
			Order:   &order,
		})
	}
	return prefs
}
