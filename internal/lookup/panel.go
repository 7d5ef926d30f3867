package lookup

import (
	"github.com/google/uuid"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// Panel is the floating, keyboard-navigable candidate list anchored to a
// reference cell. The highlight cycles through the candidates plus an
// implicit trailing "create new" entry.
type Panel struct {
	open       bool
	rowID      uuid.UUID
	kind       voucher.EntityKind
	term       string
	candidates []Candidate
	highlight  int
}

// Open shows the panel for a lookup result, highlighting the first entry.
func (p *Panel) Open(res Result) {
	p.open = true
	p.rowID = res.RowID
	p.kind = res.Kind
	p.term = res.Term
	p.candidates = res.Candidates
	p.highlight = 0
}

// Close dismisses the panel.
func (p *Panel) Close() {
	p.open = false
	p.candidates = nil
	p.highlight = 0
}

// IsOpen reports whether the panel is showing.
func (p *Panel) IsOpen() bool {
	return p.open
}

// For reports the row/kind the panel is anchored to.
func (p *Panel) For() (uuid.UUID, voucher.EntityKind) {
	return p.rowID, p.kind
}

// Candidates exposes the current list for rendering.
func (p *Panel) Candidates() []Candidate {
	return p.candidates
}

// entryCount includes the trailing "create new" affordance.
func (p *Panel) entryCount() int {
	return len(p.candidates) + 1
}

// Highlight returns the highlighted index; the index equal to
// len(Candidates()) is the "create new" entry.
func (p *Panel) Highlight() int {
	return p.highlight
}

// Next moves the highlight down, wrapping past "create new" to the top.
func (p *Panel) Next() {
	if !p.open {
		return
	}
	p.highlight = (p.highlight + 1) % p.entryCount()
}

// Prev moves the highlight up, wrapping from the top to "create new".
func (p *Panel) Prev() {
	if !p.open {
		return
	}
	p.highlight = (p.highlight - 1 + p.entryCount()) % p.entryCount()
}

// Commit returns the highlighted candidate and closes the panel. createNew
// is true when the trailing affordance was selected; the candidate is then
// zero-valued and the typed term is returned for the caller to act on.
func (p *Panel) Commit() (c Candidate, term string, createNew bool) {
	if !p.open {
		return Candidate{}, "", false
	}
	term = p.term
	if p.highlight >= len(p.candidates) {
		createNew = true
	} else {
		c = p.candidates[p.highlight]
	}
	p.Close()
	return c, term, createNew
}
