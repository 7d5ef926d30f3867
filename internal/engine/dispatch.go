package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/odyssey-erp/vouchergrid/internal/bulkio"
	"github.com/odyssey-erp/vouchergrid/internal/grid"
	"github.com/odyssey-erp/vouchergrid/internal/masterdata"
	"github.com/odyssey-erp/vouchergrid/internal/shared"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
	"github.com/odyssey-erp/vouchergrid/internal/workflow"
)

// Dispatch applies one command and returns the resulting snapshot. Commands
// are serialized; every successful dispatch bumps the render version.
func (e *Engine) Dispatch(ctx context.Context, cmd Command) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	switch cmd.Kind {
	case CmdEditCell:
		err = e.editCell(ctx, cmd)
	case CmdInsertRow:
		err = e.insertRow(cmd.Row)
	case CmdDeleteRow:
		err = e.deleteRow(cmd.Row)
	case CmdDuplicateRow:
		err = e.duplicateRow(cmd.Row)
	case CmdMoveRow:
		err = e.moveRow(cmd.Row, cmd.To)
	case CmdSetFocus:
		e.nav.SetFocus(cmd.Row, cmd.Col)
		e.nav.EnsureValid(e.view())
	case CmdMoveFocus:
		err = e.moveFocus(cmd.Direction)
	case CmdQuickSearch:
		e.bag.QuickSearch = cmd.Term
		e.nav.EnsureValid(e.view())
		e.savePrefs(ctx)
	case CmdSetFilter:
		e.setFilter(cmd.Field, cmd.Term)
		e.nav.EnsureValid(e.view())
		e.savePrefs(ctx)
	case CmdClearFilters:
		e.bag.Filters = nil
		e.bag.QuickSearch = ""
		e.nav.EnsureValid(e.view())
		e.savePrefs(ctx)
	case CmdLookup:
		err = e.startLookup(ctx, cmd)
	case CmdLookupMove:
		if cmd.Delta < 0 {
			e.panel.Prev()
		} else {
			e.panel.Next()
		}
	case CmdLookupCommit:
		err = e.commitLookup(ctx)
	case CmdLookupCancel:
		e.cancelLookup()
	case CmdSetHeader:
		err = e.setHeader(cmd.Field, cmd.Value)
	case CmdSetNotes:
		err = e.requireEditable(func() { e.doc.Notes = voucher.CoerceString(cmd.Value) })
	case CmdAddCharge:
		err = e.addCharge(cmd.Charge)
	case CmdRemoveCharge:
		err = e.removeCharge(cmd.ID)
	case CmdPaste:
		err = e.paste(cmd.Text)
	case CmdApplyColumns:
		e.bag.Columns = cmd.Columns
		if err = e.rebuild(); err == nil {
			e.nav.EnsureValid(e.view())
			e.savePrefs(ctx)
		}
	case CmdSetDensity:
		e.bag.Density = voucher.CoerceString(cmd.Value)
		e.savePrefs(ctx)
	case CmdSave, CmdSubmit, CmdApprove, CmdReject, CmdPost:
		err = e.runWorkflow(ctx, cmd.Kind)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
	}
	if err != nil {
		return e.snapshotLocked(), err
	}
	e.version++
	return e.snapshotLocked(), nil
}

func (e *Engine) requireEditable(fn func()) error {
	if !e.doc.IsEditable() {
		return shared.ErrNotEditable
	}
	fn()
	return nil
}

func (e *Engine) rowInRange(i int) error {
	if i < 0 || i >= len(e.doc.Rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, i)
	}
	return nil
}

func (e *Engine) editCell(ctx context.Context, cmd Command) error {
	if !e.doc.IsEditable() {
		return shared.ErrNotEditable
	}
	if err := e.rowInRange(cmd.Row); err != nil {
		return err
	}
	row := &e.doc.Rows[cmd.Row]
	row.SetValue(cmd.Field, cmd.Value)

	// typing into a reference cell starts a debounced lookup for the text
	if kind, ok := voucher.ReferenceKind(cmd.Field); ok && e.resolver != nil {
		if term, isText := cmd.Value.(string); isText {
			e.lookupLocked(ctx, row.ID, kind, term)
		}
	}
	e.recompute()
	return nil
}

func (e *Engine) insertRow(at int) error {
	if !e.doc.IsEditable() {
		return shared.ErrNotEditable
	}
	if at < 0 || at > len(e.doc.Rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, at)
	}
	row := voucher.NewBlankRow(e.defaults)
	e.doc.Rows = append(e.doc.Rows[:at], append([]voucher.Row{row}, e.doc.Rows[at:]...)...)
	e.nav.ShiftForInsert(at)
	e.recompute()
	return nil
}

func (e *Engine) deleteRow(at int) error {
	if !e.doc.IsEditable() {
		return shared.ErrNotEditable
	}
	if err := e.rowInRange(at); err != nil {
		return err
	}
	removed := e.doc.Rows[at]
	if e.resolver != nil {
		for _, kind := range masterdata.Kinds() {
			e.resolver.Cancel(removed.ID, kind)
		}
	}
	if anchor, _ := e.panelAnchor(); anchor != nil && removed.ID == anchor.ID {
		e.panel.Close()
	}

	v := e.view()
	p := rankOf(v.Visible, at)
	e.doc.Rows = append(e.doc.Rows[:at], e.doc.Rows[at+1:]...)
	e.nav.ShiftForDelete(at)
	e.nav.ReseatAtRank(e.view(), p)
	e.recompute()
	return nil
}

func (e *Engine) duplicateRow(at int) error {
	if !e.doc.IsEditable() {
		return shared.ErrNotEditable
	}
	if err := e.rowInRange(at); err != nil {
		return err
	}
	copyRow := e.doc.Rows[at]
	copyRow.ID = uuid.Nil
	copyRow = voucher.NormalizeRow(copyRow, nil)
	udf := make(map[string]any, len(e.doc.Rows[at].UDF))
	for k, v := range e.doc.Rows[at].UDF {
		udf[k] = v
	}
	copyRow.UDF = udf
	e.doc.Rows = append(e.doc.Rows[:at+1], append([]voucher.Row{copyRow}, e.doc.Rows[at+1:]...)...)
	e.nav.ShiftForInsert(at + 1)
	e.recompute()
	return nil
}

func (e *Engine) moveRow(from, to int) error {
	if !e.doc.IsEditable() {
		return shared.ErrNotEditable
	}
	if err := e.rowInRange(from); err != nil {
		return err
	}
	if err := e.rowInRange(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	row := e.doc.Rows[from]
	rest := append(e.doc.Rows[:from], e.doc.Rows[from+1:]...)
	e.doc.Rows = append(rest[:to], append([]voucher.Row{row}, rest[to:]...)...)
	e.nav.TrackMove(from, to)
	return nil
}

func (e *Engine) moveFocus(direction string) error {
	v := e.view()
	switch direction {
	case DirUp:
		e.nav.MoveVertical(v, -1)
	case DirDown:
		e.nav.MoveVertical(v, 1)
	case DirLeft:
		e.nav.MoveHorizontal(v, -1, false)
	case DirRight:
		e.nav.MoveHorizontal(v, 1, false)
	case DirPrev:
		e.nav.MoveHorizontal(v, -1, true)
	case DirNext:
		if e.nav.MoveHorizontal(v, 1, true) {
			if !e.doc.IsEditable() {
				return nil
			}
			// a blank trailing row soaks up further tabs instead of growing the grid
			if n := len(e.doc.Rows); n > 0 && !e.doc.Rows[n-1].Populated(e.doc.Type) {
				return nil
			}
			e.doc.Rows = append(e.doc.Rows, voucher.NewBlankRow(e.defaults))
			nv := e.view()
			e.nav.SetFocus(len(e.doc.Rows)-1, grid.FirstEditable(nv.Columns))
			e.nav.EnsureValid(nv)
			e.recompute()
		}
	default:
		return fmt.Errorf("%w: move_focus %q", ErrUnknownCommand, direction)
	}
	return nil
}

func (e *Engine) setFilter(field, term string) {
	for i, f := range e.bag.Filters {
		if f.ColumnID == field {
			if term == "" {
				e.bag.Filters = append(e.bag.Filters[:i], e.bag.Filters[i+1:]...)
			} else {
				e.bag.Filters[i].Term = term
			}
			return
		}
	}
	if term != "" {
		e.bag.Filters = append(e.bag.Filters, grid.Filter{ColumnID: field, Term: term})
	}
}

func (e *Engine) startLookup(ctx context.Context, cmd Command) error {
	if e.resolver == nil {
		return nil
	}
	if err := e.rowInRange(cmd.Row); err != nil {
		return err
	}
	kind, ok := voucher.ReferenceKind(cmd.Field)
	if !ok {
		return fmt.Errorf("%w: lookup on %q", ErrUnknownCommand, cmd.Field)
	}
	e.lookupLocked(ctx, e.doc.Rows[cmd.Row].ID, kind, cmd.Term)
	return nil
}

// lookupLocked runs under e.mu. The empty-term shortcut is handled here
// because the resolver would apply it synchronously on this goroutine.
func (e *Engine) lookupLocked(ctx context.Context, rowID uuid.UUID, kind voucher.EntityKind, term string) {
	if term == "" {
		e.resolver.Cancel(rowID, kind)
		e.panel.Close()
		return
	}
	e.resolver.Lookup(ctx, rowID, kind, term, e.applyLookup)
}

func (e *Engine) commitLookup(ctx context.Context) error {
	if !e.panel.IsOpen() {
		return nil
	}
	rowID, kind := e.panel.For()
	candidate, term, createNew := e.panel.Commit()

	idx := -1
	for i := range e.doc.Rows {
		if e.doc.Rows[i].ID == rowID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	if createNew {
		if e.master == nil || term == "" {
			return nil
		}
		entity, err := e.master.Create(ctx, masterdata.Entity{Kind: kind, Code: term, Name: term})
		if err != nil {
			return err
		}
		candidate.ID = entity.ID
		candidate.Code = entity.Code
		candidate.Name = entity.Name
	}

	ref := e.doc.Rows[idx].Ref(kind)
	if ref == nil {
		return nil
	}
	id := candidate.ID
	*ref = voucher.Reference{EntityID: &id, Code: candidate.Code, Label: candidate.Name}

	// committing a tax code carries its rate onto the line
	if kind == voucher.EntityTaxCode && e.master != nil {
		if entity, err := e.master.Get(ctx, kind, candidate.ID); err == nil {
			e.doc.Rows[idx].TaxPct = entity.TaxRate
		}
	}
	e.recompute()
	return nil
}

func (e *Engine) cancelLookup() {
	if !e.panel.IsOpen() {
		return
	}
	rowID, kind := e.panel.For()
	if e.resolver != nil {
		e.resolver.Cancel(rowID, kind)
	}
	e.panel.Close()
}

// panelAnchor resolves the panel's anchor row, if any.
func (e *Engine) panelAnchor() (*voucher.Row, voucher.EntityKind) {
	if !e.panel.IsOpen() {
		return nil, ""
	}
	rowID, kind := e.panel.For()
	for i := range e.doc.Rows {
		if e.doc.Rows[i].ID == rowID {
			return &e.doc.Rows[i], kind
		}
	}
	return nil, kind
}

func (e *Engine) setHeader(field string, value any) error {
	if !e.doc.IsEditable() {
		return shared.ErrNotEditable
	}
	switch field {
	case "date":
		e.doc.Header.Date = voucher.CoerceDate(value)
	case "currency":
		e.doc.Header.Currency = voucher.CoerceString(value)
	case "exchange_rate":
		e.doc.Header.ExchangeRate = voucher.CoerceDecimal(value)
	case "reference":
		e.doc.Header.Reference = voucher.CoerceString(value)
	case "description":
		e.doc.Header.Description = voucher.CoerceString(value)
	case "prices_include_tax":
		e.doc.Header.PricesIncludeTax = voucher.CoerceBool(value)
	default:
		if e.doc.Header.UDF == nil {
			e.doc.Header.UDF = map[string]any{}
		}
		e.doc.Header.UDF[field] = value
	}
	e.recompute()
	return nil
}

func (e *Engine) addCharge(charge *voucher.Charge) error {
	if charge == nil {
		return nil
	}
	return e.requireEditable(func() {
		c := *charge
		if c.Sign == 0 {
			c.Sign = 1
		}
		e.doc.Charges = append(e.doc.Charges, c)
		e.recompute()
	})
}

func (e *Engine) removeCharge(id string) error {
	return e.requireEditable(func() {
		for i, c := range e.doc.Charges {
			if c.ID == id {
				e.doc.Charges = append(e.doc.Charges[:i], e.doc.Charges[i+1:]...)
				break
			}
		}
		e.recompute()
	})
}

func (e *Engine) paste(text string) error {
	if !e.doc.IsEditable() {
		return shared.ErrNotEditable
	}
	v := e.view()
	startRow, startCol := 0, ""
	if focus, ok := e.nav.Focus(); ok {
		startRow = focus.Row
		if focus.Col >= 0 && focus.Col < len(e.cols) {
			startCol = e.cols[focus.Col].ID
		}
	} else if len(v.Visible) > 0 {
		startRow = v.Visible[0]
	}
	res := bulkio.ApplyPaste(e.doc.Rows, e.cols, v.Visible, startRow, startCol, text, e.defaults)
	e.doc.Rows = res.Rows
	e.recompute()
	e.nav.EnsureValid(e.view())
	return nil
}

var workflowActions = map[CommandKind]workflow.Action{
	CmdSave:    workflow.ActionSave,
	CmdSubmit:  workflow.ActionSubmit,
	CmdApprove: workflow.ActionApprove,
	CmdReject:  workflow.ActionReject,
	CmdPost:    workflow.ActionPost,
}

func (e *Engine) runWorkflow(ctx context.Context, kind CommandKind) error {
	return e.controller.Run(ctx, workflowActions[kind], &e.doc, e.payloadLocked())
}

func rankOf(visible []int, row int) int {
	for i, r := range visible {
		if r == row {
			return i
		}
	}
	return len(visible) - 1
}
