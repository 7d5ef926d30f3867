// Package bulkio moves row data across the grid boundary in bulk: clipboard
// paste, CSV import/export and XLSX export.
package bulkio

import (
	"strings"

	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// SplitClipboard parses clipboard text into cell rows. Tab-delimited wins
// when any tab is present, otherwise commas; a trailing newline does not
// produce an empty row.
func SplitClipboard(text string) [][]string {
	text = strings.TrimRight(text, "\r\n")
	if text == "" {
		return nil
	}
	sep := ","
	if strings.Contains(text, "\t") {
		sep = "\t"
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([][]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, strings.Split(line, sep))
	}
	return out
}

// PasteResult is the grid state after a paste.
type PasteResult struct {
	Rows      []voucher.Row
	RowsAdded int
	CellsSet  int
}

// ApplyPaste maps clipboard cells positionally onto the visible editable
// columns starting at startColID, one clipboard line per visible row from
// startRow down, appending fresh rows once the grid runs out.
func ApplyPaste(rows []voucher.Row, cols []schema.Column, visible []int, startRow int, startColID string, text string, defaults map[string]any) PasteResult {
	lines := SplitClipboard(text)
	result := PasteResult{Rows: rows}
	if len(lines) == 0 {
		return result
	}

	targets := pasteColumns(cols, startColID)
	if len(targets) == 0 {
		return result
	}

	rank := 0
	for i, dataIdx := range visible {
		if dataIdx == startRow {
			rank = i
			break
		}
	}

	for li, line := range lines {
		var dataIdx int
		if vi := rank + li; vi < len(visible) {
			dataIdx = visible[vi]
		} else {
			result.Rows = append(result.Rows, voucher.NewBlankRow(defaults))
			result.RowsAdded++
			dataIdx = len(result.Rows) - 1
		}
		row := &result.Rows[dataIdx]
		for ci, cell := range line {
			if ci >= len(targets) {
				break
			}
			setCell(row, targets[ci], cell)
			result.CellsSet++
		}
	}
	return result
}

// pasteColumns returns the visible editable columns from startColID onward.
// An unknown start column means the paste begins at the first editable one.
func pasteColumns(cols []schema.Column, startColID string) []schema.Column {
	started := startColID == ""
	var out []schema.Column
	for _, col := range cols {
		if !col.Visible || !col.EditableCell() {
			continue
		}
		if !started && col.ID == startColID {
			started = true
		}
		if started {
			out = append(out, col)
		}
	}
	return out
}

// setCell writes one raw cell into the row with column-kind coercion.
// Canonical fields coerce inside SetValue; UDF columns coerce here.
func setCell(row *voucher.Row, col schema.Column, raw string) {
	if isCanonical(col.ID) {
		row.SetValue(col.ID, raw)
		return
	}
	switch col.Kind {
	case schema.KindNumber:
		row.SetValue(col.ID, voucher.CoerceDecimal(raw))
	case schema.KindCheckbox:
		row.SetValue(col.ID, voucher.CoerceBool(raw))
	case schema.KindDate:
		row.SetValue(col.ID, voucher.CoerceDate(raw))
	default:
		row.SetValue(col.ID, strings.TrimSpace(raw))
	}
}

var canonicalFields = map[string]struct{}{
	voucher.FieldAccount: {}, voucher.FieldCostCenter: {}, voucher.FieldProject: {},
	voucher.FieldDepartment: {}, voucher.FieldTaxCode: {}, voucher.FieldItem: {},
	voucher.FieldNarration: {}, voucher.FieldDebit: {}, voucher.FieldCredit: {},
	voucher.FieldQty: {}, voucher.FieldRate: {}, voucher.FieldDiscountPct: {},
	voucher.FieldTaxPct: {}, voucher.FieldAmount: {},
}

func isCanonical(id string) bool {
	_, ok := canonicalFields[id]
	return ok
}
