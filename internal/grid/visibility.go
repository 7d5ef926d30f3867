// Package grid provides the spreadsheet navigation state machine and the
// derived row-visibility index the navigation math runs on.
package grid

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// Filter restricts visible rows by a single column's display text.
type Filter struct {
	ColumnID string `json:"column_id"`
	Term     string `json:"term"`
}

// CellText renders a row's value for one column as display text. Reference
// cells show their label, falling back to the code.
func CellText(row *voucher.Row, col schema.Column) string {
	value := row.Value(col.ID)
	switch v := value.(type) {
	case voucher.Reference:
		if v.Label != "" {
			return v.Label
		}
		return v.Code
	case decimal.Decimal:
		if v.IsZero() {
			return ""
		}
		return v.String()
	default:
		return voucher.CoerceString(value)
	}
}

// VisibleRows computes the ordered data indices of rows passing the quick
// search and all column filters. Recomputed on every render so navigation
// transparently skips hidden rows.
func VisibleRows(rows []voucher.Row, cols []schema.Column, quick string, filters []Filter) []int {
	quick = strings.ToLower(strings.TrimSpace(quick))
	out := make([]int, 0, len(rows))
	for i := range rows {
		if !matchQuick(&rows[i], cols, quick) {
			continue
		}
		if !matchFilters(&rows[i], cols, filters) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func matchQuick(row *voucher.Row, cols []schema.Column, quick string) bool {
	if quick == "" {
		return true
	}
	for _, col := range cols {
		if !col.Visible {
			continue
		}
		if strings.Contains(strings.ToLower(CellText(row, col)), quick) {
			return true
		}
	}
	return false
}

func matchFilters(row *voucher.Row, cols []schema.Column, filters []Filter) bool {
	for _, f := range filters {
		term := strings.ToLower(strings.TrimSpace(f.Term))
		if term == "" {
			continue
		}
		idx := -1
		for i, col := range cols {
			if col.ID == f.ColumnID {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}
		if !strings.Contains(strings.ToLower(CellText(row, cols[idx])), term) {
			return false
		}
	}
	return true
}
