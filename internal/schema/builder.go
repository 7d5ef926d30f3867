package schema

import (
	"sort"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// defaultUDFWidth applies to appended user-defined columns without a width.
const defaultUDFWidth = 140

// BuildInput groups everything the builder merges.
type BuildInput struct {
	VoucherType voucher.VoucherType
	UDFs        []UDFDef
	// Overrides patch existing columns by id; ids without a match become new
	// columns appended after the base set.
	Overrides map[string]Override
	// ExtraColumns are wholly config-sourced columns.
	ExtraColumns []Column
	// Prefs apply last; unknown ids are ignored.
	Prefs []ColumnPref
}

// Build merges the fixed base set, user-defined fields, config overrides and
// stored preferences into a fully ordered column list. Idempotent for stable
// input: applying the same preferences twice yields identical output.
func Build(in BuildInput) ([]Column, error) {
	cols, err := BaseColumns(in.VoucherType)
	if err != nil {
		return nil, err
	}

	for _, udf := range in.UDFs {
		kind := udf.Kind
		if kind == "" {
			kind = KindText
		}
		cols = append(cols, Column{
			ID:       udf.ID,
			Label:    udf.Label,
			Kind:     kind,
			Width:    defaultUDFWidth,
			Visible:  true,
			Order:    len(cols),
			Options:  udf.Options,
			Required: udf.Required,
		})
	}

	for _, extra := range in.ExtraColumns {
		if idx := indexOf(cols, extra.ID); idx >= 0 {
			cols[idx] = extra
			cols[idx].Order = idx
			continue
		}
		extra.Order = len(cols)
		cols = append(cols, extra)
	}

	overrideIDs := make([]string, 0, len(in.Overrides))
	for id := range in.Overrides {
		overrideIDs = append(overrideIDs, id)
	}
	sort.Strings(overrideIDs)
	for _, id := range overrideIDs {
		override := in.Overrides[id]
		if idx := indexOf(cols, id); idx >= 0 {
			cols[idx].apply(override)
			continue
		}
		appended := Column{ID: id, Kind: KindText, Visible: true, Width: defaultUDFWidth, Order: len(cols)}
		appended.apply(override)
		cols = append(cols, appended)
	}

	for _, pref := range in.Prefs {
		idx := indexOf(cols, pref.ID)
		if idx < 0 {
			// column removed from the schema since the pref was stored
			continue
		}
		col := &cols[idx]
		// mandatory columns may be hidden, never removed
		col.Visible = pref.Visible
		if pref.Width > 0 {
			col.Width = pref.Width
		}
		if pref.Order != nil {
			col.Order = *pref.Order
		}
	}

	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Order < cols[j].Order })
	for i := range cols {
		cols[i].Order = i
	}
	return cols, nil
}

// Editable returns the indices of visible, editable columns in order.
func Editable(cols []Column) []int {
	out := make([]int, 0, len(cols))
	for i, c := range cols {
		if c.Visible && c.EditableCell() {
			out = append(out, i)
		}
	}
	return out
}

// Visible returns the columns currently shown, in order.
func Visible(cols []Column) []Column {
	out := make([]Column, 0, len(cols))
	for _, c := range cols {
		if c.Visible {
			out = append(out, c)
		}
	}
	return out
}

func indexOf(cols []Column, id string) int {
	for i, c := range cols {
		if c.ID == id {
			return i
		}
	}
	return -1
}
