package bulkio

import (
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/cases"

	"github.com/odyssey-erp/vouchergrid/internal/grid"
	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// exportColumns is the shared projection for CSV and XLSX: visible data
// columns only, calculated columns left out because they are derived.
func exportColumns(cols []schema.Column) []schema.Column {
	var out []schema.Column
	for _, col := range cols {
		if col.Visible && col.Kind != schema.KindCalculated {
			out = append(out, col)
		}
	}
	return out
}

// ExportCSV writes the rows under a header of column ids.
func ExportCSV(w io.Writer, cols []schema.Column, rows []voucher.Row) error {
	exported := exportColumns(cols)
	cw := csv.NewWriter(w)

	header := make([]string, len(exported))
	for i, col := range exported {
		header[i] = col.ID
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(exported))
	for i := range rows {
		for j, col := range exported {
			record[j] = grid.CellText(&rows[i], col)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportCSV reads rows whose header cells are matched case-insensitively
// against column ids or labels. Unmatched header columns are ignored.
func ImportCSV(r io.Reader, cols []schema.Column, defaults map[string]any) ([]voucher.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	fold := cases.Fold()
	byKey := map[string]schema.Column{}
	for _, col := range cols {
		if col.Kind == schema.KindCalculated {
			continue
		}
		byKey[fold.String(col.ID)] = col
		byKey[fold.String(col.Label)] = col
	}

	mapped := make([]*schema.Column, len(records[0]))
	for i, h := range records[0] {
		if col, ok := byKey[fold.String(h)]; ok {
			c := col
			mapped[i] = &c
		}
	}

	var rows []voucher.Row
	for _, record := range records[1:] {
		if recordEmpty(record) {
			continue
		}
		row := voucher.NewBlankRow(defaults)
		for i, cell := range record {
			if i >= len(mapped) || mapped[i] == nil {
				continue
			}
			setCell(&row, *mapped[i], cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func recordEmpty(record []string) bool {
	for _, cell := range record {
		if cell != "" {
			return false
		}
	}
	return true
}
