package bulkio

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/vouchergrid/internal/grid"
	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// ExportXLSX writes the rows to a single-sheet workbook with the same column
// projection as the CSV export, labels as the header row.
func ExportXLSX(w io.Writer, sheet string, cols []schema.Column, rows []voucher.Row) error {
	exported := exportColumns(cols)

	f := excelize.NewFile()
	defer f.Close()
	if sheet == "" {
		sheet = "Voucher"
	}
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := make([]any, len(exported))
	for i, col := range exported {
		header[i] = col.Label
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for i := range rows {
		record := make([]any, len(exported))
		for j, col := range exported {
			record[j] = grid.CellText(&rows[i], col)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &record); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
