package engine

import (
	"io"

	"github.com/odyssey-erp/vouchergrid/internal/bulkio"
	"github.com/odyssey-erp/vouchergrid/internal/shared"
)

// ExportCSV streams the visible data columns as CSV.
func (e *Engine) ExportCSV(w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return bulkio.ExportCSV(w, e.cols, e.doc.Rows)
}

// ExportXLSX streams the same projection as a workbook.
func (e *Engine) ExportXLSX(w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return bulkio.ExportXLSX(w, "", e.cols, e.doc.Rows)
}

// ImportCSV appends parsed rows to the document.
func (e *Engine) ImportCSV(r io.Reader) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.doc.IsEditable() {
		return e.snapshotLocked(), shared.ErrNotEditable
	}
	rows, err := bulkio.ImportCSV(r, e.cols, e.defaults)
	if err != nil {
		return e.snapshotLocked(), err
	}
	e.doc.Rows = append(e.doc.Rows, rows...)
	e.recompute()
	e.nav.EnsureValid(e.view())
	e.version++
	return e.snapshotLocked(), nil
}
