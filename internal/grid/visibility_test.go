package grid

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

func TestCellText(t *testing.T) {
	row := voucher.NewBlankRow(nil)
	id := int64(4)
	row.Account = voucher.Reference{EntityID: &id, Code: "1001", Label: "Cash at Bank"}
	row.Debit = decimal.RequireFromString("150.50")

	accountCol := schema.Column{ID: "account", Kind: schema.KindText}
	debitCol := schema.Column{ID: "debit", Kind: schema.KindNumber}
	creditCol := schema.Column{ID: "credit", Kind: schema.KindNumber}

	require.Equal(t, "Cash at Bank", CellText(&row, accountCol))
	require.Equal(t, "150.5", CellText(&row, debitCol))
	require.Equal(t, "", CellText(&row, creditCol), "zero numerics render empty")
}

func TestVisibleRowsColumnFilter(t *testing.T) {
	cols, err := schema.Build(schema.BuildInput{VoucherType: voucher.TypeJournal})
	require.NoError(t, err)

	rows := makeRows(3)
	rows[0].Narration = "office rent"
	rows[1].Narration = "office supplies"
	rows[2].Narration = "travel"

	visible := VisibleRows(rows, cols, "", []Filter{{ColumnID: "narration", Term: "OFFICE"}})
	require.Equal(t, []int{0, 1}, visible)

	// unknown filter column is ignored, empty term matches everything
	visible = VisibleRows(rows, cols, "", []Filter{{ColumnID: "missing", Term: "x"}, {ColumnID: "narration", Term: " "}})
	require.Len(t, visible, 3)
}
