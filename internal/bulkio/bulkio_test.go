package bulkio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

func journalColumns() []schema.Column {
	return []schema.Column{
		{ID: "account", Label: "Account", Kind: schema.KindText, Visible: true, Reference: voucher.EntityAccount},
		{ID: "cost_center", Label: "Cost Center", Kind: schema.KindText, Visible: false, Reference: voucher.EntityCostCenter},
		{ID: "narration", Label: "Narration", Kind: schema.KindText, Visible: true},
		{ID: "debit", Label: "Debit", Kind: schema.KindNumber, Visible: true},
		{ID: "credit", Label: "Credit", Kind: schema.KindNumber, Visible: true},
		{ID: "amount", Label: "Amount", Kind: schema.KindCalculated, Visible: true},
	}
}

func TestSplitClipboardPrefersTabs(t *testing.T) {
	cells := SplitClipboard("a\tb,c\nd\te\n")
	require.Equal(t, [][]string{{"a", "b,c"}, {"d", "e"}}, cells)

	cells = SplitClipboard("a,b\nc,d")
	require.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, cells)

	require.Nil(t, SplitClipboard("\n"))
}

func TestApplyPasteMapsVisibleEditableColumns(t *testing.T) {
	rows := []voucher.Row{voucher.NewBlankRow(nil)}
	text := "1000\topening\t1,250.00\t0\nskipped\n"

	res := ApplyPaste(rows, journalColumns(), []int{0}, 0, "account", text, nil)

	require.Equal(t, 1, res.RowsAdded)
	require.Len(t, res.Rows, 2)
	require.Equal(t, "1000", res.Rows[0].Account.Code)
	require.Equal(t, "opening", res.Rows[0].Narration)
	require.True(t, decimal.NewFromFloat(1250).Equal(res.Rows[0].Debit))
	require.Equal(t, "skipped", res.Rows[1].Account.Code)
}

func TestApplyPasteStartsMidColumn(t *testing.T) {
	rows := []voucher.Row{voucher.NewBlankRow(nil)}

	res := ApplyPaste(rows, journalColumns(), []int{0}, 0, "debit", "500\t500", nil)

	require.True(t, decimal.NewFromInt(500).Equal(res.Rows[0].Debit))
	require.True(t, decimal.NewFromInt(500).Equal(res.Rows[0].Credit))
	require.Empty(t, res.Rows[0].Account.Code)
}

func TestApplyPasteSkipsHiddenAndCalculatedTargets(t *testing.T) {
	rows := []voucher.Row{voucher.NewBlankRow(nil)}

	// four cells, but only account/narration/debit/credit are targets:
	// cost_center is hidden and amount is calculated
	res := ApplyPaste(rows, journalColumns(), []int{0}, 0, "", "1000\tmemo\t10\t0\t99", nil)

	require.Equal(t, 4, res.CellsSet)
	require.Empty(t, res.Rows[0].CostCenter.Code)
	require.True(t, res.Rows[0].Amount.IsZero())
}

func TestCSVRoundTrip(t *testing.T) {
	rows := []voucher.Row{
		{Account: voucher.Reference{Code: "1000", Label: "Cash"}, Narration: "opening", Debit: decimal.NewFromInt(100)},
		{Account: voucher.Reference{Code: "3000", Label: "Equity"}, Credit: decimal.NewFromInt(100)},
	}
	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, journalColumns(), rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, "account,narration,debit,credit", lines[0])
	require.Len(t, lines, 3)

	got, err := ImportCSV(&buf, journalColumns(), nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Cash", got[0].Account.Code) // labels export as display text
	require.True(t, decimal.NewFromInt(100).Equal(got[1].Credit))
}

func TestImportCSVMatchesHeaderCaseInsensitively(t *testing.T) {
	in := "ACCOUNT,Unknown Col,NARRATION,Debit\n1000,junk,opening,50\n,,,\n"

	rows, err := ImportCSV(strings.NewReader(in), journalColumns(), nil)
	require.NoError(t, err)
	require.Len(t, rows, 1) // blank record skipped
	require.Equal(t, "1000", rows[0].Account.Code)
	require.Equal(t, "opening", rows[0].Narration)
	require.True(t, decimal.NewFromInt(50).Equal(rows[0].Debit))
	require.NotContains(t, rows[0].UDF, "Unknown Col")
}

func TestImportCSVMatchesLabels(t *testing.T) {
	in := "Account,Narration\n2000,accrual\n"

	rows, err := ImportCSV(strings.NewReader(in), journalColumns(), nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "2000", rows[0].Account.Code)
}

func TestExportXLSXProjection(t *testing.T) {
	rows := []voucher.Row{
		{Account: voucher.Reference{Code: "1000"}, Narration: "opening", Debit: decimal.NewFromInt(75)},
	}
	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(&buf, "", journalColumns(), rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Voucher")
	require.NoError(t, err)
	require.Equal(t, []string{"Account", "Narration", "Debit", "Credit"}, got[0])
	require.Equal(t, []string{"1000", "opening", "75"}, got[1])
}
