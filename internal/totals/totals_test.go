package totals

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestJournalBalance(t *testing.T) {
	rows := []voucher.Row{
		{Debit: dec("100"), Credit: dec("0")},
		{Debit: dec("0"), Credit: dec("100")},
	}
	got := Compute(voucher.TypeJournal, rows, voucher.Header{}, nil)

	require.True(t, got.DebitTotal.Equal(dec("100")))
	require.True(t, got.CreditTotal.Equal(dec("100")))
	require.True(t, got.Difference.IsZero())
	require.True(t, got.Balanced)
}

func TestJournalDifferenceMatchesSums(t *testing.T) {
	rows := []voucher.Row{
		{Debit: dec("130.55")},
		{Debit: dec("19.45")},
		{Credit: dec("150.01")},
	}
	got := Compute(voucher.TypeJournal, rows, voucher.Header{}, nil)

	require.True(t, got.Difference.Equal(got.DebitTotal.Sub(got.CreditTotal)))
	require.True(t, got.Difference.Equal(dec("-0.01")))
	// exactly at the tolerance boundary is not balanced
	require.False(t, got.Balanced)
}

func TestItemVoucherTaxExclusive(t *testing.T) {
	rows := []voucher.Row{
		{Qty: dec("2"), Rate: dec("100"), DiscountPct: dec("10"), TaxPct: dec("13")},
	}
	got := Compute(voucher.TypeItem, rows, voucher.Header{}, nil)

	require.True(t, got.Subtotal.Equal(dec("180")), "subtotal %s", got.Subtotal)
	require.True(t, got.DiscountTotal.Equal(dec("20")))
	require.True(t, got.TaxTotal.Equal(dec("23.4")))
	require.True(t, got.GrandTotal.Equal(dec("203.40")))
	require.True(t, got.RoundingAdjustment.IsZero())
	require.True(t, rows[0].Amount.Equal(dec("203.40")), "line amount written back, got %s", rows[0].Amount)
}

func TestItemVoucherTaxInclusive(t *testing.T) {
	rows := []voucher.Row{
		{Qty: dec("1"), Rate: dec("113"), TaxPct: dec("13")},
	}
	header := voucher.Header{PricesIncludeTax: true}
	got := Compute(voucher.TypeItem, rows, header, nil)

	require.True(t, got.Subtotal.Equal(dec("100")), "taxable %s", got.Subtotal)
	require.True(t, got.TaxTotal.Equal(dec("13")))
	require.True(t, got.GrandTotal.Equal(dec("113")))
}

func TestGrandTotalReconciliation(t *testing.T) {
	rows := []voucher.Row{
		{Qty: dec("3"), Rate: dec("33.333"), TaxPct: dec("7.5")},
		{Qty: dec("1"), Rate: dec("9.99"), DiscountPct: dec("2.5"), TaxPct: dec("13")},
		{Qty: dec("5"), Rate: dec("1.01")},
	}
	charges := []voucher.Charge{
		{ID: "freight", Mode: voucher.ChargeAmount, Value: dec("12.345"), Sign: 1},
		{ID: "early-pay", Mode: voucher.ChargePercent, Value: dec("1.25"), Sign: -1},
	}
	got := Compute(voucher.TypeItem, rows, voucher.Header{}, charges)

	recon := got.Subtotal.Add(got.TaxTotal).Add(got.ChargesTotal).Add(got.RoundingAdjustment)
	require.True(t, recon.Equal(got.GrandTotal), "reconciliation %s != %s", recon, got.GrandTotal)
	require.True(t, got.GrandTotal.Equal(got.GrandTotal.Round(2)), "grand total must be cent-precise")
}

func TestTaxBreakdownExcludesZeroRate(t *testing.T) {
	rows := []voucher.Row{
		{Qty: dec("1"), Rate: dec("50"), TaxPct: dec("13")},
		{Qty: dec("2"), Rate: dec("25"), TaxPct: dec("13")},
		{Qty: dec("1"), Rate: dec("10"), TaxPct: dec("5")},
		{Qty: dec("1"), Rate: dec("99")},
	}
	got := Compute(voucher.TypeItem, rows, voucher.Header{}, nil)

	require.Len(t, got.TaxBreakdown, 2)
	require.True(t, got.TaxBreakdown[0].RatePct.Equal(dec("5")))
	require.True(t, got.TaxBreakdown[1].RatePct.Equal(dec("13")))
	require.True(t, got.TaxBreakdown[1].Taxable.Equal(dec("100")))
	require.True(t, got.TaxBreakdown[1].Tax.Equal(dec("13")))
}

func TestPercentChargeBase(t *testing.T) {
	rows := []voucher.Row{
		{Qty: dec("1"), Rate: dec("200"), TaxPct: dec("10")},
	}
	charges := []voucher.Charge{
		{ID: "svc", Mode: voucher.ChargePercent, Value: dec("5"), Sign: 1},
	}
	got := Compute(voucher.TypeItem, rows, voucher.Header{}, charges)

	// 5% of (200 + 20)
	require.True(t, got.ChargesTotal.Equal(dec("11")))
	require.True(t, got.GrandTotal.Equal(dec("231")))
}

func TestEmptyRowSet(t *testing.T) {
	got := Compute(voucher.TypeItem, nil, voucher.Header{}, nil)
	require.True(t, got.GrandTotal.IsZero())
	require.True(t, got.Subtotal.IsZero())
	require.Empty(t, got.TaxBreakdown)

	journal := Compute(voucher.TypeJournal, []voucher.Row{}, voucher.Header{}, nil)
	require.True(t, journal.Difference.IsZero())
	require.True(t, journal.Balanced)
}
