// Package totals computes document totals for both accounting models: the
// balanced double-entry journal and the itemized tax invoice.
package totals

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// balanceTolerance is the maximum journal difference still reported balanced.
var balanceTolerance = decimal.RequireFromString("0.01")

var oneHundred = decimal.NewFromInt(100)

// TaxLine is one row of the per-rate tax breakdown.
type TaxLine struct {
	RatePct decimal.Decimal `json:"rate_pct"`
	Taxable decimal.Decimal `json:"taxable"`
	Tax     decimal.Decimal `json:"tax"`
}

// Totals is the derived, never-stored result of a recompute. Journal fields
// and item fields are mutually exclusive by voucher type.
type Totals struct {
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
	Difference  decimal.Decimal `json:"difference"`
	Balanced    bool            `json:"balanced"`

	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountTotal      decimal.Decimal `json:"discount_total"`
	TaxTotal           decimal.Decimal `json:"tax_total"`
	TaxBreakdown       []TaxLine       `json:"tax_breakdown,omitempty"`
	ChargesTotal       decimal.Decimal `json:"charges_total"`
	RoundingAdjustment decimal.Decimal `json:"rounding_adjustment"`
	GrandTotal         decimal.Decimal `json:"grand_total"`
}

// Compute derives totals for the document. In item mode it also writes each
// line's rounded display amount back onto the row; that annotation is the
// engine's only side effect. An empty row set yields all-zero totals.
func Compute(vt voucher.VoucherType, rows []voucher.Row, header voucher.Header, charges []voucher.Charge) Totals {
	if vt == voucher.TypeItem {
		return computeItem(rows, header, charges)
	}
	return computeJournal(rows)
}

func computeJournal(rows []voucher.Row) Totals {
	var t Totals
	for _, row := range rows {
		t.DebitTotal = t.DebitTotal.Add(row.Debit)
		t.CreditTotal = t.CreditTotal.Add(row.Credit)
	}
	t.Difference = t.DebitTotal.Sub(t.CreditTotal)
	t.Balanced = t.Difference.Abs().LessThan(balanceTolerance)
	return t
}

func computeItem(rows []voucher.Row, header voucher.Header, charges []voucher.Charge) Totals {
	var t Totals
	byRate := map[string]*TaxLine{}

	for i := range rows {
		row := &rows[i]
		lineBase := row.Qty.Mul(row.Rate)
		lineDiscount := lineBase.Mul(row.DiscountPct).Div(oneHundred)
		net := lineBase.Sub(lineDiscount)

		taxable := net
		if header.PricesIncludeTax && !row.TaxPct.IsZero() {
			taxable = net.Div(decimal.NewFromInt(1).Add(row.TaxPct.Div(oneHundred)))
		}
		lineTax := taxable.Mul(row.TaxPct).Div(oneHundred)

		row.Amount = taxable.Add(lineTax).Round(2)

		t.Subtotal = t.Subtotal.Add(taxable)
		t.DiscountTotal = t.DiscountTotal.Add(lineDiscount)
		t.TaxTotal = t.TaxTotal.Add(lineTax)

		if !row.TaxPct.IsZero() {
			key := row.TaxPct.String()
			line, ok := byRate[key]
			if !ok {
				line = &TaxLine{RatePct: row.TaxPct}
				byRate[key] = line
			}
			line.Taxable = line.Taxable.Add(taxable)
			line.Tax = line.Tax.Add(lineTax)
		}
	}

	chargeBase := t.Subtotal.Add(t.TaxTotal)
	for _, charge := range charges {
		amount := charge.Value
		if charge.Mode == voucher.ChargePercent {
			amount = chargeBase.Mul(charge.Value).Div(oneHundred)
		}
		if charge.Sign < 0 {
			amount = amount.Neg()
		}
		t.ChargesTotal = t.ChargesTotal.Add(amount)
	}

	raw := t.Subtotal.Add(t.TaxTotal).Add(t.ChargesTotal)
	t.GrandTotal = raw.Round(2)
	t.RoundingAdjustment = t.GrandTotal.Sub(raw)

	t.TaxBreakdown = make([]TaxLine, 0, len(byRate))
	for _, line := range byRate {
		t.TaxBreakdown = append(t.TaxBreakdown, *line)
	}
	sort.Slice(t.TaxBreakdown, func(i, j int) bool {
		return t.TaxBreakdown[i].RatePct.LessThan(t.TaxBreakdown[j].RatePct)
	})
	return t
}
