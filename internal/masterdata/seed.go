package masterdata

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// Seed loads a small development data set. Duplicate codes are skipped so
// re-seeding an existing store is harmless.
func Seed(ctx context.Context, repo Repository) error {
	entities := []Entity{
		{Kind: voucher.EntityAccount, Code: "1000", Name: "Cash"},
		{Kind: voucher.EntityAccount, Code: "1100", Name: "Bank"},
		{Kind: voucher.EntityAccount, Code: "1200", Name: "Accounts Receivable"},
		{Kind: voucher.EntityAccount, Code: "2000", Name: "Accounts Payable"},
		{Kind: voucher.EntityAccount, Code: "3000", Name: "Share Capital"},
		{Kind: voucher.EntityAccount, Code: "4000", Name: "Sales Revenue"},
		{Kind: voucher.EntityAccount, Code: "5000", Name: "Cost of Goods Sold"},
		{Kind: voucher.EntityCostCenter, Code: "CC-OPS", Name: "Operations"},
		{Kind: voucher.EntityCostCenter, Code: "CC-SLS", Name: "Sales"},
		{Kind: voucher.EntityProject, Code: "PRJ-01", Name: "Head Office Fitout"},
		{Kind: voucher.EntityDepartment, Code: "FIN", Name: "Finance"},
		{Kind: voucher.EntityDepartment, Code: "WH", Name: "Warehouse"},
		{Kind: voucher.EntityTaxCode, Code: "VAT13", Name: "VAT 13%", TaxRate: decimal.NewFromInt(13)},
		{Kind: voucher.EntityTaxCode, Code: "VAT0", Name: "Zero Rated"},
	}
	for _, e := range entities {
		if _, err := repo.Create(ctx, e); err != nil {
			if _, lookupErr := repo.ResolveCode(ctx, e.Kind, e.Code); lookupErr == nil {
				continue
			}
			return err
		}
	}
	return nil
}
