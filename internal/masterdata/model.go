// Package masterdata holds the reference entities voucher cells resolve
// against: accounts, cost centers, projects, departments and tax codes.
package masterdata

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// Entity is one master-data record. TaxRate is only meaningful for tax codes.
type Entity struct {
	ID        int64               `json:"id"`
	Kind      voucher.EntityKind  `json:"kind"`
	Code      string              `json:"code"`
	Name      string              `json:"name"`
	TaxRate   decimal.Decimal     `json:"tax_rate"`
	Active    bool                `json:"active"`
	CreatedAt time.Time           `json:"created_at"`
}

// Kinds lists every entity kind a reference column can point at.
func Kinds() []voucher.EntityKind {
	return []voucher.EntityKind{
		voucher.EntityAccount,
		voucher.EntityCostCenter,
		voucher.EntityProject,
		voucher.EntityDepartment,
		voucher.EntityTaxCode,
	}
}

// ValidKind reports whether kind names a known entity kind.
func ValidKind(kind voucher.EntityKind) bool {
	for _, k := range Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}
