package voucher

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Canonical line field ids. Columns beyond this set are user-defined and live
// in the row's UDF map.
const (
	FieldAccount     = "account"
	FieldCostCenter  = "cost_center"
	FieldProject     = "project"
	FieldDepartment  = "department"
	FieldTaxCode     = "tax_code"
	FieldItem        = "item"
	FieldNarration   = "narration"
	FieldDebit       = "debit"
	FieldCredit      = "credit"
	FieldQty         = "qty"
	FieldRate        = "rate"
	FieldDiscountPct = "discount_pct"
	FieldTaxPct      = "tax_pct"
	FieldAmount      = "amount"
)

var referenceFields = map[string]EntityKind{
	FieldAccount:    EntityAccount,
	FieldCostCenter: EntityCostCenter,
	FieldProject:    EntityProject,
	FieldDepartment: EntityDepartment,
	FieldTaxCode:    EntityTaxCode,
}

// ReferenceKind reports the entity kind for a reference-typed field id.
func ReferenceKind(fieldID string) (EntityKind, bool) {
	kind, ok := referenceFields[fieldID]
	return kind, ok
}

// Value returns the row's value for a field id; unknown ids read the UDF map,
// so both access paths work.
func (r *Row) Value(fieldID string) any {
	switch fieldID {
	case FieldAccount:
		return r.Account
	case FieldCostCenter:
		return r.CostCenter
	case FieldProject:
		return r.Project
	case FieldDepartment:
		return r.Department
	case FieldTaxCode:
		return r.TaxCode
	case FieldItem:
		return r.Item
	case FieldNarration:
		return r.Narration
	case FieldDebit:
		return r.Debit
	case FieldCredit:
		return r.Credit
	case FieldQty:
		return r.Qty
	case FieldRate:
		return r.Rate
	case FieldDiscountPct:
		return r.DiscountPct
	case FieldTaxPct:
		return r.TaxPct
	case FieldAmount:
		return r.Amount
	default:
		if r.UDF == nil {
			return nil
		}
		return r.UDF[fieldID]
	}
}

// SetValue writes a coerced value into the row. Unknown ids land in the UDF
// map verbatim.
func (r *Row) SetValue(fieldID string, v any) {
	switch fieldID {
	case FieldAccount:
		r.Account = CoerceReference(v)
	case FieldCostCenter:
		r.CostCenter = CoerceReference(v)
	case FieldProject:
		r.Project = CoerceReference(v)
	case FieldDepartment:
		r.Department = CoerceReference(v)
	case FieldTaxCode:
		r.TaxCode = CoerceReference(v)
	case FieldItem:
		r.Item = CoerceString(v)
	case FieldNarration:
		r.Narration = CoerceString(v)
	case FieldDebit:
		r.Debit = CoerceDecimal(v)
	case FieldCredit:
		r.Credit = CoerceDecimal(v)
	case FieldQty:
		r.Qty = CoerceDecimal(v)
	case FieldRate:
		r.Rate = CoerceDecimal(v)
	case FieldDiscountPct:
		r.DiscountPct = CoerceDecimal(v)
	case FieldTaxPct:
		r.TaxPct = CoerceDecimal(v)
	case FieldAmount:
		r.Amount = CoerceDecimal(v)
	default:
		if r.UDF == nil {
			r.UDF = map[string]any{}
		}
		r.UDF[fieldID] = v
	}
}

// fieldEmpty reports whether the row's current value for a field counts as
// empty for line-default purposes. Defaults never override explicit values.
func (r *Row) fieldEmpty(fieldID string) bool {
	switch v := r.Value(fieldID).(type) {
	case nil:
		return true
	case string:
		return v == ""
	case Reference:
		return v.Empty()
	case decimal.Decimal:
		return v.IsZero()
	default:
		return false
	}
}

// NormalizeRow brings any row into the canonical shape: stable identity,
// non-nil UDF map, and line defaults applied to fields still empty after
// normalization. Idempotent.
func NormalizeRow(r Row, defaults map[string]any) Row {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.UDF == nil {
		r.UDF = map[string]any{}
	}
	r.Item = CoerceString(r.Item)
	r.Narration = CoerceString(r.Narration)
	for field, value := range defaults {
		if r.fieldEmpty(field) {
			r.SetValue(field, value)
		}
	}
	return r
}

// RowFromMap hydrates a canonical row from a loosely typed wire map. Known
// field ids get typed coercion; everything else is kept as a UDF value.
func RowFromMap(fields map[string]any, defaults map[string]any) Row {
	row := Row{UDF: map[string]any{}}
	if raw, ok := fields["id"]; ok {
		if id, err := uuid.Parse(CoerceString(raw)); err == nil {
			row.ID = id
		}
	}
	for key, value := range fields {
		if key == "id" {
			continue
		}
		row.SetValue(key, value)
	}
	return NormalizeRow(row, defaults)
}

// NewBlankRow produces an empty row pre-seeded with line defaults and a
// fresh identifier.
func NewBlankRow(defaults map[string]any) Row {
	return NormalizeRow(Row{}, defaults)
}
