package voucher

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherType selects the accounting model a document follows.
type VoucherType string

const (
	// TypeJournal is the balanced double-entry model.
	TypeJournal VoucherType = "journal"
	// TypeItem is the itemized tax invoice model.
	TypeItem VoucherType = "item"
)

// Status enumerates the document lifecycle.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusPosted           Status = "posted"
)

// EntityKind names a master-data entity a reference cell resolves against.
type EntityKind string

const (
	EntityAccount    EntityKind = "account"
	EntityCostCenter EntityKind = "cost_center"
	EntityProject    EntityKind = "project"
	EntityDepartment EntityKind = "department"
	EntityTaxCode    EntityKind = "tax_code"
)

// Reference is a resolved (or pending) master-data link. All fields may be
// empty before the lookup resolves free text into an entity.
type Reference struct {
	EntityID *int64 `json:"entity_id"`
	Code     string `json:"code"`
	Label    string `json:"label"`
}

// Empty reports whether the reference carries no resolved entity and no text.
func (r Reference) Empty() bool {
	return r.EntityID == nil && r.Code == "" && r.Label == ""
}

// Row is one transaction line. Identity is positional-independent; numeric
// fields are always finite decimals (coercion happens at the boundary).
type Row struct {
	ID          uuid.UUID       `json:"id"`
	Account     Reference       `json:"account"`
	CostCenter  Reference       `json:"cost_center"`
	Project     Reference       `json:"project"`
	Department  Reference       `json:"department"`
	TaxCode     Reference       `json:"tax_code"`
	Item        string          `json:"item"`
	Narration   string          `json:"narration"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Qty         decimal.Decimal `json:"qty"`
	Rate        decimal.Decimal `json:"rate"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	TaxPct      decimal.Decimal `json:"tax_pct"`
	// Amount is the displayed line amount; the totals engine writes it back
	// after each recompute in item mode.
	Amount decimal.Decimal `json:"amount"`
	UDF    map[string]any  `json:"udf"`
}

// PaymentTerm is the header's payment-term snapshot.
type PaymentTerm struct {
	TermID          int64           `json:"term_id"`
	DueDate         time.Time       `json:"due_date"`
	DiscountDueDate time.Time       `json:"discount_due_date"`
	DiscountPct     decimal.Decimal `json:"discount_pct"`
}

// Header holds the document-level fields.
type Header struct {
	Date             time.Time       `json:"date"`
	Currency         string          `json:"currency"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate"`
	BranchID         *int64          `json:"branch_id"`
	Reference        string          `json:"reference"`
	Description      string          `json:"description"`
	PricesIncludeTax bool            `json:"prices_include_tax"`
	Term             *PaymentTerm    `json:"term,omitempty"`
	UDF              map[string]any  `json:"udf"`
}

// ChargeMode selects how a charge value is interpreted.
type ChargeMode string

const (
	// ChargeAmount applies the value as an absolute amount.
	ChargeAmount ChargeMode = "amount"
	// ChargePercent applies the value as a percentage of subtotal plus tax.
	ChargePercent ChargeMode = "percent"
)

// Charge is a post-tax adjustment with a sign.
type Charge struct {
	ID    string          `json:"id"`
	Label string          `json:"label"`
	Mode  ChargeMode      `json:"mode"`
	Value decimal.Decimal `json:"value"`
	Sign  int             `json:"sign"`
}

// Attachment is an uploaded file linked to the document. Transport of the
// file body is a collaborator concern; only the link is modelled here.
type Attachment struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	URL  string    `json:"url"`
}

// Document is one voucher being authored.
type Document struct {
	ID          uuid.UUID      `json:"id"`
	Number      string         `json:"number"`
	Type        VoucherType    `json:"type"`
	Status      Status         `json:"status"`
	Editable    bool           `json:"editable"`
	Header      Header         `json:"header"`
	Rows        []Row          `json:"rows"`
	Charges     []Charge       `json:"charges"`
	Notes       string         `json:"notes"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewDocument returns a fresh draft with one blank row.
func NewDocument(vt VoucherType, defaults map[string]any) Document {
	now := time.Now()
	return Document{
		ID:       uuid.New(),
		Type:     vt,
		Status:   StatusDraft,
		Editable: true,
		Header: Header{
			Date:         now,
			ExchangeRate: decimal.NewFromInt(1),
			UDF:          map[string]any{},
		},
		Rows:      []Row{NewBlankRow(defaults)},
		Meta:      map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsEditable reports whether mutating actions are allowed. Drafts are always
// editable; anything else only when the server marked it so.
func (d Document) IsEditable() bool {
	return d.Status == StatusDraft || d.Editable
}

// Populated reports whether the row carries enough data to count as a line
// for validation purposes.
func (r Row) Populated(vt VoucherType) bool {
	switch vt {
	case TypeItem:
		return r.Item != "" || !r.Qty.IsZero() || !r.Rate.IsZero()
	default:
		return !r.Account.Empty() || !r.Debit.IsZero() || !r.Credit.IsZero()
	}
}

// Ref returns a pointer to the reference field for the given entity kind,
// or nil when the row has no such field.
func (r *Row) Ref(kind EntityKind) *Reference {
	switch kind {
	case EntityAccount:
		return &r.Account
	case EntityCostCenter:
		return &r.CostCenter
	case EntityProject:
		return &r.Project
	case EntityDepartment:
		return &r.Department
	case EntityTaxCode:
		return &r.TaxCode
	}
	return nil
}
