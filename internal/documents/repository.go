// Package documents persists voucher documents, assigns their numbers and
// executes the server side of the approval workflow.
package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// Repository encapsulates document storage.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (voucher.Document, error)
	List(ctx context.Context, vt voucher.VoucherType, status voucher.Status, limit int) ([]voucher.Document, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available inside one transaction.
type TxRepository interface {
	Get(ctx context.Context, id uuid.UUID) (voucher.Document, error)
	Save(ctx context.Context, doc voucher.Document) (voucher.Document, error)
	// NextNumber advances the per-voucher-type sequence and renders the
	// document number under the given prefix.
	NextNumber(ctx context.Context, vt voucher.VoucherType, prefix string) (string, error)
}
