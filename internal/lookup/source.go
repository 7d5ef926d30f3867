// Package lookup resolves free-text cell input into master-data references
// through debounced, supersedable asynchronous queries.
package lookup

import (
	"context"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// Candidate is one ranked suggestion for a reference cell.
type Candidate struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Source answers free-text reference queries. Implementations rank exact
// code matches first; beyond that no relevance order is assumed.
type Source interface {
	Search(ctx context.Context, kind voucher.EntityKind, term string, limit int) ([]Candidate, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, kind voucher.EntityKind, term string, limit int) ([]Candidate, error)

// Search implements Source.
func (f SourceFunc) Search(ctx context.Context, kind voucher.EntityKind, term string, limit int) ([]Candidate, error) {
	return f(ctx, kind, term, limit)
}
