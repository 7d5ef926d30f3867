// Package prefs persists per-voucher-type grid layout preferences: durable
// locally, pushed to the remote store best-effort.
package prefs

import (
	"context"

	"github.com/odyssey-erp/vouchergrid/internal/grid"
	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// Bag is the opaque preference payload for one voucher type. The engine
// treats it as a merge source, never as schema-authoritative.
type Bag struct {
	Columns       []schema.ColumnPref `json:"columns,omitempty"`
	Density       string              `json:"density,omitempty"`
	FrozenColumns int                 `json:"frozen_columns,omitempty"`
	Filters       []grid.Filter       `json:"filters,omitempty"`
	QuickSearch   string              `json:"quick_search,omitempty"`
	Collapsed     map[string]bool     `json:"collapsed,omitempty"`
}

// Store persists preference bags keyed by voucher type.
type Store interface {
	Load(ctx context.Context, vt voucher.VoucherType) (Bag, bool, error)
	Save(ctx context.Context, vt voucher.VoucherType, bag Bag) error
}
