// Package schema builds and manages the ordered, typed column list the grid
// renders for a voucher type.
package schema

import "github.com/odyssey-erp/vouchergrid/internal/voucher"

// Kind tags a column with its cell type.
type Kind string

const (
	KindText       Kind = "text"
	KindNumber     Kind = "number"
	KindDate       Kind = "date"
	KindSelect     Kind = "select"
	KindCheckbox   Kind = "checkbox"
	KindCalculated Kind = "calculated"
)

// Option is one choice of a select column.
type Option struct {
	Value string `json:"value" toml:"value" yaml:"value"`
	Label string `json:"label" toml:"label" yaml:"label"`
}

// Column describes one grid column. ID is stable across sessions; order,
// visibility and width are the only user-mutable fields after schema load.
type Column struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Kind      Kind     `json:"kind"`
	Width     int      `json:"width"`
	Alignment string   `json:"alignment"`
	Visible   bool     `json:"visible"`
	Order     int      `json:"order"`
	Options   []Option `json:"options,omitempty"`
	// Reference names the master-data entity a lookup resolves this column
	// against; empty for plain columns.
	Reference voucher.EntityKind `json:"reference,omitempty"`
	// Mandatory columns can be hidden but never removed from the schema.
	Mandatory bool `json:"mandatory"`
	Required  bool `json:"required"`
}

// EditableCell reports whether cells of this column accept input.
func (c Column) EditableCell() bool {
	return c.Kind != KindCalculated
}

// UDFDef is a user-defined field definition, for header or line scope.
type UDFDef struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Kind     Kind     `json:"kind"`
	Options  []Option `json:"options,omitempty"`
	Required bool     `json:"required"`
	Default  any      `json:"default,omitempty"`
}

// ColumnPref is the persisted per-column layout projection.
type ColumnPref struct {
	ID      string `json:"id"`
	Visible bool   `json:"visible"`
	Width   int    `json:"width"`
	Order   *int   `json:"order,omitempty"`
}

// Override is a config-sourced partial column patch; nil fields are left
// untouched on the target column.
type Override struct {
	Label     *string  `json:"label,omitempty" yaml:"label"`
	Kind      *Kind    `json:"kind,omitempty" yaml:"kind"`
	Width     *int     `json:"width,omitempty" yaml:"width"`
	Alignment *string  `json:"alignment,omitempty" yaml:"alignment"`
	Visible   *bool    `json:"visible,omitempty" yaml:"visible"`
	Order     *int     `json:"order,omitempty" yaml:"order"`
	Options   []Option `json:"options,omitempty" yaml:"options"`
	Required  *bool    `json:"required,omitempty" yaml:"required"`
}

func (c *Column) apply(o Override) {
	if o.Label != nil {
		c.Label = *o.Label
	}
	if o.Kind != nil {
		c.Kind = *o.Kind
	}
	if o.Width != nil {
		c.Width = *o.Width
	}
	if o.Alignment != nil {
		c.Alignment = *o.Alignment
	}
	if o.Visible != nil {
		c.Visible = *o.Visible
	}
	if o.Order != nil {
		c.Order = *o.Order
	}
	if o.Options != nil {
		c.Options = o.Options
	}
	if o.Required != nil {
		c.Required = *o.Required
	}
}
