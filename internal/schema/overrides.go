package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// OverridesFile is the on-disk shape of config-sourced schema overrides,
// keyed by voucher type code.
type OverridesFile struct {
	VoucherTypes map[string]VoucherOverrides `yaml:"voucher_types"`
}

// VoucherOverrides holds column patches and additional columns for one type.
type VoucherOverrides struct {
	Columns map[string]Override `yaml:"columns"`
	Extra   []ExtraColumnDef    `yaml:"extra_columns"`
}

// ExtraColumnDef defines a wholly config-sourced column.
type ExtraColumnDef struct {
	ID        string   `yaml:"id"`
	Label     string   `yaml:"label"`
	Kind      string   `yaml:"kind"`
	Width     int      `yaml:"width"`
	Alignment string   `yaml:"alignment"`
	Reference string   `yaml:"reference"`
	Options   []Option `yaml:"options"`
	Required  bool     `yaml:"required"`
}

// LoadOverrides reads a YAML overrides file. A missing path is not an error;
// it simply yields no overrides.
func LoadOverrides(path string) (*OverridesFile, error) {
	if path == "" {
		return &OverridesFile{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &OverridesFile{}, nil
		}
		return nil, fmt.Errorf("schema: read overrides: %w", err)
	}
	var file OverridesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("schema: parse overrides: %w", err)
	}
	return &file, nil
}

// For returns the overrides and extra columns for one voucher type.
func (f *OverridesFile) For(vt voucher.VoucherType) (map[string]Override, []Column) {
	if f == nil || f.VoucherTypes == nil {
		return nil, nil
	}
	vo, ok := f.VoucherTypes[string(vt)]
	if !ok {
		return nil, nil
	}
	extra := make([]Column, 0, len(vo.Extra))
	for _, def := range vo.Extra {
		kind := Kind(def.Kind)
		if kind == "" {
			kind = KindText
		}
		width := def.Width
		if width == 0 {
			width = defaultUDFWidth
		}
		extra = append(extra, Column{
			ID:        def.ID,
			Label:     def.Label,
			Kind:      kind,
			Width:     width,
			Alignment: def.Alignment,
			Visible:   true,
			Options:   def.Options,
			Reference: voucher.EntityKind(def.Reference),
			Required:  def.Required,
		})
	}
	return vo.Columns, extra
}
