package schema

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

//go:embed catalog.toml
var catalogTOML string

type catalogFile struct {
	VoucherTypes []voucherTypeDef `toml:"voucher_type"`
}

type voucherTypeDef struct {
	Code            string      `toml:"code"`
	Label           string      `toml:"label"`
	NumberingPrefix string      `toml:"numbering_prefix"`
	Columns         []columnDef `toml:"column"`
}

type columnDef struct {
	ID        string   `toml:"id"`
	Label     string   `toml:"label"`
	Kind      string   `toml:"kind"`
	Reference string   `toml:"reference"`
	Width     int      `toml:"width"`
	Alignment string   `toml:"alignment"`
	Visible   *bool    `toml:"visible"`
	Mandatory bool     `toml:"mandatory"`
	Required  bool     `toml:"required"`
	Options   []Option `toml:"options"`
}

// VoucherTypeInfo describes one catalog entry.
type VoucherTypeInfo struct {
	Code            voucher.VoucherType
	Label           string
	NumberingPrefix string
}

var (
	catalogOnce sync.Once
	catalogData map[voucher.VoucherType]voucherTypeDef
	catalogErr  error
)

func loadCatalog() {
	var file catalogFile
	if _, err := toml.Decode(catalogTOML, &file); err != nil {
		catalogErr = fmt.Errorf("schema: decode catalog: %w", err)
		return
	}
	catalogData = make(map[voucher.VoucherType]voucherTypeDef, len(file.VoucherTypes))
	for _, vt := range file.VoucherTypes {
		catalogData[voucher.VoucherType(vt.Code)] = vt
	}
}

// VoucherTypes lists the catalog entries in declaration order.
func VoucherTypes() ([]VoucherTypeInfo, error) {
	catalogOnce.Do(loadCatalog)
	if catalogErr != nil {
		return nil, catalogErr
	}
	var file catalogFile
	_, _ = toml.Decode(catalogTOML, &file)
	infos := make([]VoucherTypeInfo, 0, len(file.VoucherTypes))
	for _, vt := range file.VoucherTypes {
		infos = append(infos, VoucherTypeInfo{
			Code:            voucher.VoucherType(vt.Code),
			Label:           vt.Label,
			NumberingPrefix: vt.NumberingPrefix,
		})
	}
	return infos, nil
}

// NumberingPrefix returns the document number prefix for a voucher type.
func NumberingPrefix(vt voucher.VoucherType) string {
	catalogOnce.Do(loadCatalog)
	if catalogErr != nil {
		return ""
	}
	return catalogData[vt].NumberingPrefix
}

// BaseColumns returns the fixed base column set for a voucher type.
func BaseColumns(vt voucher.VoucherType) ([]Column, error) {
	catalogOnce.Do(loadCatalog)
	if catalogErr != nil {
		return nil, catalogErr
	}
	def, ok := catalogData[vt]
	if !ok {
		return nil, fmt.Errorf("schema: unknown voucher type %q", vt)
	}
	cols := make([]Column, 0, len(def.Columns))
	for i, cd := range def.Columns {
		visible := true
		if cd.Visible != nil {
			visible = *cd.Visible
		}
		cols = append(cols, Column{
			ID:        cd.ID,
			Label:     cd.Label,
			Kind:      Kind(cd.Kind),
			Width:     cd.Width,
			Alignment: cd.Alignment,
			Visible:   visible,
			Order:     i,
			Options:   cd.Options,
			Reference: voucher.EntityKind(cd.Reference),
			Mandatory: cd.Mandatory,
			Required:  cd.Required,
		})
	}
	return cols, nil
}
