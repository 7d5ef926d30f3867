package voucher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CoerceDecimal converts any cell-shaped value to a finite decimal.
// Malformed input coerces to zero; this function never fails.
func CoerceDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return val
	case float64:
		return decimal.NewFromFloat(val)
	case float32:
		return decimal.NewFromFloat32(val)
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(val, ",", ""))
		if s == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	case bool:
		if val {
			return decimal.NewFromInt(1)
		}
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

// CoerceBool converts checkbox-shaped input to a bool. Anything that is not
// recognisably true is false.
func CoerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "true", "yes", "y", "on":
			return true
		}
		return false
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	default:
		return false
	}
}

// CoerceString renders any cell value as display text.
func CoerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case decimal.Decimal:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006", "2006/01/02"}

// CoerceDate parses date-shaped input; unparseable input yields the zero time.
func CoerceDate(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		return time.Time{}
	default:
		return time.Time{}
	}
}

// CoerceReference accepts either a nested {entity_id, code, label} map or a
// bare string (treated as unresolved display text in the code position).
func CoerceReference(v any) Reference {
	switch val := v.(type) {
	case Reference:
		return val
	case map[string]any:
		ref := Reference{
			Code:  CoerceString(firstOf(val, "code")),
			Label: CoerceString(firstOf(val, "label", "name", "display_label")),
		}
		if raw, ok := firstPresent(val, "entity_id", "id"); ok && raw != nil {
			id := CoerceDecimal(raw).IntPart()
			if id != 0 {
				ref.EntityID = &id
			}
		}
		return ref
	case string:
		return Reference{Code: strings.TrimSpace(val)}
	default:
		return Reference{}
	}
}

func firstOf(m map[string]any, keys ...string) any {
	v, _ := firstPresent(m, keys...)
	return v
}

func firstPresent(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}
