package workflow

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/totals"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// ValidationError aggregates every failed check. Submission never stops at
// the first failure; the user sees the complete list at once.
type ValidationError struct {
	Failures []string `json:"failures"`
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Failures, "; ")
}

// Validate runs the local pre-submission checks and returns every failure.
// A nil return means the document may be sent to the server.
func Validate(doc voucher.Document, headerUDFs, lineUDFs []schema.UDFDef) error {
	var failures []string

	if doc.Header.Date.IsZero() {
		failures = append(failures, "document date is required")
	}

	populated := 0
	for _, row := range doc.Rows {
		if row.Populated(doc.Type) {
			populated++
		}
	}
	if populated == 0 {
		failures = append(failures, "at least one populated line is required")
	}

	tot := totals.Compute(doc.Type, doc.Rows, doc.Header, doc.Charges)
	if doc.Type == voucher.TypeJournal && !tot.Balanced {
		failures = append(failures,
			fmt.Sprintf("debits and credits differ by %s", tot.Difference.StringFixed(2)))
	}

	for _, def := range headerUDFs {
		if !def.Required {
			continue
		}
		if udfEmpty(doc.Header.UDF[def.ID]) {
			failures = append(failures, fmt.Sprintf("header field %q is required", def.Label))
		}
	}
	for _, def := range lineUDFs {
		if !def.Required {
			continue
		}
		for i, row := range doc.Rows {
			if !row.Populated(doc.Type) {
				continue
			}
			if udfEmpty(row.UDF[def.ID]) {
				failures = append(failures,
					fmt.Sprintf("line %d field %q is required", i+1, def.Label))
			}
		}
	}

	if len(failures) > 0 {
		return &ValidationError{Failures: failures}
	}
	return nil
}

func udfEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}
