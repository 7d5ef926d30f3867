package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/shared"
	"github.com/odyssey-erp/vouchergrid/internal/totals"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// Payload is the full document snapshot sent with every workflow action.
type Payload struct {
	DocumentID  uuid.UUID           `json:"document_id" validate:"required"`
	VoucherType voucher.VoucherType `json:"voucher_type" validate:"required,oneof=journal item"`
	Header      voucher.Header      `json:"header"`
	Rows        []voucher.Row       `json:"rows"`
	UDFDefs     UDFDefs             `json:"udf_defs"`
	Columns     []schema.Column     `json:"columns"`
	Notes       string              `json:"notes"`
	Charges     []voucher.Charge    `json:"charges"`
	Numbering   string              `json:"numbering"`
	Totals      totals.Totals       `json:"totals"`
	Meta        map[string]any      `json:"meta,omitempty"`
}

// UDFDefs carries the user-defined field definitions by scope.
type UDFDefs struct {
	Header []schema.UDFDef `json:"header,omitempty"`
	Line   []schema.UDFDef `json:"line,omitempty"`
}

// FieldError is one server-side validation failure tied to a field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RequestError is a structured failure returned by the endpoint. It is
// surfaced verbatim; local state is never mutated on failure.
type RequestError struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request rejected: %s", e.Message)
}

// Endpoint executes a workflow action server-side and returns the
// authoritative document.
type Endpoint interface {
	Do(ctx context.Context, action Action, p Payload) (voucher.Document, error)
}

// ErrNotAllowed is returned when permissions or the current status forbid
// the requested action.
var ErrNotAllowed = fmt.Errorf("workflow: action not allowed")

// Observer receives the outcome of every endpoint call, for metrics.
type Observer func(action Action, err error)

// Controller serializes workflow actions for one open document. At most one
// action is in flight at a time; concurrent triggers are rejected, not queued.
type Controller struct {
	endpoint Endpoint
	perms    Permissions
	logger   *slog.Logger
	observe  Observer

	mu       sync.Mutex
	inFlight bool
}

func NewController(endpoint Endpoint, perms Permissions, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{endpoint: endpoint, perms: perms, logger: logger}
}

// WithObserver installs the outcome hook. Returns the controller for chaining.
func (c *Controller) WithObserver(fn Observer) *Controller {
	c.observe = fn
	return c
}

// Permissions returns the capability set the controller was built with.
func (c *Controller) Permissions() Permissions { return c.perms }

// InFlight reports whether an action is currently executing.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Allowed reports whether the action could start right now: permission
// granted, valid source status, nothing in flight.
func (c *Controller) Allowed(action Action, doc voucher.Document) bool {
	if !c.perms.Allows(action) || !ValidSource(action, doc) {
		return false
	}
	return !c.InFlight()
}

// Run validates, executes the action against the endpoint, and merges the
// authoritative response into doc. On any error doc is left untouched.
func (c *Controller) Run(ctx context.Context, action Action, doc *voucher.Document, p Payload) error {
	if !c.perms.Allows(action) || !ValidSource(action, *doc) {
		return ErrNotAllowed
	}
	// every transition revalidates locally; only a plain save is exempt
	if action != ActionSave {
		if err := Validate(*doc, p.UDFDefs.Header, p.UDFDefs.Line); err != nil {
			return err
		}
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return shared.ErrActionInFlight
	}
	c.inFlight = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	server, err := c.endpoint.Do(ctx, action, p)
	if c.observe != nil {
		c.observe(action, err)
	}
	if err != nil {
		c.logger.Warn("workflow action failed",
			"action", string(action), "document_id", p.DocumentID, "error", err)
		return err
	}

	Merge(doc, server)
	c.logger.Info("workflow action applied",
		"action", string(action), "document_id", doc.ID, "status", string(doc.Status))
	return nil
}

// Merge overwrites local state with the server's authoritative fields. The
// optimistic local status is never trusted past this point.
func Merge(doc *voucher.Document, server voucher.Document) {
	if server.ID != uuid.Nil {
		doc.ID = server.ID
	}
	doc.Status = server.Status
	doc.Editable = server.Editable
	if server.Number != "" {
		doc.Number = server.Number
	}
	if server.Rows != nil {
		doc.Rows = server.Rows
	}
	if server.Charges != nil {
		doc.Charges = server.Charges
	}
	if !server.UpdatedAt.IsZero() {
		doc.UpdatedAt = server.UpdatedAt
	}
	if server.Meta != nil {
		doc.Meta = server.Meta
	}
}
