// Package engine is the application-state object behind one open voucher:
// it owns the document, schema, focus, lookup session, preferences and
// workflow, and mutates them through a single dispatch entry point.
package engine

import (
	"errors"

	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// CommandKind discriminates dispatchable commands.
type CommandKind string

const (
	CmdEditCell     CommandKind = "edit_cell"
	CmdInsertRow    CommandKind = "insert_row"
	CmdDeleteRow    CommandKind = "delete_row"
	CmdDuplicateRow CommandKind = "duplicate_row"
	CmdMoveRow      CommandKind = "move_row"

	CmdSetFocus  CommandKind = "set_focus"
	CmdMoveFocus CommandKind = "move_focus"

	CmdQuickSearch  CommandKind = "quick_search"
	CmdSetFilter    CommandKind = "set_filter"
	CmdClearFilters CommandKind = "clear_filters"

	CmdLookup       CommandKind = "lookup"
	CmdLookupMove   CommandKind = "lookup_move"
	CmdLookupCommit CommandKind = "lookup_commit"
	CmdLookupCancel CommandKind = "lookup_cancel"

	CmdSetHeader    CommandKind = "set_header"
	CmdSetNotes     CommandKind = "set_notes"
	CmdAddCharge    CommandKind = "add_charge"
	CmdRemoveCharge CommandKind = "remove_charge"

	CmdPaste CommandKind = "paste"

	CmdApplyColumns CommandKind = "apply_columns"
	CmdSetDensity   CommandKind = "set_density"

	CmdSave    CommandKind = "save"
	CmdSubmit  CommandKind = "submit"
	CmdApprove CommandKind = "approve"
	CmdReject  CommandKind = "reject"
	CmdPost    CommandKind = "post"
)

// Command is the wire shape of one dispatch. Only the fields the kind needs
// are read; the rest stay zero.
type Command struct {
	Kind CommandKind `json:"kind" validate:"required"`

	Row   int    `json:"row,omitempty"`
	To    int    `json:"to,omitempty"`
	Col   int    `json:"col,omitempty"`
	Field string `json:"field,omitempty"`
	Value any    `json:"value,omitempty"`

	Term      string `json:"term,omitempty"`
	Text      string `json:"text,omitempty"`
	Delta     int    `json:"delta,omitempty"`
	Direction string `json:"direction,omitempty"`

	Columns []schema.ColumnPref `json:"columns,omitempty"`
	Charge  *voucher.Charge     `json:"charge,omitempty"`
	ID      string              `json:"id,omitempty"`
}

// Focus directions accepted by move_focus.
const (
	DirUp    = "up"
	DirDown  = "down"
	DirLeft  = "left"
	DirRight = "right"
	DirNext  = "next" // Tab: appends a row past the end of the grid
	DirPrev  = "prev"
)

var (
	ErrUnknownCommand = errors.New("engine: unknown command")
	ErrRowOutOfRange  = errors.New("engine: row index out of range")
)
