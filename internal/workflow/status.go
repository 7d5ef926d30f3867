// Package workflow drives voucher documents through the approval lifecycle
// and reconciles the server's authoritative answer back into local state.
package workflow

import "github.com/odyssey-erp/vouchergrid/internal/voucher"

// Action enumerates the workflow transitions a user can trigger.
type Action string

const (
	ActionSave    Action = "save"
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionPost    Action = "post"
)

// sourceStatuses maps each action to the statuses it may start from.
// Rejected is terminal here; re-opening is a server decision reflected by a
// fresh editable flag on reload.
var sourceStatuses = map[Action][]voucher.Status{
	ActionSave:    {voucher.StatusDraft},
	ActionSubmit:  {voucher.StatusDraft},
	ActionApprove: {voucher.StatusAwaitingApproval},
	ActionReject:  {voucher.StatusAwaitingApproval},
	ActionPost:    {voucher.StatusApproved},
}

// ValidSource reports whether the document's status permits the action.
// A server-granted editable flag extends save to non-draft documents.
func ValidSource(action Action, doc voucher.Document) bool {
	if action == ActionSave && doc.IsEditable() {
		return true
	}
	for _, s := range sourceStatuses[action] {
		if doc.Status == s {
			return true
		}
	}
	return false
}

// Permissions are the caller's granted workflow capabilities.
type Permissions struct {
	Save    bool `json:"save"`
	Submit  bool `json:"submit"`
	Approve bool `json:"approve"`
	Reject  bool `json:"reject"`
	Post    bool `json:"post"`
}

// Allows reports whether the permission set covers the action.
func (p Permissions) Allows(action Action) bool {
	switch action {
	case ActionSave:
		return p.Save
	case ActionSubmit:
		return p.Submit
	case ActionApprove:
		return p.Approve
	case ActionReject:
		return p.Reject
	case ActionPost:
		return p.Post
	}
	return false
}
