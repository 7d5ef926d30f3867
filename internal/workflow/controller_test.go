package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/vouchergrid/internal/shared"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

type stubEndpoint struct {
	mu      sync.Mutex
	calls   []Action
	respond func(action Action, p Payload) (voucher.Document, error)
	block   chan struct{}
}

func (s *stubEndpoint) Do(_ context.Context, action Action, p Payload) (voucher.Document, error) {
	s.mu.Lock()
	s.calls = append(s.calls, action)
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	return s.respond(action, p)
}

func (s *stubEndpoint) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func allPerms() Permissions {
	return Permissions{Save: true, Submit: true, Approve: true, Reject: true, Post: true}
}

func TestRunMergesAuthoritativeResponse(t *testing.T) {
	doc := balancedJournal()
	ep := &stubEndpoint{respond: func(_ Action, p Payload) (voucher.Document, error) {
		return voucher.Document{
			ID:     p.DocumentID,
			Number: "JV-000042",
			Status: voucher.StatusAwaitingApproval,
		}, nil
	}}
	ctl := NewController(ep, allPerms(), nil)

	err := ctl.Run(context.Background(), ActionSubmit, &doc, Payload{
		DocumentID:  doc.ID,
		VoucherType: doc.Type,
		Rows:        doc.Rows,
	})
	require.NoError(t, err)
	require.Equal(t, voucher.StatusAwaitingApproval, doc.Status)
	require.Equal(t, "JV-000042", doc.Number)
	require.False(t, doc.IsEditable())
}

func TestRunFailureLeavesDocumentUntouched(t *testing.T) {
	doc := balancedJournal()
	before := doc
	ep := &stubEndpoint{respond: func(Action, Payload) (voucher.Document, error) {
		return voucher.Document{}, &RequestError{
			Message: "period closed",
			Errors:  []FieldError{{Field: "header.date", Message: "period 2026-07 is closed"}},
		}
	}}
	ctl := NewController(ep, allPerms(), nil)

	err := ctl.Run(context.Background(), ActionSubmit, &doc, Payload{DocumentID: doc.ID, Rows: doc.Rows})
	var rerr *RequestError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, "period closed", rerr.Message)
	require.Equal(t, before.Status, doc.Status)
	require.Equal(t, before.Number, doc.Number)
}

func TestRunRejectsInvalidSourceStatus(t *testing.T) {
	doc := balancedJournal()
	doc.Status = voucher.StatusPosted
	doc.Editable = false
	ep := &stubEndpoint{respond: func(Action, Payload) (voucher.Document, error) {
		return voucher.Document{}, nil
	}}
	ctl := NewController(ep, allPerms(), nil)

	for _, action := range []Action{ActionSave, ActionSubmit, ActionApprove, ActionReject, ActionPost} {
		require.ErrorIs(t, ctl.Run(context.Background(), action, &doc, Payload{}), ErrNotAllowed)
	}
	require.Zero(t, ep.callCount())
}

func TestRunRejectsWithoutPermission(t *testing.T) {
	doc := balancedJournal()
	doc.Status = voucher.StatusAwaitingApproval
	doc.Editable = false
	ep := &stubEndpoint{respond: func(Action, Payload) (voucher.Document, error) {
		return voucher.Document{}, nil
	}}
	ctl := NewController(ep, Permissions{Save: true, Submit: true}, nil)

	require.ErrorIs(t, ctl.Run(context.Background(), ActionApprove, &doc, Payload{}), ErrNotAllowed)
}

func TestRunSingleActionInFlight(t *testing.T) {
	doc := balancedJournal()
	ep := &stubEndpoint{
		block: make(chan struct{}),
		respond: func(_ Action, p Payload) (voucher.Document, error) {
			return voucher.Document{ID: p.DocumentID, Status: voucher.StatusDraft}, nil
		},
	}
	ctl := NewController(ep, allPerms(), nil)

	first := make(chan error, 1)
	go func() {
		d := doc
		first <- ctl.Run(context.Background(), ActionSave, &d, Payload{DocumentID: doc.ID})
	}()
	require.Eventually(t, ctl.InFlight, time.Second, 5*time.Millisecond)

	second := doc
	err := ctl.Run(context.Background(), ActionSave, &second, Payload{DocumentID: doc.ID})
	require.ErrorIs(t, err, shared.ErrActionInFlight)

	close(ep.block)
	require.NoError(t, <-first)
	require.Equal(t, 1, ep.callCount())
}

func TestRunValidatesEveryTransition(t *testing.T) {
	ep := &stubEndpoint{respond: func(_ Action, p Payload) (voucher.Document, error) {
		return voucher.Document{ID: p.DocumentID, Status: voucher.StatusApproved}, nil
	}}
	ctl := NewController(ep, allPerms(), nil)

	invalid := voucher.NewDocument(voucher.TypeJournal, nil)
	cases := []struct {
		action Action
		status voucher.Status
	}{
		{ActionSubmit, voucher.StatusDraft},
		{ActionApprove, voucher.StatusAwaitingApproval},
		{ActionReject, voucher.StatusAwaitingApproval},
		{ActionPost, voucher.StatusApproved},
	}
	for _, tc := range cases {
		doc := invalid
		doc.Status = tc.status
		doc.Editable = tc.status == voucher.StatusDraft
		err := ctl.Run(context.Background(), tc.action, &doc, Payload{DocumentID: doc.ID})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "action %s", tc.action)
		require.Equal(t, tc.status, doc.Status)
	}
	require.Zero(t, ep.callCount())
}

func TestSaveAllowedOnServerEditableDocument(t *testing.T) {
	doc := balancedJournal()
	doc.Status = voucher.StatusRejected
	doc.Editable = true
	ep := &stubEndpoint{respond: func(_ Action, p Payload) (voucher.Document, error) {
		return voucher.Document{ID: p.DocumentID, Status: voucher.StatusDraft, Editable: true}, nil
	}}
	ctl := NewController(ep, allPerms(), nil)

	require.NoError(t, ctl.Run(context.Background(), ActionSave, &doc, Payload{DocumentID: doc.ID}))
	require.Equal(t, voucher.StatusDraft, doc.Status)
}

func TestMergeKeepsLocalRowsWhenServerOmitsThem(t *testing.T) {
	doc := balancedJournal()
	rows := doc.Rows
	Merge(&doc, voucher.Document{ID: uuid.New(), Status: voucher.StatusApproved})
	require.Equal(t, rows, doc.Rows)
	require.Equal(t, voucher.StatusApproved, doc.Status)
}
