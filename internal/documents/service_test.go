package documents

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/vouchergrid/internal/shared"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
	"github.com/odyssey-erp/vouchergrid/internal/workflow"
)

type memorySink struct {
	logs []shared.ApprovalLog
}

func (s *memorySink) Record(_ context.Context, log shared.ApprovalLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func journalPayload(id uuid.UUID) workflow.Payload {
	return workflow.Payload{
		DocumentID:  id,
		VoucherType: voucher.TypeJournal,
		Header:      voucher.Header{Date: time.Now(), Currency: "NPR", ExchangeRate: decimal.NewFromInt(1)},
		Rows: []voucher.Row{
			{Account: voucher.Reference{Code: "1000"}, Debit: decimal.NewFromInt(100)},
			{Account: voucher.Reference{Code: "3000"}, Credit: decimal.NewFromInt(100)},
		},
		Meta: map[string]any{"actor_id": 7},
	}
}

func TestSaveCreatesNormalizedDraft(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &memorySink{}, nil)
	id := uuid.New()

	doc, err := svc.Do(context.Background(), workflow.ActionSave, journalPayload(id))
	require.NoError(t, err)
	require.Equal(t, voucher.StatusDraft, doc.Status)
	require.True(t, doc.Editable)
	require.Empty(t, doc.Number)
	for _, row := range doc.Rows {
		require.NotEqual(t, uuid.Nil, row.ID)
		require.NotNil(t, row.UDF)
	}

	stored, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, doc.Rows, stored.Rows)
}

func TestSubmitNumbersSequentiallyPerType(t *testing.T) {
	repo := NewMemoryRepository()
	sink := &memorySink{}
	svc := NewService(repo, sink, nil)

	first, err := svc.Do(context.Background(), workflow.ActionSubmit, journalPayload(uuid.New()))
	require.NoError(t, err)
	second, err := svc.Do(context.Background(), workflow.ActionSubmit, journalPayload(uuid.New()))
	require.NoError(t, err)

	require.Equal(t, "JV-000001", first.Number)
	require.Equal(t, "JV-000002", second.Number)
	require.Equal(t, voucher.StatusAwaitingApproval, first.Status)
	require.False(t, first.Editable)

	require.Len(t, sink.logs, 2)
	require.Equal(t, shared.ApprovalSubmit, sink.logs[0].Action)
	require.Equal(t, int64(7), sink.logs[0].ActorID)
}

func TestSubmitRejectsUnbalancedJournal(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &memorySink{}, nil)
	id := uuid.New()

	p := journalPayload(id)
	p.Rows[1].Credit = decimal.NewFromInt(90)

	_, err := svc.Do(context.Background(), workflow.ActionSubmit, p)
	var rerr *workflow.RequestError
	require.ErrorAs(t, err, &rerr)
	require.NotEmpty(t, rerr.Errors)

	// the failed transaction leaves nothing behind
	_, err = repo.Get(context.Background(), id)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestApprovalChain(t *testing.T) {
	repo := NewMemoryRepository()
	sink := &memorySink{}
	svc := NewService(repo, sink, nil)
	id := uuid.New()
	p := journalPayload(id)

	_, err := svc.Do(context.Background(), workflow.ActionSubmit, p)
	require.NoError(t, err)

	doc, err := svc.Do(context.Background(), workflow.ActionApprove, p)
	require.NoError(t, err)
	require.Equal(t, voucher.StatusApproved, doc.Status)

	doc, err = svc.Do(context.Background(), workflow.ActionPost, p)
	require.NoError(t, err)
	require.Equal(t, voucher.StatusPosted, doc.Status)

	require.Equal(t, []shared.ApprovalAction{
		shared.ApprovalSubmit, shared.ApprovalApprove, shared.ApprovalPost,
	}, actions(sink))
}

func TestRejectLocksDocument(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &memorySink{}, nil)
	id := uuid.New()
	p := journalPayload(id)

	_, err := svc.Do(context.Background(), workflow.ActionSubmit, p)
	require.NoError(t, err)
	doc, err := svc.Do(context.Background(), workflow.ActionReject, p)
	require.NoError(t, err)
	require.Equal(t, voucher.StatusRejected, doc.Status)
	require.False(t, doc.IsEditable())

	_, err = svc.Do(context.Background(), workflow.ActionSave, p)
	require.ErrorIs(t, err, shared.ErrNotEditable)
}

func TestTransitionFromWrongStatusFails(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &memorySink{}, nil)
	p := journalPayload(uuid.New())

	_, err := svc.Do(context.Background(), workflow.ActionSave, p)
	require.NoError(t, err)

	_, err = svc.Do(context.Background(), workflow.ActionApprove, p)
	var rerr *workflow.RequestError
	require.ErrorAs(t, err, &rerr)
	require.Contains(t, rerr.Message, "expected awaiting_approval")
}

func TestLoadReturnsFreshDraftForUnknownID(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &memorySink{}, nil)
	id := uuid.New()

	doc, err := svc.Load(context.Background(), voucher.TypeItem, id)
	require.NoError(t, err)
	require.Equal(t, id, doc.ID)
	require.Equal(t, voucher.StatusDraft, doc.Status)
	require.Len(t, doc.Rows, 1)
}

func actions(sink *memorySink) []shared.ApprovalAction {
	out := make([]shared.ApprovalAction, len(sink.logs))
	for i, l := range sink.logs {
		out[i] = l.Action
	}
	return out
}
