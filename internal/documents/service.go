package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/shared"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
	"github.com/odyssey-erp/vouchergrid/internal/workflow"
)

// ApprovalSink records approval history. *shared.ApprovalRecorder satisfies
// it; tests plug an in-memory sink.
type ApprovalSink interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

const approvalModule = "vouchers"

// AuditSink records non-workflow document events. *shared.AuditLogger
// satisfies it.
type AuditSink interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service is the server side of the workflow: it persists documents, assigns
// numbers on submit and drives the status machine.
type Service struct {
	repo      Repository
	approvals ApprovalSink
	audit     AuditSink
	logger    *slog.Logger
}

func NewService(repo Repository, approvals ApprovalSink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, approvals: approvals, logger: logger}
}

// WithAudit installs the sink that records save events. Returns the service
// for chaining during composition.
func (s *Service) WithAudit(audit AuditSink) *Service {
	s.audit = audit
	return s
}

// Load fetches a document, or a fresh draft when none exists yet.
func (s *Service) Load(ctx context.Context, vt voucher.VoucherType, id uuid.UUID) (voucher.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		doc = voucher.NewDocument(vt, nil)
		doc.ID = id
		return doc, nil
	}
	return doc, err
}

// Do implements workflow.Endpoint. Every action runs in one transaction;
// nothing is persisted when any step fails.
func (s *Service) Do(ctx context.Context, action workflow.Action, p workflow.Payload) (voucher.Document, error) {
	var out voucher.Document
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := s.current(ctx, tx, p)
		if err != nil {
			return err
		}

		switch action {
		case workflow.ActionSave:
			doc, err = s.save(doc, p)
		case workflow.ActionSubmit:
			doc, err = s.submit(ctx, tx, doc, p)
		case workflow.ActionApprove:
			doc, err = s.transition(doc, voucher.StatusAwaitingApproval, voucher.StatusApproved)
		case workflow.ActionReject:
			doc, err = s.transition(doc, voucher.StatusAwaitingApproval, voucher.StatusRejected)
		case workflow.ActionPost:
			doc, err = s.transition(doc, voucher.StatusApproved, voucher.StatusPosted)
		default:
			err = &workflow.RequestError{Message: fmt.Sprintf("unknown action %q", action)}
		}
		if err != nil {
			return err
		}

		doc, err = tx.Save(ctx, doc)
		if err != nil {
			return err
		}
		if err := s.recordApproval(ctx, action, doc, p); err != nil {
			return err
		}
		out = doc
		return nil
	})
	if err != nil {
		return voucher.Document{}, err
	}
	s.recordAudit(ctx, action, out, p)
	s.logger.Info("document action",
		"action", string(action), "document_id", out.ID, "status", string(out.Status), "number", out.Number)
	return out, nil
}

// recordAudit is best effort; a failed audit write never fails the action.
func (s *Service) recordAudit(ctx context.Context, action workflow.Action, doc voucher.Document, p workflow.Payload) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID(p),
		Action:   "voucher." + string(action),
		Entity:   "document",
		EntityID: doc.ID.String(),
		Meta:     map[string]any{"status": string(doc.Status), "number": doc.Number},
		At:       time.Now(),
	})
	if err != nil {
		s.logger.Warn("audit record failed", "document_id", doc.ID, "error", err)
	}
}

// current loads the stored document or starts a new draft for a save.
func (s *Service) current(ctx context.Context, tx TxRepository, p workflow.Payload) (voucher.Document, error) {
	doc, err := tx.Get(ctx, p.DocumentID)
	if errors.Is(err, shared.ErrNotFound) {
		doc = voucher.NewDocument(p.VoucherType, nil)
		doc.ID = p.DocumentID
		doc.Rows = nil
		return doc, nil
	}
	return doc, err
}

func (s *Service) save(doc voucher.Document, p workflow.Payload) (voucher.Document, error) {
	if !doc.IsEditable() {
		return voucher.Document{}, shared.ErrNotEditable
	}
	doc = applyPayload(doc, p)
	// saving an editable non-draft reopens it as a draft
	doc.Status = voucher.StatusDraft
	doc.Editable = true
	return doc, nil
}

func (s *Service) submit(ctx context.Context, tx TxRepository, doc voucher.Document, p workflow.Payload) (voucher.Document, error) {
	if doc.Status != voucher.StatusDraft && !doc.IsEditable() {
		return voucher.Document{}, statusError(doc.Status, voucher.StatusDraft)
	}
	doc = applyPayload(doc, p)

	if err := workflow.Validate(doc, p.UDFDefs.Header, p.UDFDefs.Line); err != nil {
		var verr *workflow.ValidationError
		if errors.As(err, &verr) {
			rerr := &workflow.RequestError{Message: "document failed validation"}
			for _, f := range verr.Failures {
				rerr.Errors = append(rerr.Errors, workflow.FieldError{Field: "document", Message: f})
			}
			return voucher.Document{}, rerr
		}
		return voucher.Document{}, err
	}

	if doc.Number == "" {
		prefix := schema.NumberingPrefix(doc.Type)
		number, err := tx.NextNumber(ctx, doc.Type, prefix)
		if err != nil {
			return voucher.Document{}, err
		}
		doc.Number = number
	}
	doc.Status = voucher.StatusAwaitingApproval
	doc.Editable = false
	return doc, nil
}

func (s *Service) transition(doc voucher.Document, from, to voucher.Status) (voucher.Document, error) {
	if doc.Status != from {
		return voucher.Document{}, statusError(doc.Status, from)
	}
	doc.Status = to
	doc.Editable = false
	return doc, nil
}

func statusError(got, want voucher.Status) error {
	return &workflow.RequestError{
		Message: fmt.Sprintf("document is %s, expected %s", got, want),
	}
}

// applyPayload overlays the client snapshot onto the stored document.
func applyPayload(doc voucher.Document, p workflow.Payload) voucher.Document {
	doc.Type = p.VoucherType
	doc.Header = p.Header
	doc.Notes = p.Notes
	doc.Charges = p.Charges
	if p.Meta != nil {
		doc.Meta = p.Meta
	}
	rows := make([]voucher.Row, 0, len(p.Rows))
	for _, row := range p.Rows {
		rows = append(rows, voucher.NormalizeRow(row, nil))
	}
	doc.Rows = rows
	return doc
}

var approvalActions = map[workflow.Action]shared.ApprovalAction{
	workflow.ActionSubmit:  shared.ApprovalSubmit,
	workflow.ActionApprove: shared.ApprovalApprove,
	workflow.ActionReject:  shared.ApprovalReject,
	workflow.ActionPost:    shared.ApprovalPost,
}

func (s *Service) recordApproval(ctx context.Context, action workflow.Action, doc voucher.Document, p workflow.Payload) error {
	approvalAction, ok := approvalActions[action]
	if !ok || s.approvals == nil {
		return nil
	}
	actor := actorID(p)
	if actor == 0 {
		// anonymous sessions leave no approval trail
		return nil
	}
	return s.approvals.Record(ctx, shared.ApprovalLog{
		Module:  approvalModule,
		RefID:   doc.ID,
		ActorID: actor,
		Action:  approvalAction,
		Note:    p.Notes,
		At:      time.Now(),
	})
}

func actorID(p workflow.Payload) int64 {
	if p.Meta == nil {
		return 0
	}
	return voucher.CoerceDecimal(p.Meta["actor_id"]).IntPart()
}

var _ workflow.Endpoint = (*Service)(nil)
