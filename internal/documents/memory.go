package documents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/vouchergrid/internal/shared"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// MemoryRepository is the in-memory implementation used by tests.
type MemoryRepository struct {
	mu        sync.Mutex
	docs      map[uuid.UUID]voucher.Document
	sequences map[voucher.VoucherType]int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		docs:      map[uuid.UUID]voucher.Document{},
		sequences: map[voucher.VoucherType]int64{},
	}
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (voucher.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return voucher.Document{}, shared.ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepository) List(_ context.Context, vt voucher.VoucherType, status voucher.Status, limit int) ([]voucher.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []voucher.Document
	for _, doc := range r.docs {
		if vt != "" && doc.Type != vt {
			continue
		}
		if status != "" && doc.Status != status {
			continue
		}
		out = append(out, doc)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// staged copies give transactional semantics: nothing lands on error
	staged := &memoryTx{repo: r, docs: map[uuid.UUID]voucher.Document{}, sequences: map[voucher.VoucherType]int64{}}
	if err := fn(ctx, staged); err != nil {
		return err
	}
	for id, doc := range staged.docs {
		r.docs[id] = doc
	}
	for vt, n := range staged.sequences {
		r.sequences[vt] = n
	}
	return nil
}

type memoryTx struct {
	repo      *MemoryRepository
	docs      map[uuid.UUID]voucher.Document
	sequences map[voucher.VoucherType]int64
}

func (t *memoryTx) Get(_ context.Context, id uuid.UUID) (voucher.Document, error) {
	if doc, ok := t.docs[id]; ok {
		return doc, nil
	}
	doc, ok := t.repo.docs[id]
	if !ok {
		return voucher.Document{}, shared.ErrNotFound
	}
	return doc, nil
}

func (t *memoryTx) Save(_ context.Context, doc voucher.Document) (voucher.Document, error) {
	doc.UpdatedAt = time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = doc.UpdatedAt
	}
	t.docs[doc.ID] = doc
	return doc, nil
}

func (t *memoryTx) NextNumber(_ context.Context, vt voucher.VoucherType, prefix string) (string, error) {
	next, ok := t.sequences[vt]
	if !ok {
		next = t.repo.sequences[vt]
	}
	next++
	t.sequences[vt] = next
	return fmt.Sprintf("%s-%06d", prefix, next), nil
}
