package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// Factory opens an engine for a document id, loading or creating the
// document as needed.
type Factory func(ctx context.Context, vt voucher.VoucherType, id uuid.UUID) (*Engine, error)

// Registry keeps one engine per open document so repeated requests hit the
// same state object.
type Registry struct {
	factory Factory

	mu       sync.Mutex
	sessions map[uuid.UUID]*Engine
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{factory: factory, sessions: map[uuid.UUID]*Engine{}}
}

// Acquire returns the open engine for the document, creating it on first
// access.
func (r *Registry) Acquire(ctx context.Context, vt voucher.VoucherType, id uuid.UUID) (*Engine, error) {
	r.mu.Lock()
	if e, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		return e, nil
	}
	r.mu.Unlock()

	// the factory may hit storage; keep the lock released while it runs
	e, err := r.factory(ctx, vt, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[id]; ok {
		return existing, nil
	}
	r.sessions[id] = e
	return e, nil
}

// Release drops the session for a document.
func (r *Registry) Release(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Open reports the number of live sessions.
func (r *Registry) Open() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
