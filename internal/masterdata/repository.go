package masterdata

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/odyssey-erp/vouchergrid/internal/lookup"
	"github.com/odyssey-erp/vouchergrid/internal/shared"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// Repository is the master-data access contract. Search ranks exact code
// matches ahead of everything else.
type Repository interface {
	Search(ctx context.Context, kind voucher.EntityKind, term string, limit int) ([]lookup.Candidate, error)
	Get(ctx context.Context, kind voucher.EntityKind, id int64) (Entity, error)
	ResolveCode(ctx context.Context, kind voucher.EntityKind, code string) (Entity, error)
	Create(ctx context.Context, e Entity) (Entity, error)
}

// AsSource adapts a repository to the lookup source contract.
func AsSource(repo Repository) lookup.Source {
	return lookup.SourceFunc(repo.Search)
}

// MemoryRepository is the in-memory implementation used by tests and dev
// seeds.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  []Entity
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

func (r *MemoryRepository) Search(_ context.Context, kind voucher.EntityKind, term string, limit int) ([]lookup.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	term = strings.ToLower(strings.TrimSpace(term))

	var out []Entity
	for _, e := range r.items {
		if e.Kind != kind || !e.Active {
			continue
		}
		code := strings.ToLower(e.Code)
		if term == "" || strings.HasPrefix(code, term) ||
			strings.Contains(strings.ToLower(e.Name), term) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ei, ej := strings.ToLower(out[i].Code) == term, strings.ToLower(out[j].Code) == term
		if ei != ej {
			return ei
		}
		return out[i].Code < out[j].Code
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	candidates := make([]lookup.Candidate, len(out))
	for i, e := range out {
		candidates[i] = lookup.Candidate{ID: e.ID, Code: e.Code, Name: e.Name}
	}
	return candidates, nil
}

func (r *MemoryRepository) Get(_ context.Context, kind voucher.EntityKind, id int64) (Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.items {
		if e.Kind == kind && e.ID == id {
			return e, nil
		}
	}
	return Entity{}, shared.ErrNotFound
}

func (r *MemoryRepository) ResolveCode(_ context.Context, kind voucher.EntityKind, code string) (Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.items {
		if e.Kind == kind && strings.EqualFold(e.Code, code) {
			return e, nil
		}
	}
	return Entity{}, shared.ErrNotFound
}

func (r *MemoryRepository) Create(_ context.Context, e Entity) (Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Kind == e.Kind && strings.EqualFold(existing.Code, e.Code) {
			return Entity{}, shared.ErrDuplicate
		}
	}
	e.ID = r.nextID
	r.nextID++
	e.Active = true
	r.items = append(r.items, e)
	return e, nil
}
