package lookup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

// DefaultDebounce is the quiet period between a keystroke and the query.
const DefaultDebounce = 180 * time.Millisecond

// DefaultLimit caps the candidate list size per query.
const DefaultLimit = 10

// Counter is the minimal metric hook the resolver increments for dropped
// stale responses. prometheus.Counter satisfies it.
type Counter interface {
	Inc()
}

// Result is delivered to the apply callback for the winning query only.
type Result struct {
	RowID      uuid.UUID
	Kind       voucher.EntityKind
	Term       string
	Candidates []Candidate
}

type sessionKey struct {
	row  uuid.UUID
	kind voucher.EntityKind
}

type session struct {
	token uint64
	timer *time.Timer
}

// Resolver issues debounced lookups keyed by (row, entity kind). Each
// keystroke bumps a monotonic token; only the response matching the latest
// token is applied, even when responses arrive out of issue order. This is
// the sole ordering guarantee for async work in the engine.
type Resolver struct {
	source     Source
	logger     *slog.Logger
	debounce   time.Duration
	limit      int
	staleDrops Counter

	mu       sync.Mutex
	sessions map[sessionKey]*session
}

// NewResolver constructs a resolver over a source.
func NewResolver(source Source, logger *slog.Logger, debounce time.Duration) *Resolver {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Resolver{
		source:   source,
		logger:   logger,
		debounce: debounce,
		limit:    DefaultLimit,
		sessions: map[sessionKey]*session{},
	}
}

// WithStaleCounter installs a metric incremented per discarded response.
func (r *Resolver) WithStaleCounter(c Counter) *Resolver {
	r.staleDrops = c
	return r
}

// Lookup schedules a debounced query for the row's reference field. The
// apply callback runs for the latest outstanding query only. An empty term
// cancels the session and applies an empty result immediately without
// issuing a request.
func (r *Resolver) Lookup(ctx context.Context, rowID uuid.UUID, kind voucher.EntityKind, term string, apply func(Result)) {
	key := sessionKey{row: rowID, kind: kind}

	r.mu.Lock()
	sess, ok := r.sessions[key]
	if !ok {
		sess = &session{}
		r.sessions[key] = sess
	}
	sess.token++
	token := sess.token
	if sess.timer != nil {
		sess.timer.Stop()
		sess.timer = nil
	}
	if term == "" {
		r.mu.Unlock()
		apply(Result{RowID: rowID, Kind: kind})
		return
	}
	sess.timer = time.AfterFunc(r.debounce, func() {
		r.run(ctx, key, token, term, apply)
	})
	r.mu.Unlock()
}

func (r *Resolver) run(ctx context.Context, key sessionKey, token uint64, term string, apply func(Result)) {
	candidates, err := r.source.Search(ctx, key.kind, term, r.limit)
	if err != nil {
		// lookup failures degrade to an empty panel, never a blocking error
		if r.logger != nil {
			r.logger.Warn("reference lookup failed",
				slog.String("kind", string(key.kind)),
				slog.String("term", term),
				slog.Any("error", err))
		}
		candidates = nil
	}

	r.mu.Lock()
	sess := r.sessions[key]
	if sess == nil || sess.token != token {
		r.mu.Unlock()
		if r.staleDrops != nil {
			r.staleDrops.Inc()
		}
		return
	}
	r.mu.Unlock()

	apply(Result{RowID: key.row, Kind: key.kind, Term: term, Candidates: candidates})
}

// Cancel drops any pending query for the row's field, e.g. when the panel
// closes or the row is deleted.
func (r *Resolver) Cancel(rowID uuid.UUID, kind voucher.EntityKind) {
	key := sessionKey{row: rowID, kind: kind}
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[key]; ok {
		sess.token++
		if sess.timer != nil {
			sess.timer.Stop()
			sess.timer = nil
		}
	}
}
