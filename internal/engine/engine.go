package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/vouchergrid/internal/grid"
	"github.com/odyssey-erp/vouchergrid/internal/lookup"
	"github.com/odyssey-erp/vouchergrid/internal/masterdata"
	"github.com/odyssey-erp/vouchergrid/internal/prefs"
	"github.com/odyssey-erp/vouchergrid/internal/schema"
	"github.com/odyssey-erp/vouchergrid/internal/totals"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
	"github.com/odyssey-erp/vouchergrid/internal/workflow"
)

// Options wires an engine's collaborators.
type Options struct {
	Document     voucher.Document
	UDFs         workflow.UDFDefs
	Overrides    *schema.OverridesFile
	LineDefaults map[string]any

	Source   lookup.Source
	Master   masterdata.Repository
	Endpoint workflow.Endpoint
	Perms    workflow.Permissions

	Prefs       *prefs.Saver
	RemotePrefs prefs.Store

	Logger         *slog.Logger
	LookupDebounce time.Duration
	StaleDrops     lookup.Counter
	OnWorkflow     workflow.Observer
}

// Engine is the state object for one open document. All access goes through
// Dispatch, which serializes mutations and stamps each result with a version
// so a renderer can discard anything stale.
type Engine struct {
	mu     sync.Mutex
	logger *slog.Logger

	doc      voucher.Document
	tot      totals.Totals
	udfs     workflow.UDFDefs
	defaults map[string]any

	overrides map[string]schema.Override
	extras    []schema.Column
	cols      []schema.Column

	bag   prefs.Bag
	saver *prefs.Saver

	nav        *grid.Navigator
	resolver   *lookup.Resolver
	panel      lookup.Panel
	controller *workflow.Controller
	master     masterdata.Repository

	version uint64
}

// New builds an engine around a loaded document, restoring stored layout
// preferences before the first render.
func New(ctx context.Context, opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		logger:     logger,
		doc:        opts.Document,
		udfs:       opts.UDFs,
		defaults:   opts.LineDefaults,
		saver:      opts.Prefs,
		nav:        grid.NewNavigator(),
		controller: workflow.NewController(opts.Endpoint, opts.Perms, logger).WithObserver(opts.OnWorkflow),
		master:     opts.Master,
	}
	if opts.Overrides != nil {
		e.overrides, e.extras = opts.Overrides.For(opts.Document.Type)
	}
	if opts.Source != nil {
		e.resolver = lookup.NewResolver(opts.Source, logger, opts.LookupDebounce).
			WithStaleCounter(opts.StaleDrops)
	}
	if e.saver != nil {
		bag, ok, err := e.saver.Load(ctx, e.doc.Type, opts.RemotePrefs)
		if err != nil {
			return nil, err
		}
		if ok {
			e.bag = bag
		}
	}
	if err := e.rebuild(); err != nil {
		return nil, err
	}
	e.recompute()
	e.nav.EnsureValid(e.view())
	return e, nil
}

// rebuild merges catalog, UDFs, config overrides and stored preferences into
// the active column list.
func (e *Engine) rebuild() error {
	cols, err := schema.Build(schema.BuildInput{
		VoucherType:  e.doc.Type,
		UDFs:         e.udfs.Line,
		Overrides:    e.overrides,
		ExtraColumns: e.extras,
		Prefs:        e.bag.Columns,
	})
	if err != nil {
		return err
	}
	e.cols = cols
	return nil
}

// recompute refreshes totals; in item mode this also writes line amounts
// back into the rows.
func (e *Engine) recompute() {
	e.tot = totals.Compute(e.doc.Type, e.doc.Rows, e.doc.Header, e.doc.Charges)
}

func (e *Engine) view() grid.View {
	return grid.View{
		Columns: e.cols,
		Visible: grid.VisibleRows(e.doc.Rows, e.cols, e.bag.QuickSearch, e.bag.Filters),
	}
}

// PanelView is the render projection of the lookup panel.
type PanelView struct {
	RowID      uuid.UUID          `json:"row_id"`
	Kind       voucher.EntityKind `json:"kind"`
	Candidates []lookup.Candidate `json:"candidates"`
	Highlight  int                `json:"highlight"`
}

// Snapshot is one consistent render of the whole engine state.
type Snapshot struct {
	Version     uint64               `json:"version"`
	Document    voucher.Document     `json:"document"`
	Totals      totals.Totals        `json:"totals"`
	Columns     []schema.Column      `json:"columns"`
	VisibleRows []int                `json:"visible_rows"`
	Focus       *grid.Focus          `json:"focus,omitempty"`
	Panel       *PanelView           `json:"panel,omitempty"`
	Prefs       prefs.Bag            `json:"prefs"`
	Permissions workflow.Permissions `json:"permissions"`
}

// Snapshot renders the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	v := e.view()
	snap := Snapshot{
		Version:     e.version,
		Document:    e.doc,
		Totals:      e.tot,
		Columns:     e.cols,
		VisibleRows: v.Visible,
		Prefs:       e.bag,
		Permissions: e.controller.Permissions(),
	}
	if focus, ok := e.nav.Focus(); ok {
		f := focus
		snap.Focus = &f
	}
	if e.panel.IsOpen() {
		rowID, kind := e.panel.For()
		snap.Panel = &PanelView{
			RowID:      rowID,
			Kind:       kind,
			Candidates: e.panel.Candidates(),
			Highlight:  e.panel.Highlight(),
		}
	}
	return snap
}

// Version returns the current render version.
func (e *Engine) Version() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// DocumentID identifies the open document.
func (e *Engine) DocumentID() uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.ID
}

// payloadLocked builds the full workflow payload from current state.
func (e *Engine) payloadLocked() workflow.Payload {
	return workflow.Payload{
		DocumentID:  e.doc.ID,
		VoucherType: e.doc.Type,
		Header:      e.doc.Header,
		Rows:        e.doc.Rows,
		UDFDefs:     e.udfs,
		Columns:     e.cols,
		Notes:       e.doc.Notes,
		Charges:     e.doc.Charges,
		Numbering:   schema.NumberingPrefix(e.doc.Type),
		Totals:      e.tot,
		Meta:        e.doc.Meta,
	}
}

// savePrefs persists the preference bag; failures are logged, never fatal to
// the dispatch that triggered them.
func (e *Engine) savePrefs(ctx context.Context) {
	if e.saver == nil {
		return
	}
	if err := e.saver.Save(ctx, e.doc.Type, e.bag); err != nil {
		e.logger.Warn("preference save failed",
			slog.String("voucher_type", string(e.doc.Type)), slog.Any("error", err))
	}
}

// applyLookup lands an asynchronous lookup result: it opens the panel and
// bumps the version so the new candidates render. Called from the resolver's
// timer goroutine.
func (e *Engine) applyLookup(res lookup.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if res.Term == "" {
		e.panel.Close()
	} else {
		e.panel.Open(res)
	}
	e.version++
}
