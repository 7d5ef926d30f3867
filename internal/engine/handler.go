package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/vouchergrid/internal/lookup"
	"github.com/odyssey-erp/vouchergrid/internal/masterdata"
	"github.com/odyssey-erp/vouchergrid/internal/platform/httpx"
	"github.com/odyssey-erp/vouchergrid/internal/prefs"
	"github.com/odyssey-erp/vouchergrid/internal/shared"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
	"github.com/odyssey-erp/vouchergrid/internal/workflow"
)

// Handler exposes the engine over HTTP.
type Handler struct {
	logger    *slog.Logger
	registry  *Registry
	master    masterdata.Repository
	prefs     *prefs.Saver
	remote    prefs.Store
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, registry *Registry, master masterdata.Repository, saver *prefs.Saver, remote prefs.Store) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		registry:  registry,
		master:    master,
		prefs:     saver,
		remote:    remote,
		validator: validator.New(),
	}
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Engine, bool) {
	vt := voucher.VoucherType(chi.URLParam(r, "type"))
	if vt != voucher.TypeJournal && vt != voucher.TypeItem {
		httpx.Problem(w, http.StatusNotFound, "Unknown Voucher Type", string(vt))
		return nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Document ID", err.Error())
		return nil, false
	}
	e, err := h.registry.Acquire(r.Context(), vt, id)
	if err != nil {
		h.logger.Error("open session", slog.Any("error", err))
		h.respondError(w, err)
		return nil, false
	}
	return e, true
}

// Load opens (or resumes) a session and renders the current snapshot.
func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, e.Snapshot())
}

// Dispatch applies one command to the session.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	var cmd Command
	if err := httpx.DecodeJSON(r, &cmd); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Command", err.Error())
		return
	}
	if err := h.validator.Struct(cmd); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Command", err.Error())
		return
	}
	snap, err := e.Dispatch(r.Context(), cmd)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

// Close releases the session without persisting anything extra.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Document ID", err.Error())
		return
	}
	h.registry.Release(id)
	w.WriteHeader(http.StatusNoContent)
}

// ExportCSV streams the grid as CSV.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "voucher.csv"))
	if err := e.ExportCSV(w); err != nil {
		h.logger.Error("export csv", slog.Any("error", err))
	}
}

// ExportXLSX streams the grid as a workbook.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "voucher.xlsx"))
	if err := e.ExportXLSX(w); err != nil {
		h.logger.Error("export xlsx", slog.Any("error", err))
	}
}

// ImportCSV appends rows parsed from the request body.
func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	e, ok := h.session(w, r)
	if !ok {
		return
	}
	snap, err := e.ImportCSV(r.Body)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

// Lookup answers a direct candidate query, outside any grid session.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	kind := voucher.EntityKind(chi.URLParam(r, "kind"))
	if !masterdata.ValidKind(kind) {
		httpx.Problem(w, http.StatusNotFound, "Unknown Entity Kind", string(kind))
		return
	}
	limit := lookup.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	candidates, err := h.master.Search(r.Context(), kind, r.URL.Query().Get("term"), limit)
	if err != nil {
		h.logger.Error("lookup", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

// GetPrefs returns the stored layout bag for a voucher type.
func (h *Handler) GetPrefs(w http.ResponseWriter, r *http.Request) {
	vt := voucher.VoucherType(chi.URLParam(r, "type"))
	bag, ok, err := h.prefs.Load(r.Context(), vt, h.remote)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !ok {
		httpx.JSON(w, http.StatusOK, prefs.Bag{})
		return
	}
	httpx.JSON(w, http.StatusOK, bag)
}

// PutPrefs overwrites the stored layout bag for a voucher type.
func (h *Handler) PutPrefs(w http.ResponseWriter, r *http.Request) {
	vt := voucher.VoucherType(chi.URLParam(r, "type"))
	var bag prefs.Bag
	if err := httpx.DecodeJSON(r, &bag); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Preferences", err.Error())
		return
	}
	if err := h.prefs.Save(r.Context(), vt, bag); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondError maps domain errors onto problem responses. Validation and
// request failures keep their structured detail.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var verr *workflow.ValidationError
	if errors.As(err, &verr) {
		httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
			"title":    "Validation Failed",
			"status":   http.StatusUnprocessableEntity,
			"failures": verr.Failures,
		})
		return
	}
	var rerr *workflow.RequestError
	if errors.As(err, &rerr) {
		httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
			"title":  "Request Rejected",
			"status": http.StatusUnprocessableEntity,
			"detail": rerr.Message,
			"errors": rerr.Errors,
		})
		return
	}
	switch {
	case errors.Is(err, workflow.ErrNotAllowed):
		httpx.Problem(w, http.StatusForbidden, "Not Allowed", err.Error())
	case errors.Is(err, shared.ErrActionInFlight):
		httpx.Problem(w, http.StatusConflict, "Action In Flight", err.Error())
	case errors.Is(err, shared.ErrNotEditable):
		httpx.Problem(w, http.StatusConflict, "Not Editable", err.Error())
	case errors.Is(err, ErrRowOutOfRange), errors.Is(err, ErrUnknownCommand):
		httpx.Problem(w, http.StatusBadRequest, "Bad Command", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
