package engine

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the engine endpoints. Lookups get their own tighter
// rate limit since every keystroke can reach them.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/vouchers/{type}/{id}", func(r chi.Router) {
		r.Get("/", h.Load)
		r.Post("/dispatch", h.Dispatch)
		r.Delete("/", h.Close)
		r.Get("/export.csv", h.ExportCSV)
		r.Get("/export.xlsx", h.ExportXLSX)
		r.Post("/import", h.ImportCSV)
	})

	r.Route("/lookup/{kind}", func(r chi.Router) {
		r.Use(httprate.Limit(120, time.Minute, httprate.WithKeyFuncs(func(req *http.Request) (string, error) {
			return req.RemoteAddr, nil
		})))
		r.Get("/", h.Lookup)
	})

	r.Route("/prefs/{type}", func(r chi.Router) {
		r.Get("/", h.GetPrefs)
		r.Put("/", h.PutPrefs)
	})
}
