// internal/app/features/schedule/routes.go
package schedule

import "github.com/go-chi/chi/v5"

// Routes registers the shift and week-copy endpoints on an /api router.
func Routes(h *Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/agencies/{agencyID}/shifts", h.ServeList)
		r.Post("/agencies/{agencyID}/shifts", h.ServeCreate)
		r.Post("/shifts/{shiftID}/cancel", h.ServeCancel)
		r.Post("/agencies/{agencyID}/schedule/copy-week", h.ServeCopyWeek)
		r.Get("/agencies/{agencyID}/schedule/copy-preview", h.ServeCopyPreview)
	}
}
