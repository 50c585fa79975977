// internal/app/features/primary/routes.go
package primary

import "github.com/go-chi/chi/v5"

// Routes registers the primary caregiver endpoints on an /api router.
func Routes(h *Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Route("/elders/{elderID}/primary", func(r chi.Router) {
			r.Put("/", h.ServeSet)
			r.Delete("/", h.ServeRemove)
			r.Post("/transfer", h.ServeTransfer)
			r.Get("/history", h.ServeHistory)
		})
		r.Post("/primary/conflicts", h.ServeConflicts)
	}
}
