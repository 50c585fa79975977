// internal/app/features/availability/routes.go
package availability

import "github.com/go-chi/chi/v5"

// Routes registers the availability endpoints on an /api router.
func Routes(h *Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Route("/agencies/{agencyID}/caregivers/{caregiverID}/availability", func(r chi.Router) {
			r.Get("/", h.ServeGet)
			r.Get("/check", h.ServeCheck)
			r.Put("/weekly", h.ServeWeekly)
			r.Put("/overrides", h.ServeSetOverride)
			r.Delete("/overrides/{date}", h.ServeClearOverride)
			r.Put("/preferences", h.ServePreferences)
		})
		r.Post("/agencies/{agencyID}/availability/search", h.ServeSearch)
	}
}
