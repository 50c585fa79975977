// internal/app/features/assignments/routes.go
package assignments

import "github.com/go-chi/chi/v5"

// Routes registers the assignment endpoints on an /api router.
func Routes(h *Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/agencies/{agencyID}/assignments", h.ServeAssign)
		r.Get("/agencies/{agencyID}/caregivers/{caregiverID}/assignments", h.ServeList)
		r.Get("/agencies/{agencyID}/caregivers/{caregiverID}/load", h.ServeLoad)
		r.Delete("/assignments/{assignmentID}", h.ServeRemove)
	}
}
