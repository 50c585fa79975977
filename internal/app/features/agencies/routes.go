// internal/app/features/agencies/routes.go
package agencies

import "github.com/go-chi/chi/v5"

// Routes registers the agency settings endpoints on an /api router.
func Routes(h *Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/agencies/{agencyID}/owner", h.ServeTransferOwner)
		r.Put("/agencies/{agencyID}/elder-ceiling", h.ServeSetCeiling)
	}
}
