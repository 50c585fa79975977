// internal/app/features/auditlog/routes.go
package auditlog

import "github.com/go-chi/chi/v5"

// Routes registers the audit log endpoint on an /api router.
func Routes(h *Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/agencies/{agencyID}/audit", h.ServeList)
	}
}
