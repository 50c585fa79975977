// internal/app/features/directory/routes.go
package directory

import "github.com/go-chi/chi/v5"

// Routes registers the directory endpoints on an /api router.
func Routes(h *Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/agencies", h.ServeCreateAgency)
		r.Get("/agencies/{agencyID}", h.ServeGetAgency)
		r.Post("/agencies/{agencyID}/groups", h.ServeCreateGroup)

		r.Get("/groups/{groupID}", h.ServeGetGroup)
		r.Post("/groups/{groupID}/elders", h.ServeCreateElder)
		r.Get("/groups/{groupID}/members", h.ServeListMembers)
		r.Post("/groups/{groupID}/members", h.ServeAddMember)

		r.Get("/elders/{elderID}", h.ServeGetElder)

		r.Post("/users", h.ServeCreateUser)
		r.Get("/users/{userID}", h.ServeGetUser)
	}
}
