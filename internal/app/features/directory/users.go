// internal/app/features/directory/users.go
package directory

import (
	"net/http"

	"github.com/dalemusser/carecoord/internal/app/system/httpapi"
	"github.com/dalemusser/carecoord/internal/app/system/inputval"
	"github.com/dalemusser/carecoord/internal/app/system/timeouts"
	"github.com/dalemusser/carecoord/internal/domain/models"
)

type createUserRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required"`
}

// ServeCreateUser handles POST /users.
func (h *Handler) ServeCreateUser(w http.ResponseWriter, r *http.Request) {
	var body createUserRequest
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Struct(body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "create user")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{FullName: body.FullName, Email: body.Email, Role: body.Role})
	if err != nil {
		httpapi.Error(w, r, h.Log, storeErr(err, "user"))
		return
	}
	httpapi.Created(w, u)
}

// ServeGetUser handles GET /users/{userID}.
func (h *Handler) ServeGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := httpapi.PathID(r, "userID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "get user")
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		httpapi.Error(w, r, h.Log, storeErr(err, "user"))
		return
	}
	httpapi.OK(w, u)
}
