// internal/app/features/agencies/handler.go
package agencies

import (
	"net/http"

	"github.com/dalemusser/carecoord/internal/app/care/agencyadmin"
	"github.com/dalemusser/carecoord/internal/app/system/httpapi"
	"github.com/dalemusser/carecoord/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the owner-only agency settings.
type Handler struct {
	Admin *agencyadmin.Service
	Log   *zap.Logger
}

func NewHandler(admin *agencyadmin.Service, logger *zap.Logger) *Handler {
	return &Handler{Admin: admin, Log: logger}
}

type ownerRequest struct {
	NewOwnerID primitive.ObjectID `json:"new_owner_id"`
}

type ceilingRequest struct {
	MaxEldersPerCaregiver int `json:"max_elders_per_caregiver"`
}

// ServeTransferOwner handles POST /agencies/{agencyID}/owner.
func (h *Handler) ServeTransferOwner(w http.ResponseWriter, r *http.Request) {
	actorID, agencyID, ok := h.actorAgency(w, r)
	if !ok {
		return
	}
	var body ownerRequest
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "transfer agency owner")
	defer cancel()

	if err := h.Admin.TransferOwnership(ctx, agencyID, body.NewOwnerID, actorID); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, map[string]any{"agency_id": agencyID, "super_admin_id": body.NewOwnerID})
}

// ServeSetCeiling handles PUT /agencies/{agencyID}/elder-ceiling.
func (h *Handler) ServeSetCeiling(w http.ResponseWriter, r *http.Request) {
	actorID, agencyID, ok := h.actorAgency(w, r)
	if !ok {
		return
	}
	var body ceilingRequest
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "set elder ceiling")
	defer cancel()

	if err := h.Admin.SetElderCeiling(ctx, agencyID, body.MaxEldersPerCaregiver, actorID); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, map[string]any{"agency_id": agencyID, "max_elders_per_caregiver": body.MaxEldersPerCaregiver})
}

func (h *Handler) actorAgency(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, primitive.ObjectID, bool) {
	actorID, err := httpapi.Actor(r)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	agencyID, err := httpapi.PathID(r, "agencyID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return actorID, agencyID, true
}
