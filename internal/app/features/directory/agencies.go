// internal/app/features/directory/agencies.go
package directory

import (
	"net/http"

	"github.com/dalemusser/carecoord/internal/app/system/apperr"
	"github.com/dalemusser/carecoord/internal/app/system/httpapi"
	"github.com/dalemusser/carecoord/internal/app/system/inputval"
	"github.com/dalemusser/carecoord/internal/app/system/timeouts"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createAgencyRequest struct {
	Name                  string `json:"name" validate:"required"`
	Tier                  string `json:"tier" validate:"required,oneof=family single_agency multi_agency"`
	MaxEldersPerCaregiver int    `json:"max_elders_per_caregiver" validate:"gte=0"`
}

type createGroupRequest struct {
	Name string `json:"name" validate:"required"`
}

// ServeCreateAgency handles POST /agencies. The actor becomes the owner.
func (h *Handler) ServeCreateAgency(w http.ResponseWriter, r *http.Request) {
	actorID, err := httpapi.Actor(r)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	var body createAgencyRequest
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Struct(body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "create agency")
	defer cancel()

	a, err := h.Agencies.Create(ctx, models.Agency{
		Name:                  body.Name,
		SuperAdminID:          actorID,
		MaxEldersPerCaregiver: body.MaxEldersPerCaregiver,
		Subscription:          models.AgencySubscription{Tier: body.Tier, Status: "active"},
	})
	if err != nil {
		httpapi.Error(w, r, h.Log, storeErr(err, "agency"))
		return
	}
	h.Log.Info("agency created", zap.String("agency_id", a.ID.Hex()), zap.String("owner_id", actorID.Hex()))
	httpapi.Created(w, a)
}

// ServeGetAgency handles GET /agencies/{agencyID}.
func (h *Handler) ServeGetAgency(w http.ResponseWriter, r *http.Request) {
	agencyID, err := httpapi.PathID(r, "agencyID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "get agency")
	defer cancel()

	a, err := h.Agencies.GetByID(ctx, agencyID)
	if err != nil {
		httpapi.Error(w, r, h.Log, storeErr(err, "agency"))
		return
	}
	httpapi.OK(w, a)
}

// ServeCreateGroup handles POST /agencies/{agencyID}/groups. Owner only.
func (h *Handler) ServeCreateGroup(w http.ResponseWriter, r *http.Request) {
	actorID, err := httpapi.Actor(r)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	agencyID, err := httpapi.PathID(r, "agencyID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	var body createGroupRequest
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Struct(body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "create group")
	defer cancel()

	if _, err := h.ownedAgency(r, agencyID, actorID); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	g, err := h.Groups.Create(ctx, models.Group{AgencyID: agencyID, Name: body.Name})
	if err != nil {
		httpapi.Error(w, r, h.Log, storeErr(err, "group"))
		return
	}
	httpapi.Created(w, g)
}

// ownedAgency loads the agency and checks that actorID owns it.
func (h *Handler) ownedAgency(r *http.Request, agencyID, actorID primitive.ObjectID) (models.Agency, error) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "load agency")
	defer cancel()

	a, err := h.Agencies.GetByID(ctx, agencyID)
	if err != nil {
		return models.Agency{}, storeErr(err, "agency")
	}
	if a.SuperAdminID != actorID {
		return models.Agency{}, apperr.Unauthorized("only the agency owner can do this")
	}
	return a, nil
}
