// internal/app/features/assignments/handler.go
package assignments

import (
	"net/http"

	"github.com/dalemusser/carecoord/internal/app/care/assignment"
	"github.com/dalemusser/carecoord/internal/app/system/httpapi"
	"github.com/dalemusser/carecoord/internal/app/system/timeouts"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves caregiver assignment endpoints.
type Handler struct {
	Coord *assignment.Coordinator
	Log   *zap.Logger
}

// NewHandler creates an assignments Handler.
func NewHandler(coord *assignment.Coordinator, logger *zap.Logger) *Handler {
	return &Handler{Coord: coord, Log: logger}
}

// assignRequest is the JSON body for POST /agencies/{agencyID}/assignments.
// The agency comes from the path and the assigner from the actor header.
type assignRequest struct {
	CaregiverID     primitive.ObjectID            `json:"caregiver_id"`
	ElderIDs        []primitive.ObjectID          `json:"elder_ids"`
	GroupID         primitive.ObjectID            `json:"group_id"`
	Role            string                        `json:"role"`
	Permissions     *models.AssignmentPermissions `json:"permissions,omitempty"`
	AssignAsPrimary bool                          `json:"assign_as_primary"`
	ForceTransfer   bool                          `json:"force_transfer"`
}

// ServeAssign handles POST /agencies/{agencyID}/assignments.
//
// 201 with the result when the assignment was created, 409 with the
// conflict list when primary caregivers would be displaced and
// force_transfer was not set.
func (h *Handler) ServeAssign(w http.ResponseWriter, r *http.Request) {
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
	var body assignRequest
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "assign caregiver")
	defer cancel()

	res, err := h.Coord.Assign(ctx, assignment.Request{
		AgencyID:        agencyID,
		CaregiverID:     body.CaregiverID,
		ElderIDs:        body.ElderIDs,
		GroupID:         body.GroupID,
		AssignedBy:      actorID,
		Role:            body.Role,
		Permissions:     body.Permissions,
		AssignAsPrimary: body.AssignAsPrimary,
		ForceTransfer:   body.ForceTransfer,
	})
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	if res.Outcome == assignment.OutcomeConflict {
		httpapi.JSON(w, http.StatusConflict, res)
		return
	}
	httpapi.Created(w, res)
}

// ServeRemove handles DELETE /assignments/{assignmentID}.
func (h *Handler) ServeRemove(w http.ResponseWriter, r *http.Request) {
	actorID, err := httpapi.Actor(r)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	id, err := httpapi.PathID(r, "assignmentID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "remove assignment")
	defer cancel()

	if err := h.Coord.RemoveAssignment(ctx, id, actorID); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, map[string]any{"assignment_id": id, "active": false})
}

// ServeList handles GET /agencies/{agencyID}/caregivers/{caregiverID}/assignments.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	agencyID, caregiverID, ok := h.agencyCaregiver(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "list assignments")
	defer cancel()

	list, err := h.Coord.ListActive(ctx, agencyID, caregiverID)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []models.CaregiverAssignment{}
	}
	httpapi.OK(w, list)
}

// ServeLoad handles GET /agencies/{agencyID}/caregivers/{caregiverID}/load.
func (h *Handler) ServeLoad(w http.ResponseWriter, r *http.Request) {
	agencyID, caregiverID, ok := h.agencyCaregiver(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "caregiver load")
	defer cancel()

	load, err := h.Coord.Load(ctx, agencyID, caregiverID)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, load)
}

func (h *Handler) agencyCaregiver(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, primitive.ObjectID, bool) {
	agencyID, err := httpapi.PathID(r, "agencyID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	caregiverID, err := httpapi.PathID(r, "caregiverID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return agencyID, caregiverID, true
}
