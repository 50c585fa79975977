// internal/app/features/directory/groups.go
package directory

import (
	"net/http"
	"time"

	"github.com/dalemusser/carecoord/internal/app/system/httpapi"
	"github.com/dalemusser/carecoord/internal/app/system/inputval"
	"github.com/dalemusser/carecoord/internal/app/system/timeouts"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createElderRequest struct {
	Name string `json:"name" validate:"required"`
}

type addMemberRequest struct {
	UserID     primitive.ObjectID `json:"user_id" validate:"required"`
	Role       string             `json:"role" validate:"required"`
	Permission string             `json:"permission" validate:"required,oneof=read write"`
}

// ServeGetGroup handles GET /groups/{groupID}.
func (h *Handler) ServeGetGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpapi.PathID(r, "groupID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "get group")
	defer cancel()

	g, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		httpapi.Error(w, r, h.Log, storeErr(err, "group"))
		return
	}
	httpapi.OK(w, g)
}

// ownedGroup loads the group and checks that actorID owns its agency.
func (h *Handler) ownedGroup(r *http.Request, groupID, actorID primitive.ObjectID) (models.Group, error) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "load group")
	defer cancel()

	g, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		return models.Group{}, storeErr(err, "group")
	}
	if _, err := h.ownedAgency(r, g.AgencyID, actorID); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// ServeCreateElder handles POST /groups/{groupID}/elders. The elder takes
// the group's agency.
func (h *Handler) ServeCreateElder(w http.ResponseWriter, r *http.Request) {
	actorID, err := httpapi.Actor(r)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	groupID, err := httpapi.PathID(r, "groupID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	var body createElderRequest
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Struct(body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	g, err := h.ownedGroup(r, groupID, actorID)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "create elder")
	defer cancel()

	e, err := h.Elders.Create(ctx, models.Elder{GroupID: g.ID, AgencyID: g.AgencyID, Name: body.Name})
	if err != nil {
		httpapi.Error(w, r, h.Log, storeErr(err, "elder"))
		return
	}
	httpapi.Created(w, e)
}

// ServeGetElder handles GET /elders/{elderID}.
func (h *Handler) ServeGetElder(w http.ResponseWriter, r *http.Request) {
	elderID, err := httpapi.PathID(r, "elderID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "get elder")
	defer cancel()

	e, err := h.Elders.GetByID(ctx, elderID)
	if err != nil {
		httpapi.Error(w, r, h.Log, storeErr(err, "elder"))
		return
	}
	httpapi.OK(w, e)
}

// ServeAddMember handles POST /groups/{groupID}/members. Owner only.
func (h *Handler) ServeAddMember(w http.ResponseWriter, r *http.Request) {
	actorID, err := httpapi.Actor(r)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	groupID, err := httpapi.PathID(r, "groupID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	var body addMemberRequest
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Struct(body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	g, err := h.ownedGroup(r, groupID, actorID)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "add group member")
	defer cancel()

	if _, err := h.Users.GetByID(ctx, body.UserID); err != nil {
		httpapi.Error(w, r, h.Log, storeErr(err, "user"))
		return
	}
	m := models.GroupMembership{
		GroupID:    g.ID,
		UserID:     body.UserID,
		AgencyID:   g.AgencyID,
		Role:       body.Role,
		Permission: body.Permission,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.Memberships.Add(ctx, m); err != nil {
		httpapi.Error(w, r, h.Log, storeErr(err, "membership"))
		return
	}
	httpapi.Created(w, m)
}

// ServeListMembers handles GET /groups/{groupID}/members.
func (h *Handler) ServeListMembers(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpapi.PathID(r, "groupID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "list group members")
	defer cancel()

	if _, err := h.Groups.GetByID(ctx, groupID); err != nil {
		httpapi.Error(w, r, h.Log, storeErr(err, "group"))
		return
	}
	members, err := h.Memberships.ListByGroup(ctx, groupID)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	if members == nil {
		members = []models.GroupMembership{}
	}
	httpapi.OK(w, members)
}
