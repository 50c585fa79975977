// internal/app/features/primary/handler.go
package primary

import (
	"context"
	"net/http"

	"github.com/dalemusser/carecoord/internal/app/care/primary"
	"github.com/dalemusser/carecoord/internal/app/system/httpapi"
	"github.com/dalemusser/carecoord/internal/app/system/timeouts"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// unknownName is shown when a caregiver's display name cannot be loaded.
const unknownName = "Unknown"

// Names resolves caregiver display names.
type Names interface {
	DisplayName(ctx context.Context, id primitive.ObjectID) (string, error)
}

// Handler serves primary caregiver endpoints.
type Handler struct {
	Registry *primary.Registry
	Names    Names
	Log      *zap.Logger
}

// NewHandler creates a primary caregiver Handler.
func NewHandler(reg *primary.Registry, names Names, logger *zap.Logger) *Handler {
	return &Handler{Registry: reg, Names: names, Log: logger}
}

type setRequest struct {
	CaregiverID primitive.ObjectID `json:"caregiver_id"`
}

// transferRequest names the caregiver the caller expects to replace. Leaving
// from_caregiver_id out transfers from whoever is recorded now.
type transferRequest struct {
	FromCaregiverID *primitive.ObjectID `json:"from_caregiver_id,omitempty"`
	ToCaregiverID   primitive.ObjectID  `json:"to_caregiver_id"`
	Reason          string              `json:"reason,omitempty"`
}

type conflictsRequest struct {
	ElderIDs    []primitive.ObjectID `json:"elder_ids"`
	CaregiverID primitive.ObjectID   `json:"caregiver_id"`
}

func (h *Handler) name(ctx context.Context, id primitive.ObjectID) string {
	if h.Names == nil {
		return unknownName
	}
	n, err := h.Names.DisplayName(ctx, id)
	if err != nil || n == "" {
		return unknownName
	}
	return n
}

// ServeSet handles PUT /elders/{elderID}/primary.
func (h *Handler) ServeSet(w http.ResponseWriter, r *http.Request) {
	actorID, elderID, ok := h.actorElder(w, r)
	if !ok {
		return
	}
	var body setRequest
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "set primary")
	defer cancel()

	ref := models.PrimaryRef{CaregiverID: body.CaregiverID, Name: h.name(ctx, body.CaregiverID)}
	if err := h.Registry.SetPrimary(ctx, elderID, ref, actorID); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, map[string]any{"elder_id": elderID, "caregiver_id": ref.CaregiverID, "caregiver_name": ref.Name})
}

// ServeTransfer handles POST /elders/{elderID}/primary/transfer.
func (h *Handler) ServeTransfer(w http.ResponseWriter, r *http.Request) {
	actorID, elderID, ok := h.actorElder(w, r)
	if !ok {
		return
	}
	var body transferRequest
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "transfer primary")
	defer cancel()

	t := primary.Transfer{
		ElderID: elderID,
		To:      models.PrimaryRef{CaregiverID: body.ToCaregiverID, Name: h.name(ctx, body.ToCaregiverID)},
		Reason:  body.Reason,
	}
	if body.FromCaregiverID != nil {
		t.From = &models.PrimaryRef{CaregiverID: *body.FromCaregiverID, Name: h.name(ctx, *body.FromCaregiverID)}
	}
	if err := h.Registry.TransferPrimary(ctx, t, actorID); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, map[string]any{"elder_id": elderID, "caregiver_id": t.To.CaregiverID, "caregiver_name": t.To.Name})
}

// ServeRemove handles DELETE /elders/{elderID}/primary.
func (h *Handler) ServeRemove(w http.ResponseWriter, r *http.Request) {
	actorID, elderID, ok := h.actorElder(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "remove primary")
	defer cancel()

	removed, err := h.Registry.RemovePrimary(ctx, elderID, actorID)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, map[string]any{"elder_id": elderID, "removed": removed})
}

// ServeHistory handles GET /elders/{elderID}/primary/history.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	elderID, err := httpapi.PathID(r, "elderID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "primary history")
	defer cancel()

	recs, err := h.Registry.History(ctx, elderID)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, recs)
}

// ServeConflicts handles POST /primary/conflicts. It reports which of the
// elders already have a different primary caregiver, without writing.
func (h *Handler) ServeConflicts(w http.ResponseWriter, r *http.Request) {
	var body conflictsRequest
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "primary conflicts")
	defer cancel()

	conflicts, err := h.Registry.CheckConflicts(ctx, body.ElderIDs, body.CaregiverID, h.name(ctx, body.CaregiverID), true)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	if conflicts == nil {
		conflicts = []primary.Conflict{}
	}
	httpapi.OK(w, map[string]any{"conflicts": conflicts})
}

func (h *Handler) actorElder(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, primitive.ObjectID, bool) {
	actorID, err := httpapi.Actor(r)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	elderID, err := httpapi.PathID(r, "elderID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return actorID, elderID, true
}
