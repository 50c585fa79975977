// internal/app/features/availability/handler.go
package availability

import (
	"net/http"

	"github.com/dalemusser/carecoord/internal/app/care/availability"
	"github.com/dalemusser/carecoord/internal/app/system/httpapi"
	"github.com/dalemusser/carecoord/internal/app/system/timeouts"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves caregiver availability endpoints.
type Handler struct {
	Matcher *availability.Matcher
	Log     *zap.Logger
}

// NewHandler creates an availability Handler.
func NewHandler(m *availability.Matcher, logger *zap.Logger) *Handler {
	return &Handler{Matcher: m, Log: logger}
}

type weeklyRequest struct {
	WeeklyPattern []models.DayAvailability `json:"weekly_pattern"`
}

type searchRequest struct {
	CaregiverIDs []primitive.ObjectID `json:"caregiver_ids"`
	Date         string               `json:"date"`
	StartTime    string               `json:"start_time"`
	EndTime      string               `json:"end_time"`
}

// checkResponse reports one availability check. Conflict is set only when
// the caregiver is unavailable.
type checkResponse struct {
	Available bool                   `json:"available"`
	Conflict  *availability.Conflict `json:"conflict,omitempty"`
}

// ServeGet handles GET .../availability.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	agencyID, caregiverID, ok := h.ids(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "get availability")
	defer cancel()

	rec, err := h.Matcher.Get(ctx, caregiverID, agencyID)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, rec)
}

// ServeWeekly handles PUT .../availability/weekly.
func (h *Handler) ServeWeekly(w http.ResponseWriter, r *http.Request) {
	agencyID, caregiverID, actorID, ok := h.write(w, r)
	if !ok {
		return
	}
	var body weeklyRequest
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "set weekly pattern")
	defer cancel()

	days, err := h.Matcher.SetWeeklyPattern(ctx, caregiverID, agencyID, actorID, body.WeeklyPattern)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, weeklyRequest{WeeklyPattern: days})
}

// ServeSetOverride handles PUT .../availability/overrides. The body is one
// date override; an existing override for the same date is replaced.
func (h *Handler) ServeSetOverride(w http.ResponseWriter, r *http.Request) {
	agencyID, caregiverID, actorID, ok := h.write(w, r)
	if !ok {
		return
	}
	var body models.DateOverride
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "set override")
	defer cancel()

	rec, err := h.Matcher.SetOverride(ctx, caregiverID, agencyID, actorID, body)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, rec)
}

// ServeClearOverride handles DELETE .../availability/overrides/{date}.
func (h *Handler) ServeClearOverride(w http.ResponseWriter, r *http.Request) {
	agencyID, caregiverID, actorID, ok := h.write(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "clear override")
	defer cancel()

	rec, err := h.Matcher.ClearOverride(ctx, caregiverID, agencyID, actorID, chi.URLParam(r, "date"))
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, rec)
}

// ServePreferences handles PUT .../availability/preferences.
func (h *Handler) ServePreferences(w http.ResponseWriter, r *http.Request) {
	agencyID, caregiverID, actorID, ok := h.write(w, r)
	if !ok {
		return
	}
	var body models.AvailabilityPreferences
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "set preferences")
	defer cancel()

	if err := h.Matcher.SetPreferences(ctx, caregiverID, agencyID, actorID, body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, body)
}

// ServeCheck handles GET .../availability/check?date=&start=&end=.
func (h *Handler) ServeCheck(w http.ResponseWriter, r *http.Request) {
	agencyID, caregiverID, ok := h.ids(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "check availability")
	defer cancel()

	c, err := h.Matcher.CheckAvailability(ctx, caregiverID, agencyID, q.Get("date"), q.Get("start"), q.Get("end"))
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, checkResponse{Available: c == nil, Conflict: c})
}

// ServeSearch handles POST /agencies/{agencyID}/availability/search and
// returns the candidates free for the window, in request order.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	agencyID, err := httpapi.PathID(r, "agencyID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	var body searchRequest
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "availability search")
	defer cancel()

	free, err := h.Matcher.GetAvailableCaregivers(ctx, body.CaregiverIDs, agencyID, body.Date, body.StartTime, body.EndTime)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, map[string]any{"available_caregiver_ids": free})
}

func (h *Handler) ids(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, primitive.ObjectID, bool) {
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

// write is ids plus the acting user, required on every edit.
func (h *Handler) write(w http.ResponseWriter, r *http.Request) (agencyID, caregiverID, actorID primitive.ObjectID, ok bool) {
	actorID, err := httpapi.Actor(r)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	agencyID, caregiverID, ok = h.ids(w, r)
	return
}
