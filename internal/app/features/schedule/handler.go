// internal/app/features/schedule/handler.go
package schedule

import (
	"net/http"

	"github.com/dalemusser/carecoord/internal/app/care/shiftplan"
	"github.com/dalemusser/carecoord/internal/app/care/weekcopy"
	"github.com/dalemusser/carecoord/internal/app/system/httpapi"
	"github.com/dalemusser/carecoord/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves shift and week-copy endpoints.
type Handler struct {
	Planner *shiftplan.Planner
	Weeks   *weekcopy.Scheduler
	Log     *zap.Logger
}

// NewHandler creates a schedule Handler.
func NewHandler(planner *shiftplan.Planner, weeks *weekcopy.Scheduler, logger *zap.Logger) *Handler {
	return &Handler{Planner: planner, Weeks: weeks, Log: logger}
}

type createShiftRequest struct {
	ElderID     primitive.ObjectID  `json:"elder_id"`
	CaregiverID *primitive.ObjectID `json:"caregiver_id,omitempty"`
	Date        string              `json:"date"`
	StartTime   string              `json:"start_time"`
	EndTime     string              `json:"end_time"`
	Notes       string              `json:"notes,omitempty"`
}

// copyWeekRequest options default to true when omitted.
type copyWeekRequest struct {
	SourceWeekStart string `json:"source_week_start"`
	TargetWeekStart string `json:"target_week_start"`
	CopyAssignments *bool  `json:"copy_assignments,omitempty"`
	SkipExisting    *bool  `json:"skip_existing,omitempty"`
}

// ServeCreate handles POST /agencies/{agencyID}/shifts.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
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
	var body createShiftRequest
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "create shift")
	defer cancel()

	sh, err := h.Planner.CreateShift(ctx, shiftplan.CreateRequest{
		AgencyID:    agencyID,
		ElderID:     body.ElderID,
		CaregiverID: body.CaregiverID,
		Date:        body.Date,
		StartTime:   body.StartTime,
		EndTime:     body.EndTime,
		Notes:       body.Notes,
		CreatedBy:   actorID,
	})
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.Created(w, sh)
}

// ServeList handles GET /agencies/{agencyID}/shifts?from=&to=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	agencyID, err := httpapi.PathID(r, "agencyID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	q := r.URL.Query()
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "list shifts")
	defer cancel()

	list, err := h.Planner.ListShifts(ctx, agencyID, q.Get("from"), q.Get("to"))
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, list)
}

// ServeCancel handles POST /shifts/{shiftID}/cancel.
func (h *Handler) ServeCancel(w http.ResponseWriter, r *http.Request) {
	actorID, err := httpapi.Actor(r)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	id, err := httpapi.PathID(r, "shiftID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Write(), h.Log, "cancel shift")
	defer cancel()

	sh, err := h.Planner.CancelShift(ctx, id, actorID)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, sh)
}

// ServeCopyWeek handles POST /agencies/{agencyID}/schedule/copy-week.
func (h *Handler) ServeCopyWeek(w http.ResponseWriter, r *http.Request) {
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
	var body copyWeekRequest
	if err := httpapi.Decode(r, &body); err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	opts := weekcopy.DefaultOptions()
	if body.CopyAssignments != nil {
		opts.CopyAssignments = *body.CopyAssignments
	}
	if body.SkipExisting != nil {
		opts.SkipExisting = *body.SkipExisting
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "copy week")
	defer cancel()

	res, err := h.Weeks.CopyWeekSchedule(ctx, agencyID, body.SourceWeekStart, body.TargetWeekStart, actorID, opts)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, res)
}

// ServeCopyPreview handles GET /agencies/{agencyID}/schedule/copy-preview?source=&target=.
func (h *Handler) ServeCopyPreview(w http.ResponseWriter, r *http.Request) {
	agencyID, err := httpapi.PathID(r, "agencyID")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	q := r.URL.Query()
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "copy preview")
	defer cancel()

	p, err := h.Weeks.GetCopyPreview(ctx, agencyID, q.Get("source"), q.Get("target"))
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	httpapi.OK(w, p)
}
