// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/carecoord/internal/app/store/audit"
	"github.com/dalemusser/carecoord/internal/app/system/apperr"
	"github.com/dalemusser/carecoord/internal/app/system/httpapi"
	"github.com/dalemusser/carecoord/internal/app/system/paging"
	"github.com/dalemusser/carecoord/internal/app/system/timeouts"
)

const dateLayout = "2006-01-02"

type listResponse struct {
	Events []audit.Event `json:"events"`
	paging.Page
}

// ServeList handles GET /agencies/{agencyID}/audit with optional category,
// event_type, user_id, start_date and end_date filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Lookup(), h.Log, "audit log list")
	defer cancel()

	agency, err := h.Agencies.GetByID(ctx, agencyID)
	if err != nil {
		httpapi.Error(w, r, h.Log, apperr.FromStore(err, "agency"))
		return
	}
	if agency.SuperAdminID != actorID {
		httpapi.Error(w, r, h.Log, apperr.Unauthorized("only the agency owner can read its audit log"))
		return
	}

	q := r.URL.Query()
	page := paging.Parse(r)
	filter := audit.QueryFilter{
		AgencyID:  &agencyID,
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
		Limit:     page.Limit(),
		Offset:    page.Offset(),
	}
	userIDs, err := httpapi.QueryIDs(r, "user_id")
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	if len(userIDs) > 0 {
		filter.UserID = &userIDs[0]
	}
	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			httpapi.Error(w, r, h.Log, apperr.Validation("start_date must be YYYY-MM-DD"))
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			httpapi.Error(w, r, h.Log, apperr.Validation("end_date must be YYYY-MM-DD"))
			return
		}
		// end of day
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &end
	}

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		httpapi.Error(w, r, h.Log, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httpapi.OK(w, listResponse{Events: events, Page: page})
}
