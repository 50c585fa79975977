package availability_test

import (
	"net/http"
	"testing"

	careavail "github.com/dalemusser/carecoord/internal/app/care/availability"
	"github.com/dalemusser/carecoord/internal/app/features/availability"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"github.com/dalemusser/carecoord/internal/testutil"
	"github.com/dalemusser/carecoord/internal/testutil/memstore"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// 2025-03-03 is a Monday, 2025-03-08 a Saturday.

type checkResult struct {
	Available bool                `json:"available"`
	Conflict  *careavail.Conflict `json:"conflict"`
}

func newRouter(db *memstore.DB) chi.Router {
	m := careavail.New(db.Availability, nil, nil, zap.NewNop())
	r := chi.NewRouter()
	r.Group(availability.Routes(availability.NewHandler(m, zap.NewNop())))
	return r
}

func serve(t *testing.T, r chi.Router, method, path string, body any, actor primitive.ObjectID) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, method, path, body, actor))
	return rec
}

func TestGet_CreatesDefault(t *testing.T) {
	db := memstore.New()
	r := newRouter(db)
	agency, caregiver := primitive.NewObjectID(), primitive.NewObjectID()

	rec := serve(t, r, http.MethodGet, "/agencies/"+agency.Hex()+"/caregivers/"+caregiver.Hex()+"/availability", nil, primitive.NilObjectID)
	rec.AssertStatus(t, http.StatusOK)

	var got models.CaregiverAvailability
	rec.DecodeData(t, &got)
	if len(got.WeeklyPattern) != 7 || !got.WeeklyPattern[1].Available || got.WeeklyPattern[0].Available {
		t.Errorf("default pattern = %+v", got.WeeklyPattern)
	}
	if db.Availability.Len() != 1 {
		t.Errorf("expected one stored record, got %d", db.Availability.Len())
	}
}

func TestOverrideThenCheck(t *testing.T) {
	db := memstore.New()
	r := newRouter(db)
	agency, caregiver, actor := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	base := "/agencies/" + agency.Hex() + "/caregivers/" + caregiver.Hex() + "/availability"

	override := models.DateOverride{
		Date:      "2025-03-03",
		Available: true,
		TimeSlots: []models.TimeSlot{{Start: "09:00", End: "12:00"}},
	}
	serve(t, r, http.MethodPut, base+"/overrides", override, actor).AssertStatus(t, http.StatusOK)

	tests := []struct {
		query     string
		available bool
	}{
		{"?date=2025-03-03&start=10:00&end=11:00", true},
		{"?date=2025-03-03&start=13:00&end=14:00", false},
		{"?date=2025-03-04&start=13:00&end=14:00", true},
		{"?date=2025-03-08&start=10:00&end=11:00", false},
	}
	for _, tt := range tests {
		rec := serve(t, r, http.MethodGet, base+"/check"+tt.query, nil, primitive.NilObjectID)
		rec.AssertStatus(t, http.StatusOK)
		var got checkResult
		rec.DecodeData(t, &got)
		if got.Available != tt.available {
			t.Errorf("%s: available = %v, want %v", tt.query, got.Available, tt.available)
		}
		if !got.Available && (got.Conflict == nil || got.Conflict.Reason == "") {
			t.Errorf("%s: unavailable without a reason", tt.query)
		}
	}

	serve(t, r, http.MethodDelete, base+"/overrides/2025-03-03", nil, actor).AssertStatus(t, http.StatusOK)
	rec := serve(t, r, http.MethodGet, base+"/check?date=2025-03-03&start=13:00&end=14:00", nil, primitive.NilObjectID)
	var got checkResult
	rec.DecodeData(t, &got)
	if !got.Available {
		t.Error("clearing the override should restore the weekly pattern")
	}
}

func TestCheck_ValidatesWindow(t *testing.T) {
	r := newRouter(memstore.New())
	base := "/agencies/" + primitive.NewObjectID().Hex() + "/caregivers/" + primitive.NewObjectID().Hex() + "/availability/check"

	for _, q := range []string{"?date=2025-3-3&start=09:00&end=10:00", "?date=2025-03-03&start=10:00&end=09:00", "?date=2025-03-03&start=25:00&end=26:00"} {
		rec := serve(t, r, http.MethodGet, base+q, nil, primitive.NilObjectID)
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}

func TestWrites_RequireActor(t *testing.T) {
	r := newRouter(memstore.New())
	base := "/agencies/" + primitive.NewObjectID().Hex() + "/caregivers/" + primitive.NewObjectID().Hex() + "/availability"

	rec := serve(t, r, http.MethodPut, base+"/weekly", map[string]any{"weekly_pattern": models.DefaultWeeklyPattern()}, primitive.NilObjectID)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestWeeklyAndPreferences(t *testing.T) {
	db := memstore.New()
	r := newRouter(db)
	agency, caregiver, actor := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	base := "/agencies/" + agency.Hex() + "/caregivers/" + caregiver.Hex() + "/availability"

	pattern := models.DefaultWeeklyPattern()
	pattern[6] = models.DayAvailability{DayOfWeek: 6, Available: true, TimeSlots: []models.TimeSlot{{Start: "08:00", End: "12:00"}}}
	serve(t, r, http.MethodPut, base+"/weekly", map[string]any{"weekly_pattern": pattern}, actor).AssertStatus(t, http.StatusOK)

	rec := serve(t, r, http.MethodGet, base+"/check?date=2025-03-08&start=09:00&end=10:00", nil, primitive.NilObjectID)
	var got checkResult
	rec.DecodeData(t, &got)
	if !got.Available {
		t.Error("Saturday slot should be available after pattern update")
	}

	short := map[string]any{"weekly_pattern": pattern[:3]}
	serve(t, r, http.MethodPut, base+"/weekly", short, actor).AssertStatus(t, http.StatusBadRequest)

	serve(t, r, http.MethodPut, base+"/preferences", models.AvailabilityPreferences{MaxShiftsPerWeek: 5}, actor).AssertStatus(t, http.StatusOK)
	serve(t, r, http.MethodPut, base+"/preferences", models.AvailabilityPreferences{MaxHoursPerWeek: -1}, actor).AssertStatus(t, http.StatusBadRequest)
}

func TestSearch(t *testing.T) {
	db := memstore.New()
	r := newRouter(db)
	agency, actor := primitive.NewObjectID(), primitive.NewObjectID()
	busy, free := primitive.NewObjectID(), primitive.NewObjectID()

	off := models.DateOverride{Date: "2025-03-03", Available: false, Reason: "Training"}
	serve(t, r, http.MethodPut, "/agencies/"+agency.Hex()+"/caregivers/"+busy.Hex()+"/availability/overrides", off, actor).AssertStatus(t, http.StatusOK)

	body := map[string]any{
		"caregiver_ids": []primitive.ObjectID{busy, free},
		"date":          "2025-03-03",
		"start_time":    "10:00",
		"end_time":      "11:00",
	}
	rec := serve(t, r, http.MethodPost, "/agencies/"+agency.Hex()+"/availability/search", body, primitive.NilObjectID)
	rec.AssertStatus(t, http.StatusOK)

	var got struct {
		IDs []primitive.ObjectID `json:"available_caregiver_ids"`
	}
	rec.DecodeData(t, &got)
	if len(got.IDs) != 1 || got.IDs[0] != free {
		t.Errorf("available = %v, want [%s]", got.IDs, free.Hex())
	}
}
