package availability_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/carecoord/internal/app/care/availability"
	"github.com/dalemusser/carecoord/internal/app/system/apperr"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 2025-03-03 is a Monday, 2025-03-08 a Saturday.
const (
	monday   = "2025-03-03"
	saturday = "2025-03-08"
)

func defaultRecord() models.CaregiverAvailability {
	return models.CaregiverAvailability{
		CaregiverID:   primitive.NewObjectID(),
		AgencyID:      primitive.NewObjectID(),
		WeeklyPattern: models.DefaultWeeklyPattern(),
	}
}

func reasonOf(c *availability.Conflict) string {
	if c == nil {
		return ""
	}
	return c.Reason
}

func TestEvaluate(t *testing.T) {
	morning := models.DateOverride{
		Date:      monday,
		Available: true,
		TimeSlots: []models.TimeSlot{{Start: "09:00", End: "12:00"}},
	}
	off := models.DateOverride{Date: monday, Available: false, Reason: "vacation"}
	open := models.DateOverride{Date: saturday, Available: true}

	tests := []struct {
		name      string
		overrides []models.DateOverride
		date      string
		start     string
		end       string
		want      string
	}{
		{"weekday inside default slot", nil, monday, "10:00", "14:00", ""},
		{"exact slot bounds", nil, monday, "09:00", "17:00", ""},
		{"runs past slot end", nil, monday, "16:00", "18:00", availability.ReasonOutsideWeeklySlots},
		{"starts before slot", nil, monday, "08:30", "10:00", availability.ReasonOutsideWeeklySlots},
		{"weekend off by default", nil, saturday, "10:00", "12:00", availability.ReasonDayUnavailable},
		{"override morning fits", []models.DateOverride{morning}, monday, "09:00", "11:00", ""},
		{"override morning afternoon rejected", []models.DateOverride{morning}, monday, "14:00", "16:00", availability.ReasonOutsideOverrideSlots},
		{"override unavailable", []models.DateOverride{off}, monday, "10:00", "11:00", availability.ReasonOverrideUnavailable},
		{"override without slots opens whole day", []models.DateOverride{open}, saturday, "06:00", "23:00", ""},
		{"override for other date ignored", []models.DateOverride{off}, "2025-03-04", "10:00", "11:00", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := defaultRecord()
			rec.Overrides = tt.overrides
			c, err := availability.Evaluate(rec, tt.date, tt.start, tt.end)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got := reasonOf(c); got != tt.want {
				t.Errorf("reason = %q, want %q", got, tt.want)
			}
			if c != nil && (c.CaregiverID != rec.CaregiverID || c.Date != tt.date || c.StartTime != tt.start || c.EndTime != tt.end) {
				t.Errorf("conflict does not echo the request: %+v", c)
			}
		})
	}
}

func TestEvaluate_MultipleSlots(t *testing.T) {
	rec := defaultRecord()
	rec.WeeklyPattern[1].TimeSlots = []models.TimeSlot{
		{Start: "08:00", End: "12:00"},
		{Start: "13:00", End: "18:00"},
	}

	if c, _ := availability.Evaluate(rec, monday, "13:30", "17:30"); c != nil {
		t.Errorf("second slot should fit, got %q", c.Reason)
	}
	// Spanning the lunch gap fits neither slot on its own.
	if c, _ := availability.Evaluate(rec, monday, "11:00", "14:00"); reasonOf(c) != availability.ReasonOutsideWeeklySlots {
		t.Errorf("expected outside_weekly_slots, got %q", reasonOf(c))
	}
}

func TestEvaluate_AvailableDayWithoutSlots(t *testing.T) {
	rec := defaultRecord()
	rec.WeeklyPattern[1].TimeSlots = nil

	c, err := availability.Evaluate(rec, monday, "10:00", "11:00")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if reasonOf(c) != availability.ReasonOutsideWeeklySlots {
		t.Errorf("expected outside_weekly_slots, got %q", reasonOf(c))
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	rec := defaultRecord()
	rec.Overrides = []models.DateOverride{{
		Date:      monday,
		Available: true,
		TimeSlots: []models.TimeSlot{{Start: "09:00", End: "12:00"}},
	}}

	windows := [][2]string{{"09:00", "11:00"}, {"14:00", "16:00"}, {"11:59", "12:00"}}
	for _, w := range windows {
		first, err := availability.Evaluate(rec, monday, w[0], w[1])
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		for i := 0; i < 5; i++ {
			again, err := availability.Evaluate(rec, monday, w[0], w[1])
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if reasonOf(again) != reasonOf(first) {
				t.Fatalf("window %v: run %d gave %q, first gave %q", w, i, reasonOf(again), reasonOf(first))
			}
		}
	}
}

func TestEvaluate_ValidationErrors(t *testing.T) {
	rec := defaultRecord()
	tests := []struct {
		name, date, start, end string
	}{
		{"end before start", monday, "12:00", "10:00"},
		{"zero length", monday, "10:00", "10:00"},
		{"bad start", monday, "10h", "11:00"},
		{"bad minutes", monday, "10:75", "11:00"},
		{"bad date", "2025-13-01", "10:00", "11:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := availability.Evaluate(rec, tt.date, tt.start, tt.end)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}
