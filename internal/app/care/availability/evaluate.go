package availability

import (
	"github.com/dalemusser/carecoord/internal/app/system/wallclock"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conflict reasons.
const (
	ReasonOverrideUnavailable  = "override_unavailable"
	ReasonOutsideOverrideSlots = "outside_override_slots"
	ReasonDayUnavailable       = "day_unavailable"
	ReasonOutsideWeeklySlots   = "outside_weekly_slots"
)

// Conflict explains why a caregiver cannot take a window.
type Conflict struct {
	CaregiverID primitive.ObjectID `json:"caregiver_id"`
	Date        string             `json:"date"`
	StartTime   string             `json:"start_time"`
	EndTime     string             `json:"end_time"`
	Reason      string             `json:"reason"`
}

// Evaluate decides whether rec allows [start, end) on date. A date override
// replaces the weekly pattern entirely. It returns nil when the window fits.
func Evaluate(rec models.CaregiverAvailability, date, start, end string) (*Conflict, error) {
	s, e, err := wallclock.ParseRange(start, end)
	if err != nil {
		return nil, err
	}
	dow, err := wallclock.Weekday(date)
	if err != nil {
		return nil, err
	}

	conflict := func(reason string) *Conflict {
		return &Conflict{
			CaregiverID: rec.CaregiverID,
			Date:        date,
			StartTime:   start,
			EndTime:     end,
			Reason:      reason,
		}
	}

	if o, ok := rec.OverrideFor(date); ok {
		switch {
		case !o.Available:
			return conflict(ReasonOverrideUnavailable), nil
		case len(o.TimeSlots) == 0:
			return nil, nil
		case fits(o.TimeSlots, s, e):
			return nil, nil
		default:
			return conflict(ReasonOutsideOverrideSlots), nil
		}
	}

	day, ok := rec.Day(dow)
	if !ok || !day.Available {
		return conflict(ReasonDayUnavailable), nil
	}
	if !fits(day.TimeSlots, s, e) {
		return conflict(ReasonOutsideWeeklySlots), nil
	}
	return nil, nil
}

// fits reports whether some slot contains [s, e). Unparseable slots never match.
func fits(slots []models.TimeSlot, s, e int) bool {
	for _, slot := range slots {
		ss, se, err := wallclock.ParseRange(slot.Start, slot.End)
		if err != nil {
			continue
		}
		if s >= ss && e <= se {
			return true
		}
	}
	return false
}
