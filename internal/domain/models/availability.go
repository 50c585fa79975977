// internal/domain/models/availability.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default weekly pattern used when an availability record is created lazily.
const (
	DefaultSlotStart = "09:00"
	DefaultSlotEnd   = "17:00"
)

// CaregiverAvailability holds one caregiver's calendar inside one agency.
// There is exactly one document per (caregiver_id, agency_id).
type CaregiverAvailability struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CaregiverID primitive.ObjectID `bson:"caregiver_id" json:"caregiver_id"`
	AgencyID    primitive.ObjectID `bson:"agency_id" json:"agency_id"`

	WeeklyPattern []DayAvailability        `bson:"weekly_pattern" json:"weekly_pattern"`
	Overrides     []DateOverride           `bson:"overrides" json:"overrides"`
	Preferences   *AvailabilityPreferences `bson:"preferences,omitempty" json:"preferences,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DayAvailability is one entry of the recurring weekly pattern.
// DayOfWeek follows time.Weekday: 0 = Sunday.
type DayAvailability struct {
	DayOfWeek int        `bson:"day_of_week" json:"day_of_week"`
	Available bool       `bson:"available" json:"available"`
	TimeSlots []TimeSlot `bson:"time_slots" json:"time_slots"`
}

// TimeSlot is a wall-clock window, "HH:MM" to "HH:MM".
type TimeSlot struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// DateOverride replaces the weekly pattern for a single date (YYYY-MM-DD).
type DateOverride struct {
	Date      string     `bson:"date" json:"date"`
	Available bool       `bson:"available" json:"available"`
	Reason    string     `bson:"reason,omitempty" json:"reason,omitempty"`
	TimeSlots []TimeSlot `bson:"time_slots,omitempty" json:"time_slots,omitempty"`
}

// AvailabilityPreferences are advisory; the matcher does not enforce them.
type AvailabilityPreferences struct {
	MaxShiftsPerWeek  int                  `bson:"max_shifts_per_week,omitempty" json:"max_shifts_per_week,omitempty"`
	MaxHoursPerWeek   int                  `bson:"max_hours_per_week,omitempty" json:"max_hours_per_week,omitempty"`
	PreferredElderIDs []primitive.ObjectID `bson:"preferred_elder_ids,omitempty" json:"preferred_elder_ids,omitempty"`
	ExcludedElderIDs  []primitive.ObjectID `bson:"excluded_elder_ids,omitempty" json:"excluded_elder_ids,omitempty"`
}

// DefaultWeeklyPattern returns Monday to Friday 09:00-17:00, weekends off.
func DefaultWeeklyPattern() []DayAvailability {
	days := make([]DayAvailability, 7)
	for d := 0; d < 7; d++ {
		days[d] = DayAvailability{DayOfWeek: d, TimeSlots: []TimeSlot{}}
		if d >= 1 && d <= 5 {
			days[d].Available = true
			days[d].TimeSlots = []TimeSlot{{Start: DefaultSlotStart, End: DefaultSlotEnd}}
		}
	}
	return days
}

// OverrideFor returns the override for date, if any.
func (a CaregiverAvailability) OverrideFor(date string) (DateOverride, bool) {
	for _, o := range a.Overrides {
		if o.Date == date {
			return o, true
		}
	}
	return DateOverride{}, false
}

// Day returns the weekly pattern entry for dayOfWeek, if any.
func (a CaregiverAvailability) Day(dayOfWeek int) (DayAvailability, bool) {
	for _, d := range a.WeeklyPattern {
		if d.DayOfWeek == dayOfWeek {
			return d, true
		}
	}
	return DayAvailability{}, false
}
