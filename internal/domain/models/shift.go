// internal/domain/models/shift.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shift statuses.
const (
	ShiftScheduled  = "scheduled"
	ShiftConfirmed  = "confirmed"
	ShiftInProgress = "in_progress"
	ShiftCompleted  = "completed"
	ShiftCancelled  = "cancelled"
	ShiftNoShow     = "no_show"
	ShiftUnfilled   = "unfilled"
)

// ShiftStatuses lists every stored shift status.
var ShiftStatuses = []string{
	ShiftScheduled, ShiftConfirmed, ShiftInProgress, ShiftCompleted,
	ShiftCancelled, ShiftNoShow, ShiftUnfilled,
}

// ScheduledShift is a concrete calendar entry for one elder.
//
// Date is the agency-local calendar date (YYYY-MM-DD) and StartTime/EndTime
// are agency-local wall-clock strings (HH:MM). Cancelled shifts are kept for
// history but ignored by every load and availability computation.
type ScheduledShift struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AgencyID      primitive.ObjectID  `bson:"agency_id" json:"agency_id"`
	GroupID       primitive.ObjectID  `bson:"group_id" json:"group_id"`
	ElderID       primitive.ObjectID  `bson:"elder_id" json:"elder_id"`
	ElderName     string              `bson:"elder_name" json:"elder_name"`
	CaregiverID   *primitive.ObjectID `bson:"caregiver_id,omitempty" json:"caregiver_id,omitempty"`
	CaregiverName string              `bson:"caregiver_name,omitempty" json:"caregiver_name,omitempty"`

	Date            string `bson:"date" json:"date"`
	StartTime       string `bson:"start_time" json:"start_time"`
	EndTime         string `bson:"end_time" json:"end_time"`
	DurationMinutes int    `bson:"duration_minutes" json:"duration_minutes"`
	Status          string `bson:"status" json:"status"`
	Notes           string `bson:"notes,omitempty" json:"notes,omitempty"`

	// Recurrence and copy linkage
	IsRecurring         bool                `bson:"is_recurring" json:"is_recurring"`
	RecurringScheduleID *primitive.ObjectID `bson:"recurring_schedule_id,omitempty" json:"recurring_schedule_id,omitempty"`
	CopiedFromShiftID   *primitive.ObjectID `bson:"copied_from_shift_id,omitempty" json:"copied_from_shift_id,omitempty"`
	CopyBatchID         string              `bson:"copy_batch_id,omitempty" json:"copy_batch_id,omitempty"`

	// Audit fields
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
	CreatedByID   primitive.ObjectID  `bson:"created_by_id" json:"created_by_id"`
	UpdatedAt     time.Time           `bson:"updated_at" json:"updated_at"`
	CancelledAt   *time.Time          `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	CancelledByID *primitive.ObjectID `bson:"cancelled_by_id,omitempty" json:"cancelled_by_id,omitempty"`
}

// HasCaregiver reports whether a caregiver is attached to the shift.
func (s ScheduledShift) HasCaregiver() bool {
	return s.CaregiverID != nil && !s.CaregiverID.IsZero()
}
