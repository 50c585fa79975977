// internal/domain/models/caregiver_assignment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment roles.
const (
	RoleCaregiver      = "caregiver"
	RoleCaregiverAdmin = "caregiver_admin"
)

// CaregiverAssignment links a caregiver to a batch of elders inside one group
// of an agency. A caregiver may hold several assignment records at once.
//
// Assignments are never deleted; removal flips Active to false so the record
// stays in the audit trail.
type CaregiverAssignment struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	AgencyID      primitive.ObjectID   `bson:"agency_id" json:"agency_id"`
	CaregiverID   primitive.ObjectID   `bson:"caregiver_id" json:"caregiver_id"`
	CaregiverName string               `bson:"caregiver_name" json:"caregiver_name"`
	ElderIDs      []primitive.ObjectID `bson:"elder_ids" json:"elder_ids"`
	GroupID       primitive.ObjectID   `bson:"group_id" json:"group_id"`
	Role          string               `bson:"role" json:"role"` // caregiver | caregiver_admin

	Permissions AssignmentPermissions `bson:"permissions" json:"permissions"`
	IsPrimary   bool                  `bson:"is_primary" json:"is_primary"`
	Active      bool                  `bson:"active" json:"active"`

	AssignedAt      time.Time           `bson:"assigned_at" json:"assigned_at"`
	AssignedByID    primitive.ObjectID  `bson:"assigned_by_id" json:"assigned_by_id"`
	DeactivatedAt   *time.Time          `bson:"deactivated_at,omitempty" json:"deactivated_at,omitempty"`
	DeactivatedByID *primitive.ObjectID `bson:"deactivated_by_id,omitempty" json:"deactivated_by_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// AssignmentPermissions is the bundle granted by an assignment.
type AssignmentPermissions struct {
	CanEditMedications bool `bson:"can_edit_medications" json:"can_edit_medications"`
	CanLogDoses        bool `bson:"can_log_doses" json:"can_log_doses"`
	CanViewReports     bool `bson:"can_view_reports" json:"can_view_reports"`
	CanManageSchedules bool `bson:"can_manage_schedules" json:"can_manage_schedules"`
	CanInviteMembers   bool `bson:"can_invite_members" json:"can_invite_members"`
}

// FullPermissions is granted to admin-equivalent and primary caregivers.
func FullPermissions() AssignmentPermissions {
	return AssignmentPermissions{
		CanEditMedications: true,
		CanLogDoses:        true,
		CanViewReports:     true,
		CanManageSchedules: true,
		CanInviteMembers:   true,
	}
}

// LogOnlyPermissions is the default for ordinary caregivers.
func LogOnlyPermissions() AssignmentPermissions {
	return AssignmentPermissions{
		CanLogDoses:    true,
		CanViewReports: true,
	}
}

// ValidAssignmentRole reports whether role is a known assignment role.
func ValidAssignmentRole(role string) bool {
	return role == RoleCaregiver || role == RoleCaregiverAdmin
}
