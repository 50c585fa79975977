// internal/domain/models/elder.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Elder is a care recipient. Each elder belongs to exactly one group.
//
// At most one primary caregiver is recorded directly on the elder document.
// The primary fields are only changed through the primary caregiver registry.
type Elder struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	GroupID  primitive.ObjectID `bson:"group_id" json:"group_id"`
	AgencyID primitive.ObjectID `bson:"agency_id" json:"agency_id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"-"`

	PrimaryCaregiverID         *primitive.ObjectID `bson:"primary_caregiver_id,omitempty" json:"primary_caregiver_id,omitempty"`
	PrimaryCaregiverName       string              `bson:"primary_caregiver_name,omitempty" json:"primary_caregiver_name,omitempty"`
	PrimaryCaregiverAssignedAt *time.Time          `bson:"primary_caregiver_assigned_at,omitempty" json:"primary_caregiver_assigned_at,omitempty"`
	PrimaryCaregiverAssignedBy *primitive.ObjectID `bson:"primary_caregiver_assigned_by,omitempty" json:"primary_caregiver_assigned_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasPrimary reports whether a primary caregiver is recorded.
func (e Elder) HasPrimary() bool {
	return e.PrimaryCaregiverID != nil && !e.PrimaryCaregiverID.IsZero()
}

// PrimaryRef names a caregiver in a primary assignment or transfer.
type PrimaryRef struct {
	CaregiverID primitive.ObjectID
	Name        string
}

// PrimaryChange is the elder-side half of an atomic primary write.
// A nil Next clears the primary fields.
type PrimaryChange struct {
	ElderID primitive.ObjectID
	Next    *PrimaryRef
	ActorID primitive.ObjectID
	At      time.Time
}
