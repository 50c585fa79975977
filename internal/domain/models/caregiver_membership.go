// internal/domain/models/caregiver_membership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CaregiverMembership is the caregiver's own view of an agency: which elders
// and groups it has been assigned. One document per (caregiver_id, agency_id);
// elder and group ids only ever accumulate.
type CaregiverMembership struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	CaregiverID      primitive.ObjectID   `bson:"caregiver_id" json:"caregiver_id"`
	AgencyID         primitive.ObjectID   `bson:"agency_id" json:"agency_id"`
	Role             string               `bson:"role" json:"role"`
	AssignedElderIDs []primitive.ObjectID `bson:"assigned_elder_ids" json:"assigned_elder_ids"`
	AssignedGroupIDs []primitive.ObjectID `bson:"assigned_group_ids" json:"assigned_group_ids"`
	Status           string               `bson:"status" json:"status"`
	JoinedAt         time.Time            `bson:"joined_at" json:"joined_at"`
	UpdatedAt        time.Time            `bson:"updated_at" json:"updated_at"`
}
