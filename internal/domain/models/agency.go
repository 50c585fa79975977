// internal/domain/models/agency.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultMaxEldersPerCaregiver applies when an agency has no ceiling stored.
const DefaultMaxEldersPerCaregiver = 3

// Subscription tiers understood by the built-in plan limits table.
const (
	TierFamily       = "family"
	TierSingleAgency = "single_agency"
	TierMultiAgency  = "multi_agency"
)

// Agency is the tenant boundary. It owns groups (and through them elders)
// and the roster of caregivers allowed to act inside it.
type Agency struct {
	ID           primitive.ObjectID   `bson:"_id" json:"id"`
	Name         string               `bson:"name" json:"name"`
	NameCI       string               `bson:"name_ci" json:"-"`
	SuperAdminID primitive.ObjectID   `bson:"super_admin_id" json:"super_admin_id"` // owning user
	GroupIDs     []primitive.ObjectID `bson:"group_ids" json:"group_ids"`
	CaregiverIDs []primitive.ObjectID `bson:"caregiver_ids" json:"caregiver_ids"`

	// MaxEldersPerCaregiver <= 0 means DefaultMaxEldersPerCaregiver.
	MaxEldersPerCaregiver int `bson:"max_elders_per_caregiver" json:"max_elders_per_caregiver"`

	Subscription AgencySubscription `bson:"subscription" json:"subscription"`

	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// AgencySubscription is a read-only snapshot of the billing state.
// Billing itself lives elsewhere; only the tier is consulted here.
type AgencySubscription struct {
	Tier   string `bson:"tier" json:"tier"`
	Status string `bson:"status" json:"status"`
}

// ElderCeiling returns the effective per-caregiver elder limit.
func (a Agency) ElderCeiling() int {
	if a.MaxEldersPerCaregiver <= 0 {
		return DefaultMaxEldersPerCaregiver
	}
	return a.MaxEldersPerCaregiver
}

// HasCaregiver reports whether id is already on the agency roster.
func (a Agency) HasCaregiver(id primitive.ObjectID) bool {
	for _, c := range a.CaregiverIDs {
		if c == id {
			return true
		}
	}
	return false
}

// OwnsGroup reports whether groupID belongs to the agency.
func (a Agency) OwnsGroup(groupID primitive.ObjectID) bool {
	for _, g := range a.GroupIDs {
		if g == groupID {
			return true
		}
	}
	return false
}
