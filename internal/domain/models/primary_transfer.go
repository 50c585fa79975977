// internal/domain/models/primary_transfer.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransferActionRemoved tags a log record written when a primary is cleared.
const TransferActionRemoved = "removed"

// PrimaryCaregiverTransfer is an append-only record of a primary caregiver
// change. Records are never updated.
type PrimaryCaregiverTransfer struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ElderID           primitive.ObjectID  `bson:"elder_id" json:"elder_id"`
	AgencyID          primitive.ObjectID  `bson:"agency_id,omitempty" json:"agency_id,omitempty"`
	FromCaregiverID   *primitive.ObjectID `bson:"from_caregiver_id,omitempty" json:"from_caregiver_id,omitempty"`
	FromCaregiverName string              `bson:"from_caregiver_name,omitempty" json:"from_caregiver_name,omitempty"`
	ToCaregiverID     *primitive.ObjectID `bson:"to_caregiver_id,omitempty" json:"to_caregiver_id,omitempty"`
	ToCaregiverName   string              `bson:"to_caregiver_name,omitempty" json:"to_caregiver_name,omitempty"`
	ActorID           primitive.ObjectID  `bson:"actor_id" json:"actor_id"`
	Timestamp         time.Time           `bson:"timestamp" json:"timestamp"`
	Action            string              `bson:"action,omitempty" json:"action,omitempty"`
}
