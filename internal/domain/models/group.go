// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a care circle inside an agency; elders belong to exactly one group.
//
// NOTE:
//   - Members are not embedded on Group.
//     All membership is stored in the group_memberships collection.
type Group struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	AgencyID primitive.ObjectID `bson:"agency_id" json:"agency_id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"name_ci"`

	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
