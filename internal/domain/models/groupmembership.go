// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group membership permissions.
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
)

// GroupMembership is the authoritative join between users and groups.
// Exactly one document per (user_id, group_id).
type GroupMembership struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID    primitive.ObjectID `bson:"group_id" json:"group_id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	AgencyID   primitive.ObjectID `bson:"agency_id" json:"agency_id"`
	Role       string             `bson:"role" json:"role"`             // "admin" | "caregiver" | "member"
	Permission string             `bson:"permission" json:"permission"` // "read" | "write"
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
