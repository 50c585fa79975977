// internal/app/store/caregivermembers/caregivermemberstore.go
package caregivermemberstore

import (
	"context"
	"time"

	"github.com/dalemusser/carecoord/internal/app/system/status"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("caregiver_memberships")}
}

// Merge upserts the (caregiver, agency) document, set-unioning elder and
// group ids into what is already stored.
func (s *Store) Merge(ctx context.Context, m models.CaregiverMembership) error {
	now := time.Now().UTC()
	elders := m.AssignedElderIDs
	if elders == nil {
		elders = []primitive.ObjectID{}
	}
	groups := m.AssignedGroupIDs
	if groups == nil {
		groups = []primitive.ObjectID{}
	}
	st := m.Status
	if st == "" {
		st = status.Active
	}
	update := bson.M{
		"$addToSet": bson.M{
			"assigned_elder_ids": bson.M{"$each": elders},
			"assigned_group_ids": bson.M{"$each": groups},
		},
		"$set": bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID(),
			"role":      m.Role,
			"status":    st,
			"joined_at": now,
		},
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"caregiver_id": m.CaregiverID, "agency_id": m.AgencyID},
		update,
		options.Update().SetUpsert(true))
	return err
}

// Get returns the membership or mongo.ErrNoDocuments.
func (s *Store) Get(ctx context.Context, caregiverID, agencyID primitive.ObjectID) (models.CaregiverMembership, error) {
	var m models.CaregiverMembership
	err := s.c.FindOne(ctx, bson.M{"caregiver_id": caregiverID, "agency_id": agencyID}).Decode(&m)
	if err != nil {
		return models.CaregiverMembership{}, err
	}
	return m, nil
}
