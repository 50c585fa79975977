// internal/app/store/caregiverassign/caregiverassign.go
package caregiverassign

import (
	"context"
	"time"

	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages caregiver_assignments. Records are soft-deleted only.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("caregiver_assignments")}
}

// Create inserts an assignment. Active is forced on.
func (s *Store) Create(ctx context.Context, a models.CaregiverAssignment) (models.CaregiverAssignment, error) {
	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.ElderIDs == nil {
		a.ElderIDs = []primitive.ObjectID{}
	}
	if a.AssignedAt.IsZero() {
		a.AssignedAt = now
	}
	a.Active = true
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.CaregiverAssignment{}, err
	}
	return a, nil
}

// GetByID returns the assignment or mongo.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.CaregiverAssignment, error) {
	var a models.CaregiverAssignment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.CaregiverAssignment{}, err
	}
	return a, nil
}

// ListActiveByCaregiver returns the caregiver's active assignments in one agency.
func (s *Store) ListActiveByCaregiver(ctx context.Context, agencyID, caregiverID primitive.ObjectID) ([]models.CaregiverAssignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "assigned_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{
		"agency_id":    agencyID,
		"caregiver_id": caregiverID,
		"active":       true,
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.CaregiverAssignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveByAgency returns all active assignments in an agency.
func (s *Store) ListActiveByAgency(ctx context.Context, agencyID primitive.ObjectID) ([]models.CaregiverAssignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "caregiver_id", Value: 1}, {Key: "assigned_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"agency_id": agencyID, "active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.CaregiverAssignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Deactivate flips active off and stamps who did it. Deactivating an
// already inactive record is a no-op; a missing id is mongo.ErrNoDocuments.
func (s *Store) Deactivate(ctx context.Context, id, actorID primitive.ObjectID, at time.Time) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "active": true}, bson.M{"$set": bson.M{
		"active":            false,
		"deactivated_at":    at,
		"deactivated_by_id": actorID,
		"updated_at":        at,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if err := s.c.FindOne(ctx, bson.M{"_id": id}).Err(); err != nil {
			return err
		}
	}
	return nil
}
