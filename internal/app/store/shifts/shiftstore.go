// internal/app/store/shifts/shiftstore.go
package shiftstore

import (
	"context"
	"time"

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
	return &Store{c: db.Collection("scheduled_shifts")}
}

var byDateThenStart = bson.D{
	{Key: "date", Value: 1},
	{Key: "start_time", Value: 1},
	{Key: "_id", Value: 1},
}

// Create inserts a shift.
func (s *Store) Create(ctx context.Context, sh models.ScheduledShift) (models.ScheduledShift, error) {
	now := time.Now().UTC()
	if sh.ID.IsZero() {
		sh.ID = primitive.NewObjectID()
	}
	sh.CreatedAt = now
	sh.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sh); err != nil {
		return models.ScheduledShift{}, err
	}
	return sh, nil
}

// GetByID returns the shift or mongo.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.ScheduledShift, error) {
	var sh models.ScheduledShift
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sh); err != nil {
		return models.ScheduledShift{}, err
	}
	return sh, nil
}

// ListActiveInRange returns non-cancelled shifts of the agency whose date
// falls in [from, to], ordered by date then start time. Dates are
// YYYY-MM-DD so string comparison is calendar order.
func (s *Store) ListActiveInRange(ctx context.Context, agencyID primitive.ObjectID, from, to string) ([]models.ScheduledShift, error) {
	return s.find(ctx, bson.M{
		"agency_id": agencyID,
		"date":      bson.M{"$gte": from, "$lte": to},
		"status":    bson.M{"$ne": models.ShiftCancelled},
	})
}

// ListActiveForCaregiverOnDate returns the caregiver's non-cancelled shifts on date.
func (s *Store) ListActiveForCaregiverOnDate(ctx context.Context, agencyID, caregiverID primitive.ObjectID, date string) ([]models.ScheduledShift, error) {
	return s.find(ctx, bson.M{
		"agency_id":    agencyID,
		"caregiver_id": caregiverID,
		"date":         date,
		"status":       bson.M{"$ne": models.ShiftCancelled},
	})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.ScheduledShift, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(byDateThenStart))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.ScheduledShift
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel marks the shift cancelled. Cancelling twice keeps the first stamp.
func (s *Store) Cancel(ctx context.Context, id, actorID primitive.ObjectID, at time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.ShiftCancelled}},
		bson.M{"$set": bson.M{
			"status":          models.ShiftCancelled,
			"cancelled_at":    at,
			"cancelled_by_id": actorID,
			"updated_at":      at,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.c.FindOne(ctx, bson.M{"_id": id}).Err()
	}
	return nil
}
