// internal/app/store/availability/availabilitystore.go
package availabilitystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/carecoord/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store manages caregiver_availability, one document per (caregiver, agency).
type Store struct {
	c *mongo.Collection
}

// ErrExists is returned by Insert when the caregiver already has a document in the agency.
var ErrExists = errors.New("availability already exists for this caregiver")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("caregiver_availability")}
}

// Get returns the caregiver's availability or mongo.ErrNoDocuments.
func (s *Store) Get(ctx context.Context, caregiverID, agencyID primitive.ObjectID) (models.CaregiverAvailability, error) {
	var a models.CaregiverAvailability
	err := s.c.FindOne(ctx, bson.M{"caregiver_id": caregiverID, "agency_id": agencyID}).Decode(&a)
	if err != nil {
		return models.CaregiverAvailability{}, err
	}
	return a, nil
}

// Insert creates the document. The unique index turns a concurrent second
// insert into ErrExists.
func (s *Store) Insert(ctx context.Context, a models.CaregiverAvailability) (models.CaregiverAvailability, error) {
	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.Overrides == nil {
		a.Overrides = []models.DateOverride{}
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.CaregiverAvailability{}, ErrExists
		}
		return models.CaregiverAvailability{}, err
	}
	return a, nil
}

// SetWeeklyPattern replaces the weekly pattern.
func (s *Store) SetWeeklyPattern(ctx context.Context, caregiverID, agencyID primitive.ObjectID, days []models.DayAvailability) error {
	return s.set(ctx, caregiverID, agencyID, bson.M{"weekly_pattern": days})
}

// SetOverrides replaces the full override list.
func (s *Store) SetOverrides(ctx context.Context, caregiverID, agencyID primitive.ObjectID, overrides []models.DateOverride) error {
	if overrides == nil {
		overrides = []models.DateOverride{}
	}
	return s.set(ctx, caregiverID, agencyID, bson.M{"overrides": overrides})
}

// SetPreferences replaces the scheduling preferences.
func (s *Store) SetPreferences(ctx context.Context, caregiverID, agencyID primitive.ObjectID, p *models.AvailabilityPreferences) error {
	return s.set(ctx, caregiverID, agencyID, bson.M{"preferences": p})
}

func (s *Store) set(ctx context.Context, caregiverID, agencyID primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"caregiver_id": caregiverID, "agency_id": agencyID},
		bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
