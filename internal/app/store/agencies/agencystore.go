// internal/app/store/agencies/agencystore.go
package agencystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/carecoord/internal/app/system/status"
	"github.com/dalemusser/carecoord/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateAgency = errors.New("an agency with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("agencies")}
}

// Create inserts a new agency. Missing ID, status and ceiling are defaulted.
func (s *Store) Create(ctx context.Context, a models.Agency) (models.Agency, error) {
	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.NameCI = text.Fold(a.Name)
	if a.Status == "" {
		a.Status = status.Active
	}
	if a.MaxEldersPerCaregiver <= 0 {
		a.MaxEldersPerCaregiver = models.DefaultMaxEldersPerCaregiver
	}
	if a.GroupIDs == nil {
		a.GroupIDs = []primitive.ObjectID{}
	}
	if a.CaregiverIDs == nil {
		a.CaregiverIDs = []primitive.ObjectID{}
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Agency{}, ErrDuplicateAgency
		}
		return models.Agency{}, err
	}
	return a, nil
}

// GetByID returns the agency or mongo.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Agency, error) {
	var a models.Agency
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.Agency{}, err
	}
	return a, nil
}

// AddCaregiver appends caregiverID to the roster if it is not already there.
func (s *Store) AddCaregiver(ctx context.Context, agencyID, caregiverID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, agencyID, bson.M{
		"$addToSet": bson.M{"caregiver_ids": caregiverID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetOwner replaces the owning super admin.
func (s *Store) SetOwner(ctx context.Context, agencyID, ownerID primitive.ObjectID) error {
	return s.set(ctx, agencyID, bson.M{"super_admin_id": ownerID})
}

// SetElderCeiling replaces max_elders_per_caregiver.
func (s *Store) SetElderCeiling(ctx context.Context, agencyID primitive.ObjectID, n int) error {
	return s.set(ctx, agencyID, bson.M{"max_elders_per_caregiver": n})
}

func (s *Store) set(ctx context.Context, agencyID primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, agencyID, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
