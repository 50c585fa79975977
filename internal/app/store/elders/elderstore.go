// internal/app/store/elders/elderstore.go
package elderstore

import (
	"context"
	"time"

	"github.com/dalemusser/carecoord/internal/app/system/txn"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Store reads elders and owns the primary caregiver fields together with
// their transfer log, which must be written in one batch.
type Store struct {
	client    *mongo.Client
	c         *mongo.Collection
	transfers *mongo.Collection
	log       *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{
		client:    db.Client(),
		c:         db.Collection("elders"),
		transfers: db.Collection("primary_caregiver_transfers"),
		log:       logger,
	}
}

// Create inserts an elder.
func (s *Store) Create(ctx context.Context, e models.Elder) (models.Elder, error) {
	now := time.Now().UTC()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	e.NameCI = text.Fold(e.Name)
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Elder{}, err
	}
	return e, nil
}

// GetByID returns the elder or mongo.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Elder, error) {
	var e models.Elder
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return models.Elder{}, err
	}
	return e, nil
}

// GetByIDs loads the given elders. Missing ids are simply absent from the result.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Elder, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Elder
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func primarySet(ref models.PrimaryRef, actorID primitive.ObjectID, at time.Time) bson.M {
	return bson.M{
		"primary_caregiver_id":          ref.CaregiverID,
		"primary_caregiver_name":        ref.Name,
		"primary_caregiver_assigned_at": at,
		"primary_caregiver_assigned_by": actorID,
		"updated_at":                    at,
	}
}

// SetPrimary overwrites the primary fields. No log record is written.
func (s *Store) SetPrimary(ctx context.Context, elderID primitive.ObjectID, ref models.PrimaryRef, actorID primitive.ObjectID, at time.Time) error {
	res, err := s.c.UpdateByID(ctx, elderID, bson.M{"$set": primarySet(ref, actorID, at)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// CommitPrimaryChange applies change to the elder and appends rec to the
// transfer log in a single transaction. A nil change.Next clears the fields.
func (s *Store) CommitPrimaryChange(ctx context.Context, change models.PrimaryChange, rec models.PrimaryCaregiverTransfer) error {
	var update bson.M
	if change.Next != nil {
		update = bson.M{"$set": primarySet(*change.Next, change.ActorID, change.At)}
	} else {
		update = bson.M{
			"$unset": bson.M{
				"primary_caregiver_id":          "",
				"primary_caregiver_name":        "",
				"primary_caregiver_assigned_at": "",
				"primary_caregiver_assigned_by": "",
			},
			"$set": bson.M{"updated_at": change.At},
		}
	}
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}

	return txn.Run(ctx, s.client, s.log, "primary caregiver change", func(ctx context.Context) error {
		res, err := s.c.UpdateByID(ctx, change.ElderID, update)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return mongo.ErrNoDocuments
		}
		_, err = s.transfers.InsertOne(ctx, rec)
		return err
	})
}

// ListTransfers returns the elder's transfer log, newest first.
func (s *Store) ListTransfers(ctx context.Context, elderID primitive.ObjectID) ([]models.PrimaryCaregiverTransfer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.transfers.Find(ctx, bson.M{"elder_id": elderID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.PrimaryCaregiverTransfer
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
