package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/carecoord/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data directly in MongoDB.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an active user.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateCaregiver inserts a user with the caregiver role.
func (f *Fixtures) CreateCaregiver(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleCaregiver)
}

// CreateAgency inserts an agency owned by ownerID on the given tier.
func (f *Fixtures) CreateAgency(ctx context.Context, name string, ownerID primitive.ObjectID, tier string) models.Agency {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Agency{
		ID:                    primitive.NewObjectID(),
		Name:                  name,
		NameCI:                text.Fold(name),
		SuperAdminID:          ownerID,
		GroupIDs:              []primitive.ObjectID{},
		CaregiverIDs:          []primitive.ObjectID{},
		MaxEldersPerCaregiver: models.DefaultMaxEldersPerCaregiver,
		Subscription:          models.AgencySubscription{Tier: tier, Status: "active"},
		Status:                "active",
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if _, err := f.db.Collection("agencies").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test agency: %v", err)
	}
	return a
}

// CreateGroup inserts a group and links it onto the agency.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, agencyID primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:        primitive.NewObjectID(),
		AgencyID:  agencyID,
		Name:      name,
		NameCI:    text.Fold(name),
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	_, err := f.db.Collection("agencies").UpdateByID(ctx, agencyID, bson.M{"$addToSet": bson.M{"group_ids": g.ID}})
	if err != nil {
		f.t.Fatalf("failed to link group to agency: %v", err)
	}
	return g
}

// CreateElder inserts an elder in the group.
func (f *Fixtures) CreateElder(ctx context.Context, name string, group models.Group) models.Elder {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.Elder{
		ID:        primitive.NewObjectID(),
		GroupID:   group.ID,
		AgencyID:  group.AgencyID,
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("elders").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test elder: %v", err)
	}
	return e
}
