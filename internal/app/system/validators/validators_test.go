package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/carecoord/internal/app/system/validators"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"github.com/dalemusser/carecoord/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) *mongo.Database {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Second call should also succeed
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	expectedCollections := []string{
		"users",
		"agencies",
		"groups",
		"elders",
		"group_memberships",
		"caregiver_assignments",
		"caregiver_availability",
		"scheduled_shifts",
		"caregiver_memberships",
		"primary_caregiver_transfers",
		"audit_events",
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	collMap := make(map[string]bool)
	for _, name := range names {
		collMap[name] = true
	}
	for _, expected := range expectedCollections {
		if !collMap[expected] {
			t.Errorf("expected collection %q to exist", expected)
		}
	}
}

func TestValidators_Documents(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	oid := primitive.NewObjectID
	now := time.Now().UTC()

	tests := []struct {
		name    string
		coll    string
		doc     bson.M
		wantErr bool
	}{
		{"user valid", "users", bson.M{"full_name": "Ann", "email": "ann@example.com", "role": "caregiver", "status": "active"}, false},
		{"user missing email", "users", bson.M{"full_name": "Ann", "role": "caregiver", "status": "active"}, true},
		{"user blank name", "users", bson.M{"full_name": "   ", "email": "b@example.com", "role": "caregiver", "status": "active"}, true},
		{"user bad status", "users", bson.M{"full_name": "Ann", "email": "c@example.com", "role": "caregiver", "status": "gone"}, true},

		{"agency valid", "agencies", bson.M{"name": "Harbor", "name_ci": "harbor", "super_admin_id": oid(), "status": "active", "max_elders_per_caregiver": 3}, false},
		{"agency no owner", "agencies", bson.M{"name": "Bay", "name_ci": "bay", "status": "active"}, true},
		{"agency negative ceiling", "agencies", bson.M{"name": "Cove", "name_ci": "cove", "super_admin_id": oid(), "status": "active", "max_elders_per_caregiver": -1}, true},

		{"group valid", "groups", bson.M{"agency_id": oid(), "name": "North", "name_ci": "north", "status": "active"}, false},
		{"group string agency", "groups", bson.M{"agency_id": "abc", "name": "South", "name_ci": "south", "status": "active"}, true},

		{"elder valid", "elders", bson.M{"agency_id": oid(), "group_id": oid(), "name": "Rita"}, false},
		{"elder no group", "elders", bson.M{"agency_id": oid(), "name": "Rita"}, true},

		{"membership valid", "group_memberships", bson.M{"user_id": oid(), "group_id": oid(), "permission": "write", "created_at": now}, false},
		{"membership bad permission", "group_memberships", bson.M{"user_id": oid(), "group_id": oid(), "permission": "admin"}, true},

		{"assignment valid", "caregiver_assignments", bson.M{"agency_id": oid(), "caregiver_id": oid(), "group_id": oid(), "elder_ids": bson.A{oid()}, "role": "caregiver", "active": true}, false},
		{"assignment no elders", "caregiver_assignments", bson.M{"agency_id": oid(), "caregiver_id": oid(), "group_id": oid(), "elder_ids": bson.A{}, "role": "caregiver", "active": true}, true},
		{"assignment bad role", "caregiver_assignments", bson.M{"agency_id": oid(), "caregiver_id": oid(), "group_id": oid(), "elder_ids": bson.A{oid()}, "role": "nurse", "active": true}, true},

		{"availability valid", "caregiver_availability", bson.M{
			"caregiver_id": oid(), "agency_id": oid(),
			"weekly_pattern": bson.A{bson.M{"day_of_week": 1, "available": true, "time_slots": bson.A{bson.M{"start": "09:00", "end": "17:00"}}}},
			"overrides":      bson.A{bson.M{"date": "2024-03-06", "available": false}},
		}, false},
		{"availability bad day", "caregiver_availability", bson.M{
			"caregiver_id": oid(), "agency_id": oid(),
			"weekly_pattern": bson.A{bson.M{"day_of_week": 7, "available": true}},
		}, true},
		{"availability bad clock", "caregiver_availability", bson.M{
			"caregiver_id": oid(), "agency_id": oid(),
			"weekly_pattern": bson.A{bson.M{"day_of_week": 1, "available": true, "time_slots": bson.A{bson.M{"start": "9am", "end": "17:00"}}}},
		}, true},

		{"shift valid", "scheduled_shifts", bson.M{"agency_id": oid(), "elder_id": oid(), "date": "2024-03-04", "start_time": "09:00", "end_time": "13:00", "status": models.ShiftScheduled}, false},
		{"shift bad date", "scheduled_shifts", bson.M{"agency_id": oid(), "elder_id": oid(), "date": "03/04/2024", "start_time": "09:00", "end_time": "13:00", "status": models.ShiftScheduled}, true},
		{"shift bad status", "scheduled_shifts", bson.M{"agency_id": oid(), "elder_id": oid(), "date": "2024-03-04", "start_time": "09:00", "end_time": "13:00", "status": "maybe"}, true},

		{"transfer log has no validator", "primary_caregiver_transfers", bson.M{"anything": "goes"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Collection(tt.coll).InsertOne(ctx, tt.doc)
			if tt.wantErr && err == nil {
				t.Errorf("expected validation error inserting into %s", tt.coll)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("insert into %s failed: %v", tt.coll, err)
			}
		})
	}
}

func TestValidators_AcceptFixtureDocuments(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateUser(ctx, "Olive Park", "olive@example.com", models.RoleCaregiverAdmin)
	agency := fx.CreateAgency(ctx, "Harbor Home Care", owner.ID, models.TierSingleAgency)
	group := fx.CreateGroup(ctx, "North", agency.ID)
	fx.CreateElder(ctx, "Rita", group)
}
