package elderstore_test

import (
	"errors"
	"testing"
	"time"

	elderstore "github.com/dalemusser/carecoord/internal/app/store/elders"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"github.com/dalemusser/carecoord/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*elderstore.Store, *testutil.Fixtures, models.Group) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	agency := fixtures.CreateAgency(ctx, "Willow", primitive.NewObjectID(), models.TierSingleAgency)
	group := fixtures.CreateGroup(ctx, "North Wing", agency.ID)
	return elderstore.New(db, zap.NewNop()), fixtures, group
}

func TestGetByIDs(t *testing.T) {
	store, fixtures, group := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateElder(ctx, "Ada", group)
	b := fixtures.CreateElder(ctx, "Bert", group)
	got, err := store.GetByIDs(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 elders, got %d", len(got))
	}

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestSetPrimary(t *testing.T) {
	store, fixtures, group := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := fixtures.CreateElder(ctx, "Cleo", group)
	ref := models.PrimaryRef{CaregiverID: primitive.NewObjectID(), Name: "Dana"}
	actor := primitive.NewObjectID()
	if err := store.SetPrimary(ctx, e.ID, ref, actor, time.Now().UTC()); err != nil {
		t.Fatalf("SetPrimary failed: %v", err)
	}
	got, _ := store.GetByID(ctx, e.ID)
	if !got.HasPrimary() || *got.PrimaryCaregiverID != ref.CaregiverID || got.PrimaryCaregiverName != "Dana" {
		t.Errorf("primary = %+v", got)
	}
	if got.PrimaryCaregiverAssignedBy == nil || *got.PrimaryCaregiverAssignedBy != actor {
		t.Errorf("assigned_by not stored")
	}

	if err := store.SetPrimary(ctx, primitive.NewObjectID(), ref, actor, time.Now()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestCommitPrimaryChange(t *testing.T) {
	store, fixtures, group := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := fixtures.CreateElder(ctx, "Elsa", group)
	actor := primitive.NewObjectID()
	to := models.PrimaryRef{CaregiverID: primitive.NewObjectID(), Name: "Finn"}
	toID := to.CaregiverID
	at := time.Now().UTC()

	err := store.CommitPrimaryChange(ctx,
		models.PrimaryChange{ElderID: e.ID, Next: &to, ActorID: actor, At: at},
		models.PrimaryCaregiverTransfer{ElderID: e.ID, ToCaregiverID: &toID, ToCaregiverName: "Finn", ActorID: actor, Timestamp: at})
	if err != nil {
		t.Fatalf("CommitPrimaryChange failed: %v", err)
	}

	later := at.Add(time.Second)
	err = store.CommitPrimaryChange(ctx,
		models.PrimaryChange{ElderID: e.ID, ActorID: actor, At: later},
		models.PrimaryCaregiverTransfer{ElderID: e.ID, FromCaregiverID: &toID, ActorID: actor, Timestamp: later, Action: models.TransferActionRemoved})
	if err != nil {
		t.Fatalf("CommitPrimaryChange (remove) failed: %v", err)
	}

	got, _ := store.GetByID(ctx, e.ID)
	if got.HasPrimary() || got.PrimaryCaregiverName != "" {
		t.Errorf("primary should be cleared: %+v", got)
	}
	hist, err := store.ListTransfers(ctx, e.ID)
	if err != nil {
		t.Fatalf("ListTransfers failed: %v", err)
	}
	if len(hist) != 2 || hist[0].Action != models.TransferActionRemoved {
		t.Errorf("expected removal first, got %+v", hist)
	}
}

func TestCommitPrimaryChange_MissingElderWritesNoLog(t *testing.T) {
	store, _, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	missing := primitive.NewObjectID()
	to := models.PrimaryRef{CaregiverID: primitive.NewObjectID(), Name: "Gil"}
	err := store.CommitPrimaryChange(ctx,
		models.PrimaryChange{ElderID: missing, Next: &to, At: time.Now()},
		models.PrimaryCaregiverTransfer{ElderID: missing, Timestamp: time.Now()})
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
	hist, _ := store.ListTransfers(ctx, missing)
	if len(hist) != 0 {
		t.Errorf("transfer record written for missing elder")
	}
}
