package shiftstore_test

import (
	"errors"
	"testing"
	"time"

	shiftstore "github.com/dalemusser/carecoord/internal/app/store/shifts"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"github.com/dalemusser/carecoord/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestListActiveInRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := shiftstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agency := primitive.NewObjectID()
	caregiver := primitive.NewObjectID()
	mk := func(agencyID primitive.ObjectID, date, start, status string) models.ScheduledShift {
		sh, err := store.Create(ctx, models.ScheduledShift{
			AgencyID:    agencyID,
			ElderID:     primitive.NewObjectID(),
			CaregiverID: &caregiver,
			Date:        date,
			StartTime:   start,
			EndTime:     "23:00",
			Status:      status,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		return sh
	}

	mk(agency, "2025-03-04", "13:00", models.ShiftScheduled)
	mk(agency, "2025-03-04", "08:00", models.ShiftScheduled)
	mk(agency, "2025-03-03", "10:00", models.ShiftConfirmed)
	mk(agency, "2025-03-05", "10:00", models.ShiftCancelled)
	mk(agency, "2025-03-10", "10:00", models.ShiftScheduled)
	mk(primitive.NewObjectID(), "2025-03-04", "10:00", models.ShiftScheduled)

	got, err := store.ListActiveInRange(ctx, agency, "2025-03-03", "2025-03-09")
	if err != nil {
		t.Fatalf("ListActiveInRange failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 shifts, got %d", len(got))
	}
	order := []string{"2025-03-03 10:00", "2025-03-04 08:00", "2025-03-04 13:00"}
	for i, sh := range got {
		if sh.Date+" "+sh.StartTime != order[i] {
			t.Errorf("shift %d = %s %s, want %s", i, sh.Date, sh.StartTime, order[i])
		}
	}

	day, err := store.ListActiveForCaregiverOnDate(ctx, agency, caregiver, "2025-03-04")
	if err != nil {
		t.Fatalf("ListActiveForCaregiverOnDate failed: %v", err)
	}
	if len(day) != 2 {
		t.Errorf("expected 2 shifts on the day, got %d", len(day))
	}
}

func TestCancel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := shiftstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sh, err := store.Create(ctx, models.ScheduledShift{
		AgencyID:  primitive.NewObjectID(),
		ElderID:   primitive.NewObjectID(),
		Date:      "2025-03-03",
		StartTime: "09:00",
		EndTime:   "11:00",
		Status:    models.ShiftUnfilled,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	actor := primitive.NewObjectID()
	if err := store.Cancel(ctx, sh.ID, actor, time.Now().UTC()); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if err := store.Cancel(ctx, sh.ID, primitive.NewObjectID(), time.Now().UTC()); err != nil {
		t.Fatalf("second Cancel failed: %v", err)
	}
	got, err := store.GetByID(ctx, sh.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.ShiftCancelled || got.CancelledByID == nil || *got.CancelledByID != actor {
		t.Errorf("cancelled shift = %+v", got)
	}

	if err := store.Cancel(ctx, primitive.NewObjectID(), actor, time.Now()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}
