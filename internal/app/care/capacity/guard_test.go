package capacity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/carecoord/internal/app/care/capacity"
	"github.com/dalemusser/carecoord/internal/app/system/apperr"
	"github.com/dalemusser/carecoord/internal/app/system/planlimits"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"github.com/dalemusser/carecoord/internal/testutil/memstore"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fixedPlan struct {
	decision planlimits.Decision
	err      error
	calls    int
}

func (f *fixedPlan) CanAddCaregiver(context.Context, models.Agency) (planlimits.Decision, error) {
	f.calls++
	return f.decision, f.err
}

func elders(n int) []primitive.ObjectID {
	out := make([]primitive.ObjectID, n)
	for i := range out {
		out[i] = primitive.NewObjectID()
	}
	return out
}

func seed(db *memstore.DB, agency, caregiver primitive.ObjectID, counts ...int) {
	for _, n := range counts {
		db.Assignments.Put(models.CaregiverAssignment{
			AgencyID:    agency,
			CaregiverID: caregiver,
			ElderIDs:    elders(n),
			Active:      true,
		})
	}
}

func TestCurrentLoad_SumsActiveOnly(t *testing.T) {
	db := memstore.New()
	g := capacity.New(db.Assignments, nil, zap.NewNop())
	agency, caregiver := primitive.NewObjectID(), primitive.NewObjectID()

	seed(db, agency, caregiver, 1, 2)
	db.Assignments.Put(models.CaregiverAssignment{AgencyID: agency, CaregiverID: caregiver, ElderIDs: elders(4), Active: false})
	// other agency does not count
	seed(db, primitive.NewObjectID(), caregiver, 5)

	n, err := g.CurrentLoad(context.Background(), agency, caregiver)
	if err != nil {
		t.Fatalf("CurrentLoad: %v", err)
	}
	if n != 3 {
		t.Errorf("load = %d, want 3", n)
	}
}

func TestCheckElderCapacity_Message(t *testing.T) {
	db := memstore.New()
	g := capacity.New(db.Assignments, nil, zap.NewNop())
	agency := models.Agency{ID: primitive.NewObjectID(), MaxEldersPerCaregiver: 3}
	caregiver := primitive.NewObjectID()
	seed(db, agency.ID, caregiver, 2)

	err := g.CheckElderCapacity(context.Background(), agency, caregiver, 2)
	if !errors.Is(err, apperr.ErrCapacityExceeded) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	want := "Cannot assign 2 more elder(s). Caregiver already has 2 elder(s) assigned. Limit is 3 elders per caregiver."
	if err.Error() != want {
		t.Errorf("message = %q\nwant      %q", err.Error(), want)
	}

	if err := g.CheckElderCapacity(context.Background(), agency, caregiver, 1); err != nil {
		t.Errorf("2+1 should fit a ceiling of 3: %v", err)
	}
}

func TestCheckElderCapacity_DefaultCeiling(t *testing.T) {
	db := memstore.New()
	g := capacity.New(db.Assignments, nil, zap.NewNop())
	agency := models.Agency{ID: primitive.NewObjectID()}
	caregiver := primitive.NewObjectID()

	if err := g.CheckElderCapacity(context.Background(), agency, caregiver, models.DefaultMaxEldersPerCaregiver); err != nil {
		t.Fatalf("filling to the default ceiling should pass: %v", err)
	}
	if err := g.CheckElderCapacity(context.Background(), agency, caregiver, models.DefaultMaxEldersPerCaregiver+1); err == nil {
		t.Fatal("expected capacity error past the default ceiling")
	}
}

func TestLoad(t *testing.T) {
	db := memstore.New()
	g := capacity.New(db.Assignments, nil, zap.NewNop())
	agency := models.Agency{ID: primitive.NewObjectID(), MaxEldersPerCaregiver: 4}
	caregiver := primitive.NewObjectID()
	seed(db, agency.ID, caregiver, 1, 2)

	l, err := g.Load(context.Background(), agency, caregiver)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l != (capacity.Load{Current: 3, Limit: 4, Remaining: 1}) {
		t.Errorf("load = %+v", l)
	}

	// a lowered ceiling never reports negative headroom
	agency.MaxEldersPerCaregiver = 2
	l, _ = g.Load(context.Background(), agency, caregiver)
	if l.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", l.Remaining)
	}
}

func TestCheckCaregiverSlot(t *testing.T) {
	caregiver := primitive.NewObjectID()

	t.Run("existing caregiver skips the service", func(t *testing.T) {
		plan := &fixedPlan{decision: planlimits.Decision{Allowed: false}}
		g := capacity.New(memstore.New().Assignments, plan, zap.NewNop())
		agency := models.Agency{ID: primitive.NewObjectID(), CaregiverIDs: []primitive.ObjectID{caregiver}}
		if err := g.CheckCaregiverSlot(context.Background(), agency, caregiver); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if plan.calls != 0 {
			t.Errorf("service called %d times", plan.calls)
		}
	})

	t.Run("service message is surfaced", func(t *testing.T) {
		plan := &fixedPlan{decision: planlimits.Decision{Allowed: false, Message: "Upgrade to add caregivers."}}
		g := capacity.New(memstore.New().Assignments, plan, zap.NewNop())
		err := g.CheckCaregiverSlot(context.Background(), models.Agency{ID: primitive.NewObjectID()}, caregiver)
		if !errors.Is(err, apperr.ErrCapacityExceeded) || err.Error() != "Upgrade to add caregivers." {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("default message", func(t *testing.T) {
		plan := &fixedPlan{decision: planlimits.Decision{Allowed: false}}
		g := capacity.New(memstore.New().Assignments, plan, zap.NewNop())
		err := g.CheckCaregiverSlot(context.Background(), models.Agency{ID: primitive.NewObjectID()}, caregiver)
		if err == nil || err.Error() != capacity.DefaultSlotMessage {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("service failure passes through", func(t *testing.T) {
		boom := errors.New("unreachable")
		plan := &fixedPlan{err: boom}
		g := capacity.New(memstore.New().Assignments, plan, zap.NewNop())
		err := g.CheckCaregiverSlot(context.Background(), models.Agency{ID: primitive.NewObjectID()}, caregiver)
		if !errors.Is(err, boom) {
			t.Fatalf("got %v", err)
		}
	})
}
