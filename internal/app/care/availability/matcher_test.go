package availability_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dalemusser/carecoord/internal/app/care/availability"
	"github.com/dalemusser/carecoord/internal/app/system/apperr"
	"github.com/dalemusser/carecoord/internal/app/system/locks"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"github.com/dalemusser/carecoord/internal/testutil/memstore"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newMatcher() (*availability.Matcher, *memstore.Availability) {
	db := memstore.New()
	return availability.New(db.Availability, locks.NewLocal(), nil, zap.NewNop()), db.Availability
}

func TestGet_LazilyCreatesDefault(t *testing.T) {
	m, store := newMatcher()
	ctx := context.Background()
	caregiver, agency := primitive.NewObjectID(), primitive.NewObjectID()

	rec, err := m.Get(ctx, caregiver, agency)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rec.WeeklyPattern) != 7 {
		t.Fatalf("expected 7 pattern days, got %d", len(rec.WeeklyPattern))
	}
	for _, d := range rec.WeeklyPattern {
		weekday := d.DayOfWeek >= 1 && d.DayOfWeek <= 5
		if d.Available != weekday {
			t.Errorf("day %d available=%v", d.DayOfWeek, d.Available)
		}
		if weekday && (len(d.TimeSlots) != 1 || d.TimeSlots[0].Start != "09:00" || d.TimeSlots[0].End != "17:00") {
			t.Errorf("day %d slots = %+v", d.DayOfWeek, d.TimeSlots)
		}
	}

	if _, err := m.Get(ctx, caregiver, agency); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("expected one record, got %d", store.Len())
	}
}

func TestGet_ConcurrentFirstAccessCreatesOneRecord(t *testing.T) {
	m, store := newMatcher()
	caregiver, agency := primitive.NewObjectID(), primitive.NewObjectID()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Get(context.Background(), caregiver, agency); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Get: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("expected one record, got %d", store.Len())
	}
}

func TestCheckAvailability_OverrideScenario(t *testing.T) {
	m, _ := newMatcher()
	ctx := context.Background()
	caregiver, agency, actor := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	_, err := m.SetOverride(ctx, caregiver, agency, actor, models.DateOverride{
		Date:      monday,
		Available: true,
		TimeSlots: []models.TimeSlot{{Start: "09:00", End: "12:00"}},
	})
	if err != nil {
		t.Fatalf("SetOverride: %v", err)
	}

	c, err := m.CheckAvailability(ctx, caregiver, agency, monday, "14:00", "16:00")
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if c == nil || c.Reason != availability.ReasonOutsideOverrideSlots {
		t.Fatalf("expected outside_override_slots, got %+v", c)
	}

	c, err = m.CheckAvailability(ctx, caregiver, agency, monday, "09:00", "11:00")
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if c != nil {
		t.Errorf("expected available, got %q", c.Reason)
	}
}

func TestCheckAvailability_ValidatesBeforeLookup(t *testing.T) {
	m, store := newMatcher()
	_, err := m.CheckAvailability(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), monday, "12:00", "09:00")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("no record should be created for an invalid request")
	}
}

func TestSetOverride_ReplacesSameDate(t *testing.T) {
	m, _ := newMatcher()
	ctx := context.Background()
	caregiver, agency, actor := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	if _, err := m.SetOverride(ctx, caregiver, agency, actor, models.DateOverride{Date: monday, Available: false}); err != nil {
		t.Fatalf("SetOverride: %v", err)
	}
	rec, err := m.SetOverride(ctx, caregiver, agency, actor, models.DateOverride{Date: monday, Available: true})
	if err != nil {
		t.Fatalf("SetOverride: %v", err)
	}
	if len(rec.Overrides) != 1 || !rec.Overrides[0].Available {
		t.Fatalf("expected one available override, got %+v", rec.Overrides)
	}

	rec, err = m.ClearOverride(ctx, caregiver, agency, actor, monday)
	if err != nil {
		t.Fatalf("ClearOverride: %v", err)
	}
	if len(rec.Overrides) != 0 {
		t.Errorf("expected overrides cleared, got %+v", rec.Overrides)
	}
	// clearing again is a no-op
	if _, err := m.ClearOverride(ctx, caregiver, agency, actor, monday); err != nil {
		t.Errorf("second ClearOverride: %v", err)
	}
}

func TestSetOverride_RejectsBadSlots(t *testing.T) {
	m, _ := newMatcher()
	_, err := m.SetOverride(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), models.DateOverride{
		Date:      monday,
		Available: true,
		TimeSlots: []models.TimeSlot{{Start: "12:00", End: "09:00"}},
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSetWeeklyPattern(t *testing.T) {
	m, _ := newMatcher()
	ctx := context.Background()
	caregiver, agency, actor := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	days := models.DefaultWeeklyPattern()
	days[6] = models.DayAvailability{DayOfWeek: 6, Available: true, TimeSlots: []models.TimeSlot{{Start: "10:00", End: "14:00"}}}
	// Out of order input is accepted and normalized.
	days[0], days[6] = days[6], days[0]

	if _, err := m.SetWeeklyPattern(ctx, caregiver, agency, actor, days); err != nil {
		t.Fatalf("SetWeeklyPattern: %v", err)
	}
	c, err := m.CheckAvailability(ctx, caregiver, agency, saturday, "11:00", "13:00")
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if c != nil {
		t.Errorf("saturday should now be available, got %q", c.Reason)
	}
}

func TestSetWeeklyPattern_Validation(t *testing.T) {
	m, _ := newMatcher()
	ctx := context.Background()
	caregiver, agency, actor := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	short := models.DefaultWeeklyPattern()[:6]
	dup := models.DefaultWeeklyPattern()
	dup[6].DayOfWeek = 5
	badSlot := models.DefaultWeeklyPattern()
	badSlot[1].TimeSlots = []models.TimeSlot{{Start: "9", End: "17:00"}}

	for name, days := range map[string][]models.DayAvailability{"six days": short, "duplicate day": dup, "bad slot": badSlot} {
		if _, err := m.SetWeeklyPattern(ctx, caregiver, agency, actor, days); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestSetPreferences(t *testing.T) {
	m, store := newMatcher()
	ctx := context.Background()
	caregiver, agency, actor := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	err := m.SetPreferences(ctx, caregiver, agency, actor, models.AvailabilityPreferences{MaxShiftsPerWeek: 5, MaxHoursPerWeek: 40})
	if err != nil {
		t.Fatalf("SetPreferences: %v", err)
	}
	rec, _ := store.Get(ctx, caregiver, agency)
	if rec.Preferences == nil || rec.Preferences.MaxShiftsPerWeek != 5 {
		t.Errorf("preferences not stored: %+v", rec.Preferences)
	}

	err = m.SetPreferences(ctx, caregiver, agency, actor, models.AvailabilityPreferences{MaxHoursPerWeek: -1})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestGetAvailableCaregivers_PreservesOrder(t *testing.T) {
	m, _ := newMatcher()
	ctx := context.Background()
	agency, actor := primitive.NewObjectID(), primitive.NewObjectID()

	candidates := make([]primitive.ObjectID, 12)
	for i := range candidates {
		candidates[i] = primitive.NewObjectID()
	}
	// Every third caregiver is off on Monday.
	for i := 0; i < len(candidates); i += 3 {
		if _, err := m.SetOverride(ctx, candidates[i], agency, actor, models.DateOverride{Date: monday, Available: false}); err != nil {
			t.Fatalf("SetOverride: %v", err)
		}
	}

	got, err := m.GetAvailableCaregivers(ctx, candidates, agency, monday, "10:00", "12:00")
	if err != nil {
		t.Fatalf("GetAvailableCaregivers: %v", err)
	}
	var want []primitive.ObjectID
	for i, id := range candidates {
		if i%3 != 0 {
			want = append(want, id)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("got %d caregivers, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %s want %s", i, got[i].Hex(), want[i].Hex())
		}
	}
}

func TestGetAvailableCaregivers_StoreFailure(t *testing.T) {
	m, store := newMatcher()
	store.FailGet = errors.New("boom")
	_, err := m.GetAvailableCaregivers(context.Background(), []primitive.ObjectID{primitive.NewObjectID()}, primitive.NewObjectID(), monday, "10:00", "12:00")
	if err == nil {
		t.Fatal("expected store error to surface")
	}
}
