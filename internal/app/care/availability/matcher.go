// Package availability decides whether a caregiver can take a time window,
// from a weekly pattern plus per-date overrides, and maintains those records.
package availability

import (
	"context"
	"errors"
	"sort"

	"github.com/dalemusser/carecoord/internal/app/system/apperr"
	"github.com/dalemusser/carecoord/internal/app/system/auditlog"
	"github.com/dalemusser/carecoord/internal/app/system/caremetrics"
	"github.com/dalemusser/carecoord/internal/app/system/locks"
	"github.com/dalemusser/carecoord/internal/app/system/wallclock"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence the matcher needs. Get returns
// mongo.ErrNoDocuments when the caregiver has no record in the agency.
type Store interface {
	Get(ctx context.Context, caregiverID, agencyID primitive.ObjectID) (models.CaregiverAvailability, error)
	Insert(ctx context.Context, a models.CaregiverAvailability) (models.CaregiverAvailability, error)
	SetWeeklyPattern(ctx context.Context, caregiverID, agencyID primitive.ObjectID, days []models.DayAvailability) error
	SetOverrides(ctx context.Context, caregiverID, agencyID primitive.ObjectID, overrides []models.DateOverride) error
	SetPreferences(ctx context.Context, caregiverID, agencyID primitive.ObjectID, p *models.AvailabilityPreferences) error
}

// searchParallelism bounds concurrent lookups in GetAvailableCaregivers.
const searchParallelism = 8

type Matcher struct {
	store  Store
	locker locks.Locker
	audit  *auditlog.Logger
	log    *zap.Logger
}

// New builds a Matcher. A nil locker serializes edits in-process.
func New(store Store, locker locks.Locker, audit *auditlog.Logger, logger *zap.Logger) *Matcher {
	if locker == nil {
		locker = locks.NewLocal()
	}
	return &Matcher{store: store, locker: locker, audit: audit, log: logger}
}

func requireIDs(caregiverID, agencyID primitive.ObjectID) error {
	if caregiverID.IsZero() {
		return apperr.Validation("caregiver_id is required")
	}
	if agencyID.IsZero() {
		return apperr.Validation("agency_id is required")
	}
	return nil
}

// Get returns the caregiver's availability in the agency, creating the
// default Monday to Friday record on first access.
func (m *Matcher) Get(ctx context.Context, caregiverID, agencyID primitive.ObjectID) (models.CaregiverAvailability, error) {
	if err := requireIDs(caregiverID, agencyID); err != nil {
		return models.CaregiverAvailability{}, err
	}
	rec, err := m.store.Get(ctx, caregiverID, agencyID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.CaregiverAvailability{}, err
	}

	rec, err = m.store.Insert(ctx, models.CaregiverAvailability{
		CaregiverID:   caregiverID,
		AgencyID:      agencyID,
		WeeklyPattern: models.DefaultWeeklyPattern(),
		Overrides:     []models.DateOverride{},
	})
	if err == nil {
		m.log.Debug("created default availability",
			zap.String("caregiver_id", caregiverID.Hex()),
			zap.String("agency_id", agencyID.Hex()))
		return rec, nil
	}
	// Lost the creation race; the winner's record is authoritative.
	if again, gerr := m.store.Get(ctx, caregiverID, agencyID); gerr == nil {
		return again, nil
	}
	return models.CaregiverAvailability{}, err
}

// CheckAvailability returns a Conflict when the caregiver cannot take
// [start, end) on date, or nil when the window fits.
func (m *Matcher) CheckAvailability(ctx context.Context, caregiverID, agencyID primitive.ObjectID, date, start, end string) (*Conflict, error) {
	if err := validateWindow(date, start, end); err != nil {
		return nil, err
	}
	rec, err := m.Get(ctx, caregiverID, agencyID)
	if err != nil {
		return nil, err
	}
	c, err := Evaluate(rec, date, start, end)
	if err != nil {
		return nil, err
	}
	caremetrics.AvailabilityCheck(c == nil)
	return c, nil
}

func validateWindow(date, start, end string) error {
	if _, err := wallclock.ParseDate(date); err != nil {
		return err
	}
	_, _, err := wallclock.ParseRange(start, end)
	return err
}

// GetAvailableCaregivers filters candidates down to those free for the
// window, preserving input order. Candidates are checked concurrently.
func (m *Matcher) GetAvailableCaregivers(ctx context.Context, candidates []primitive.ObjectID, agencyID primitive.ObjectID, date, start, end string) ([]primitive.ObjectID, error) {
	if err := validateWindow(date, start, end); err != nil {
		return nil, err
	}
	free := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchParallelism)
	for i, id := range candidates {
		g.Go(func() error {
			c, err := m.CheckAvailability(gctx, id, agencyID, date, start, end)
			if err != nil {
				return err
			}
			free[i] = c == nil
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]primitive.ObjectID, 0, len(candidates))
	for i, id := range candidates {
		if free[i] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *Matcher) lock(ctx context.Context, caregiverID, agencyID primitive.ObjectID) (locks.Unlock, error) {
	return m.locker.Lock(ctx, locks.Key("availability", agencyID.Hex(), caregiverID.Hex()))
}

// SetWeeklyPattern replaces the weekly pattern. Exactly one entry per day
// 0 through 6 is required.
func (m *Matcher) SetWeeklyPattern(ctx context.Context, caregiverID, agencyID, actorID primitive.ObjectID, days []models.DayAvailability) ([]models.DayAvailability, error) {
	if err := requireIDs(caregiverID, agencyID); err != nil {
		return nil, err
	}
	if len(days) != 7 {
		return nil, apperr.Validation("weekly pattern needs 7 days, got %d", len(days))
	}
	seen := make(map[int]bool, 7)
	norm := make([]models.DayAvailability, 0, 7)
	for _, d := range days {
		if d.DayOfWeek < 0 || d.DayOfWeek > 6 {
			return nil, apperr.Validation("day_of_week %d out of range 0-6", d.DayOfWeek)
		}
		if seen[d.DayOfWeek] {
			return nil, apperr.Validation("day_of_week %d appears more than once", d.DayOfWeek)
		}
		seen[d.DayOfWeek] = true
		if err := validateSlots(d.TimeSlots); err != nil {
			return nil, err
		}
		if d.TimeSlots == nil {
			d.TimeSlots = []models.TimeSlot{}
		}
		norm = append(norm, d)
	}
	sort.Slice(norm, func(i, j int) bool { return norm[i].DayOfWeek < norm[j].DayOfWeek })

	unlock, err := m.lock(ctx, caregiverID, agencyID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := m.Get(ctx, caregiverID, agencyID); err != nil {
		return nil, err
	}
	if err := m.store.SetWeeklyPattern(ctx, caregiverID, agencyID, norm); err != nil {
		return nil, err
	}
	m.audit.AvailabilityChanged(ctx, agencyID, caregiverID, actorID, "weekly_pattern")
	return norm, nil
}

func validateSlots(slots []models.TimeSlot) error {
	for _, s := range slots {
		if _, _, err := wallclock.ParseRange(s.Start, s.End); err != nil {
			return err
		}
	}
	return nil
}

// SetOverride installs o, replacing any existing override for the same date.
func (m *Matcher) SetOverride(ctx context.Context, caregiverID, agencyID, actorID primitive.ObjectID, o models.DateOverride) (models.CaregiverAvailability, error) {
	if err := requireIDs(caregiverID, agencyID); err != nil {
		return models.CaregiverAvailability{}, err
	}
	if _, err := wallclock.ParseDate(o.Date); err != nil {
		return models.CaregiverAvailability{}, err
	}
	if !o.Available {
		o.TimeSlots = nil
	}
	if err := validateSlots(o.TimeSlots); err != nil {
		return models.CaregiverAvailability{}, err
	}

	return m.editOverrides(ctx, caregiverID, agencyID, actorID, func(existing []models.DateOverride) []models.DateOverride {
		out := withoutDate(existing, o.Date)
		out = append(out, o)
		sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
		return out
	})
}

// ClearOverride drops the override for date. Clearing a date with no
// override is not an error.
func (m *Matcher) ClearOverride(ctx context.Context, caregiverID, agencyID, actorID primitive.ObjectID, date string) (models.CaregiverAvailability, error) {
	if err := requireIDs(caregiverID, agencyID); err != nil {
		return models.CaregiverAvailability{}, err
	}
	if _, err := wallclock.ParseDate(date); err != nil {
		return models.CaregiverAvailability{}, err
	}
	return m.editOverrides(ctx, caregiverID, agencyID, actorID, func(existing []models.DateOverride) []models.DateOverride {
		return withoutDate(existing, date)
	})
}

func withoutDate(overrides []models.DateOverride, date string) []models.DateOverride {
	out := make([]models.DateOverride, 0, len(overrides)+1)
	for _, o := range overrides {
		if o.Date != date {
			out = append(out, o)
		}
	}
	return out
}

func (m *Matcher) editOverrides(ctx context.Context, caregiverID, agencyID, actorID primitive.ObjectID, edit func([]models.DateOverride) []models.DateOverride) (models.CaregiverAvailability, error) {
	unlock, err := m.lock(ctx, caregiverID, agencyID)
	if err != nil {
		return models.CaregiverAvailability{}, err
	}
	defer unlock()

	rec, err := m.Get(ctx, caregiverID, agencyID)
	if err != nil {
		return models.CaregiverAvailability{}, err
	}
	rec.Overrides = edit(rec.Overrides)
	if err := m.store.SetOverrides(ctx, caregiverID, agencyID, rec.Overrides); err != nil {
		return models.CaregiverAvailability{}, err
	}
	m.audit.AvailabilityChanged(ctx, agencyID, caregiverID, actorID, "override")
	return rec, nil
}

// SetPreferences replaces the advisory scheduling preferences.
func (m *Matcher) SetPreferences(ctx context.Context, caregiverID, agencyID, actorID primitive.ObjectID, p models.AvailabilityPreferences) error {
	if err := requireIDs(caregiverID, agencyID); err != nil {
		return err
	}
	if p.MaxShiftsPerWeek < 0 || p.MaxHoursPerWeek < 0 {
		return apperr.Validation("preference limits must not be negative")
	}
	if p.MaxHoursPerWeek > 7*24 {
		return apperr.Validation("max_hours_per_week cannot exceed %d", 7*24)
	}

	unlock, err := m.lock(ctx, caregiverID, agencyID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := m.Get(ctx, caregiverID, agencyID); err != nil {
		return err
	}
	if err := m.store.SetPreferences(ctx, caregiverID, agencyID, &p); err != nil {
		return err
	}
	m.audit.AvailabilityChanged(ctx, agencyID, caregiverID, actorID, "preferences")
	return nil
}
