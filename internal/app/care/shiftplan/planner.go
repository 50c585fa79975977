// Package shiftplan creates and cancels individual shifts, checking the
// caregiver's availability and day load before a caregiver is attached.
package shiftplan

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/carecoord/internal/app/care/availability"
	"github.com/dalemusser/carecoord/internal/app/system/apperr"
	"github.com/dalemusser/carecoord/internal/app/system/auditlog"
	"github.com/dalemusser/carecoord/internal/app/system/inputval"
	"github.com/dalemusser/carecoord/internal/app/system/locks"
	"github.com/dalemusser/carecoord/internal/app/system/wallclock"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultDayLoadCeiling is the number of distinct elders a caregiver may be
// scheduled with on one day.
const DefaultDayLoadCeiling = 3

// MaxListDays bounds the date range ListShifts accepts.
const MaxListDays = 92

type ShiftStore interface {
	Create(ctx context.Context, sh models.ScheduledShift) (models.ScheduledShift, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.ScheduledShift, error)
	ListActiveInRange(ctx context.Context, agencyID primitive.ObjectID, from, to string) ([]models.ScheduledShift, error)
	ListActiveForCaregiverOnDate(ctx context.Context, agencyID, caregiverID primitive.ObjectID, date string) ([]models.ScheduledShift, error)
	Cancel(ctx context.Context, id, actorID primitive.ObjectID, at time.Time) error
}

type ElderReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Elder, error)
}

type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, caregiverID, agencyID primitive.ObjectID, date, start, end string) (*availability.Conflict, error)
}

type UserNames interface {
	DisplayName(ctx context.Context, id primitive.ObjectID) (string, error)
}

type Planner struct {
	shifts  ShiftStore
	elders  ElderReader
	avail   AvailabilityChecker
	users   UserNames
	locker  locks.Locker
	audit   *auditlog.Logger
	log     *zap.Logger
	ceiling int
	now     func() time.Time
}

func New(shifts ShiftStore, elders ElderReader, avail AvailabilityChecker, users UserNames, locker locks.Locker, audit *auditlog.Logger, logger *zap.Logger, dayLoadCeiling int) *Planner {
	if locker == nil {
		locker = locks.NewLocal()
	}
	if dayLoadCeiling <= 0 {
		dayLoadCeiling = DefaultDayLoadCeiling
	}
	return &Planner{
		shifts:  shifts,
		elders:  elders,
		avail:   avail,
		users:   users,
		locker:  locker,
		audit:   audit,
		log:     logger,
		ceiling: dayLoadCeiling,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type CreateRequest struct {
	AgencyID    primitive.ObjectID  `json:"agency_id" validate:"required"`
	ElderID     primitive.ObjectID  `json:"elder_id" validate:"required"`
	CaregiverID *primitive.ObjectID `json:"caregiver_id,omitempty"`
	Date        string              `json:"date" validate:"required,date"`
	StartTime   string              `json:"start_time" validate:"required,clock"`
	EndTime     string              `json:"end_time" validate:"required,clock"`
	Notes       string              `json:"notes,omitempty"`
	CreatedBy   primitive.ObjectID  `json:"created_by" validate:"required"`
}

// CreateShift schedules one shift. Without a caregiver the shift is stored
// as unfilled.
func (p *Planner) CreateShift(ctx context.Context, req CreateRequest) (models.ScheduledShift, error) {
	if err := inputval.Struct(req); err != nil {
		return models.ScheduledShift{}, err
	}
	start, end, err := wallclock.ParseRange(req.StartTime, req.EndTime)
	if err != nil {
		return models.ScheduledShift{}, err
	}

	elder, err := p.elders.GetByID(ctx, req.ElderID)
	if err != nil {
		return models.ScheduledShift{}, apperr.FromStore(err, "elder")
	}
	if elder.AgencyID != req.AgencyID {
		return models.ScheduledShift{}, apperr.Validation("elder does not belong to this agency")
	}

	sh := models.ScheduledShift{
		AgencyID:        req.AgencyID,
		GroupID:         elder.GroupID,
		ElderID:         elder.ID,
		ElderName:       elder.Name,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: end - start,
		Status:          models.ShiftUnfilled,
		Notes:           req.Notes,
		CreatedByID:     req.CreatedBy,
		CreatedAt:       p.now(),
	}

	if req.CaregiverID == nil || req.CaregiverID.IsZero() {
		return p.create(ctx, sh)
	}

	caregiverID := *req.CaregiverID
	unlock, err := p.locker.Lock(ctx, locks.Key("shiftday", req.AgencyID.Hex(), caregiverID.Hex(), req.Date))
	if err != nil {
		return models.ScheduledShift{}, err
	}
	defer unlock()

	if err := p.checkCaregiver(ctx, req, caregiverID); err != nil {
		return models.ScheduledShift{}, err
	}
	sh.CaregiverID = &caregiverID
	sh.CaregiverName = p.caregiverName(ctx, caregiverID)
	sh.Status = models.ShiftScheduled
	return p.create(ctx, sh)
}

func (p *Planner) checkCaregiver(ctx context.Context, req CreateRequest, caregiverID primitive.ObjectID) error {
	conflict, err := p.avail.CheckAvailability(ctx, caregiverID, req.AgencyID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return err
	}
	if conflict != nil {
		return apperr.Validation("caregiver is not available on %s from %s to %s (%s)",
			req.Date, req.StartTime, req.EndTime, conflict.Reason)
	}

	day, err := p.shifts.ListActiveForCaregiverOnDate(ctx, req.AgencyID, caregiverID, req.Date)
	if err != nil {
		return fmt.Errorf("list caregiver shifts: %w", err)
	}
	others := make(map[primitive.ObjectID]bool)
	for _, s := range day {
		if s.ElderID != req.ElderID {
			others[s.ElderID] = true
		}
	}
	if len(others) >= p.ceiling {
		return apperr.CapacityExceeded("Caregiver already has %d elder(s) scheduled on %s. Limit is %d elders per day.",
			len(others), req.Date, p.ceiling)
	}
	return nil
}

func (p *Planner) caregiverName(ctx context.Context, id primitive.ObjectID) string {
	name, err := p.users.DisplayName(ctx, id)
	if err != nil || name == "" {
		return "Unknown"
	}
	return name
}

func (p *Planner) create(ctx context.Context, sh models.ScheduledShift) (models.ScheduledShift, error) {
	created, err := p.shifts.Create(ctx, sh)
	if err != nil {
		p.log.Error("create shift failed",
			zap.String("agency_id", sh.AgencyID.Hex()),
			zap.String("elder_id", sh.ElderID.Hex()),
			zap.String("date", sh.Date),
			zap.Error(err))
		return models.ScheduledShift{}, fmt.Errorf("create shift: %w", err)
	}
	p.audit.ShiftCreated(ctx, created.AgencyID, created.CreatedByID, created.ID, created.CaregiverID, created.Date)
	return created, nil
}

// CancelShift marks the shift cancelled. The record is kept.
func (p *Planner) CancelShift(ctx context.Context, id, actorID primitive.ObjectID) (models.ScheduledShift, error) {
	sh, err := p.shifts.GetByID(ctx, id)
	if err != nil {
		return models.ScheduledShift{}, apperr.FromStore(err, "shift")
	}
	if sh.Status == models.ShiftCancelled {
		return sh, nil
	}
	if err := p.shifts.Cancel(ctx, id, actorID, p.now()); err != nil {
		return models.ScheduledShift{}, apperr.FromStore(err, "shift")
	}
	p.audit.ShiftCancelled(ctx, sh.AgencyID, actorID, sh.ID)
	p.log.Info("shift cancelled",
		zap.String("shift_id", id.Hex()),
		zap.String("actor_id", actorID.Hex()))

	sh, err = p.shifts.GetByID(ctx, id)
	if err != nil {
		return models.ScheduledShift{}, apperr.FromStore(err, "shift")
	}
	return sh, nil
}

// ListShifts returns the agency's non-cancelled shifts dated from through to,
// ordered by date then start time.
func (p *Planner) ListShifts(ctx context.Context, agencyID primitive.ObjectID, from, to string) ([]models.ScheduledShift, error) {
	if agencyID.IsZero() {
		return nil, apperr.Validation("agency_id is required")
	}
	span, err := wallclock.DaysBetween(from, to)
	if err != nil {
		return nil, err
	}
	if span < 0 {
		return nil, apperr.Validation("from must not be after to")
	}
	if span >= MaxListDays {
		return nil, apperr.Validation("date range cannot exceed %d days", MaxListDays)
	}
	list, err := p.shifts.ListActiveInRange(ctx, agencyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	if list == nil {
		list = []models.ScheduledShift{}
	}
	return list, nil
}
