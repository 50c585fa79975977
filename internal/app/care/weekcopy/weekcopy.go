// Package weekcopy copies one week of scheduled shifts onto another week,
// carrying caregivers where their day load allows and leaving the rest
// unfilled.
package weekcopy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dalemusser/carecoord/internal/app/system/apperr"
	"github.com/dalemusser/carecoord/internal/app/system/auditlog"
	"github.com/dalemusser/carecoord/internal/app/system/caremetrics"
	"github.com/dalemusser/carecoord/internal/app/system/wallclock"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultDayLoadCeiling is the number of distinct elders one caregiver may
// serve on a single day before copies fall back to unfilled.
const DefaultDayLoadCeiling = 3

// sampleNames bounds Preview.SampleElderNames.
const sampleNames = 5

type ShiftStore interface {
	ListActiveInRange(ctx context.Context, agencyID primitive.ObjectID, from, to string) ([]models.ScheduledShift, error)
	Create(ctx context.Context, sh models.ScheduledShift) (models.ScheduledShift, error)
}

type Scheduler struct {
	shifts  ShiftStore
	audit   *auditlog.Logger
	log     *zap.Logger
	ceiling int
	now     func() time.Time
}

func New(shifts ShiftStore, audit *auditlog.Logger, logger *zap.Logger, dayLoadCeiling int) *Scheduler {
	if dayLoadCeiling <= 0 {
		dayLoadCeiling = DefaultDayLoadCeiling
	}
	return &Scheduler{
		shifts:  shifts,
		audit:   audit,
		log:     logger,
		ceiling: dayLoadCeiling,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Options control a copy. The zero value copies nothing across; use
// DefaultOptions for the usual behavior.
type Options struct {
	CopyAssignments bool `json:"copy_assignments"`
	SkipExisting    bool `json:"skip_existing"`
}

func DefaultOptions() Options {
	return Options{CopyAssignments: true, SkipExisting: true}
}

type Result struct {
	BatchID       string   `json:"batch_id"`
	ShiftsCreated int      `json:"shifts_created"`
	Unfilled      int      `json:"unfilled"`
	Skipped       int      `json:"skipped"`
	Warnings      []string `json:"warnings"`
}

type Preview struct {
	SourceShifts     int      `json:"source_shifts"`
	ExistingInTarget int      `json:"existing_in_target"`
	WillCreate       int      `json:"will_create"`
	WillSkip         int      `json:"will_skip"`
	SampleElderNames []string `json:"sample_elder_names"`
}

// weeks holds the shifts both sides of a copy start from.
type weeks struct {
	offset int
	source []models.ScheduledShift
	target []models.ScheduledShift
}

func (s *Scheduler) load(ctx context.Context, agencyID primitive.ObjectID, source, target string) (weeks, error) {
	if agencyID.IsZero() {
		return weeks{}, apperr.Validation("agency_id is required")
	}
	offset, err := wallclock.DaysBetween(source, target)
	if err != nil {
		return weeks{}, err
	}
	if offset == 0 {
		return weeks{}, apperr.Validation("target week must differ from source week")
	}

	var w weeks
	w.offset = offset
	if w.source, err = s.listWeek(ctx, agencyID, source); err != nil {
		return weeks{}, err
	}
	if w.target, err = s.listWeek(ctx, agencyID, target); err != nil {
		return weeks{}, err
	}
	sort.SliceStable(w.source, func(i, j int) bool {
		if w.source[i].Date != w.source[j].Date {
			return w.source[i].Date < w.source[j].Date
		}
		return w.source[i].StartTime < w.source[j].StartTime
	})
	return w, nil
}

func (s *Scheduler) listWeek(ctx context.Context, agencyID primitive.ObjectID, start string) ([]models.ScheduledShift, error) {
	end, err := wallclock.AddDays(start, 6)
	if err != nil {
		return nil, err
	}
	list, err := s.shifts.ListActiveInRange(ctx, agencyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list shifts %s..%s: %w", start, end, err)
	}
	return list, nil
}

func occupancyKey(elderID primitive.ObjectID, date string) string {
	return elderID.Hex() + "@" + date
}

type dayKey struct {
	caregiver primitive.ObjectID
	date      string
}

// addLoad records that the caregiver in dk serves elderID on dk.date.
func addLoad(load map[dayKey]map[primitive.ObjectID]bool, dk dayKey, elderID primitive.ObjectID) {
	if load[dk] == nil {
		load[dk] = make(map[primitive.ObjectID]bool)
	}
	load[dk][elderID] = true
}

// CopyWeekSchedule copies the week starting at source onto the week
// starting at target. Individual write failures become warnings.
func (s *Scheduler) CopyWeekSchedule(ctx context.Context, agencyID primitive.ObjectID, source, target string, userID primitive.ObjectID, opts Options) (Result, error) {
	w, err := s.load(ctx, agencyID, source, target)
	if err != nil {
		return Result{}, err
	}

	occupied := make(map[string]bool, len(w.target))
	dayLoad := make(map[dayKey]map[primitive.ObjectID]bool)
	for _, sh := range w.target {
		if opts.SkipExisting {
			occupied[occupancyKey(sh.ElderID, sh.Date)] = true
		}
		if sh.HasCaregiver() {
			addLoad(dayLoad, dayKey{*sh.CaregiverID, sh.Date}, sh.ElderID)
		}
	}

	res := Result{BatchID: uuid.NewString(), Warnings: []string{}}
	for _, src := range w.source {
		newDate, err := wallclock.AddDays(src.Date, w.offset)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("shift %s has an invalid date", src.ID.Hex()))
			continue
		}
		key := occupancyKey(src.ElderID, newDate)
		if opts.SkipExisting && occupied[key] {
			res.Skipped++
			continue
		}

		sh := s.copyOf(src, newDate, res.BatchID, userID)
		filled := false
		if opts.CopyAssignments && src.HasCaregiver() {
			elders := dayLoad[dayKey{*src.CaregiverID, newDate}]
			if elders[src.ElderID] || len(elders) < s.ceiling {
				cg := *src.CaregiverID
				sh.CaregiverID = &cg
				sh.CaregiverName = src.CaregiverName
				sh.Status = models.ShiftScheduled
				filled = true
			} else {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"%s already has %d elders on %s; shift for %s left unfilled",
					src.CaregiverName, len(elders), newDate, src.ElderName))
			}
		}

		if _, err := s.shifts.Create(ctx, sh); err != nil {
			s.log.Warn("copy shift failed",
				zap.String("agency_id", agencyID.Hex()),
				zap.String("source_shift_id", src.ID.Hex()),
				zap.String("date", newDate),
				zap.Error(err))
			res.Warnings = append(res.Warnings, fmt.Sprintf("could not copy shift for %s on %s: %v", src.ElderName, newDate, err))
			continue
		}
		res.ShiftsCreated++
		if filled {
			addLoad(dayLoad, dayKey{*src.CaregiverID, newDate}, src.ElderID)
		} else {
			res.Unfilled++
		}
	}

	caremetrics.ShiftsCopied("filled", res.ShiftsCreated-res.Unfilled)
	caremetrics.ShiftsCopied("unfilled", res.Unfilled)
	s.audit.WeekCopied(ctx, agencyID, userID, res.BatchID, source, target, res.ShiftsCreated, res.Unfilled, res.Skipped)
	s.log.Info("week copied",
		zap.String("agency_id", agencyID.Hex()),
		zap.String("batch_id", res.BatchID),
		zap.String("source_week", source),
		zap.String("target_week", target),
		zap.Int("created", res.ShiftsCreated),
		zap.Int("unfilled", res.Unfilled),
		zap.Int("skipped", res.Skipped),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

// copyOf builds the unfilled copy of src on date; the caller attaches the
// caregiver when it can.
func (s *Scheduler) copyOf(src models.ScheduledShift, date, batchID string, userID primitive.ObjectID) models.ScheduledShift {
	from := src.ID
	return models.ScheduledShift{
		AgencyID:            src.AgencyID,
		GroupID:             src.GroupID,
		ElderID:             src.ElderID,
		ElderName:           src.ElderName,
		Date:                date,
		StartTime:           src.StartTime,
		EndTime:             src.EndTime,
		DurationMinutes:     src.DurationMinutes,
		Status:              models.ShiftUnfilled,
		Notes:               src.Notes,
		IsRecurring:         src.IsRecurring,
		RecurringScheduleID: src.RecurringScheduleID,
		CopiedFromShiftID:   &from,
		CopyBatchID:         batchID,
		CreatedByID:         userID,
		CreatedAt:           s.now(),
	}
}

// GetCopyPreview reports what CopyWeekSchedule with DefaultOptions would do,
// without writing.
func (s *Scheduler) GetCopyPreview(ctx context.Context, agencyID primitive.ObjectID, source, target string) (Preview, error) {
	w, err := s.load(ctx, agencyID, source, target)
	if err != nil {
		return Preview{}, err
	}

	occupied := make(map[string]bool, len(w.target))
	for _, sh := range w.target {
		occupied[occupancyKey(sh.ElderID, sh.Date)] = true
	}

	p := Preview{
		SourceShifts:     len(w.source),
		ExistingInTarget: len(w.target),
		SampleElderNames: []string{},
	}
	seen := make(map[string]bool)
	for _, src := range w.source {
		if len(p.SampleElderNames) < sampleNames && src.ElderName != "" && !seen[src.ElderName] {
			seen[src.ElderName] = true
			p.SampleElderNames = append(p.SampleElderNames, src.ElderName)
		}
		newDate, err := wallclock.AddDays(src.Date, w.offset)
		if err != nil {
			continue
		}
		key := occupancyKey(src.ElderID, newDate)
		if occupied[key] {
			p.WillSkip++
			continue
		}
		p.WillCreate++
	}
	return p, nil
}
