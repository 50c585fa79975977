package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Shifts struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.ScheduledShift

	// FailCreate, when set, is consulted for every Create; a non-nil
	// return fails that write.
	FailCreate func(models.ScheduledShift) error
}

func (s *Shifts) Create(_ context.Context, sh models.ScheduledShift) (models.ScheduledShift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate != nil {
		if err := s.FailCreate(sh); err != nil {
			return models.ScheduledShift{}, err
		}
	}
	now := time.Now().UTC()
	if sh.ID.IsZero() {
		sh.ID = primitive.NewObjectID()
	}
	sh.CreatedAt = now
	sh.UpdatedAt = now
	s.byID[sh.ID] = sh
	return sh, nil
}

// Put stores sh as-is, for seeding.
func (s *Shifts) Put(sh models.ScheduledShift) models.ScheduledShift {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh.ID.IsZero() {
		sh.ID = primitive.NewObjectID()
	}
	if sh.Status == "" {
		sh.Status = models.ShiftScheduled
	}
	s.byID[sh.ID] = sh
	return sh
}

func (s *Shifts) GetByID(_ context.Context, id primitive.ObjectID) (models.ScheduledShift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.byID[id]
	if !ok {
		return models.ScheduledShift{}, mongo.ErrNoDocuments
	}
	return sh, nil
}

func (s *Shifts) ListActiveInRange(_ context.Context, agencyID primitive.ObjectID, from, to string) ([]models.ScheduledShift, error) {
	return s.filter(func(sh models.ScheduledShift) bool {
		return sh.AgencyID == agencyID && sh.Date >= from && sh.Date <= to
	}), nil
}

func (s *Shifts) ListActiveForCaregiverOnDate(_ context.Context, agencyID, caregiverID primitive.ObjectID, date string) ([]models.ScheduledShift, error) {
	return s.filter(func(sh models.ScheduledShift) bool {
		return sh.AgencyID == agencyID && sh.Date == date && sh.HasCaregiver() && *sh.CaregiverID == caregiverID
	}), nil
}

func (s *Shifts) filter(keep func(models.ScheduledShift) bool) []models.ScheduledShift {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScheduledShift
	for _, sh := range s.byID {
		if sh.Status != models.ShiftCancelled && keep(sh) {
			out = append(out, sh)
		}
	}
	sortShifts(out)
	return out
}

func sortShifts(out []models.ScheduledShift) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
}

func (s *Shifts) Cancel(_ context.Context, id, actorID primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.byID[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if sh.Status == models.ShiftCancelled {
		return nil
	}
	actor := actorID
	when := at
	sh.Status = models.ShiftCancelled
	sh.CancelledAt = &when
	sh.CancelledByID = &actor
	sh.UpdatedAt = at
	s.byID[id] = sh
	return nil
}

// All returns every stored shift, cancelled included, ordered by date and start.
func (s *Shifts) All() []models.ScheduledShift {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ScheduledShift, 0, len(s.byID))
	for _, sh := range s.byID {
		out = append(out, sh)
	}
	sortShifts(out)
	return out
}
