package memstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrAvailabilityExists mirrors the unique (caregiver, agency) index.
var ErrAvailabilityExists = errors.New("availability already exists for this caregiver")

type Availability struct {
	mu    sync.Mutex
	byKey map[pairKey]models.CaregiverAvailability

	FailGet error
}

func cloneAvailability(a models.CaregiverAvailability) models.CaregiverAvailability {
	days := make([]models.DayAvailability, len(a.WeeklyPattern))
	for i, d := range a.WeeklyPattern {
		d.TimeSlots = append([]models.TimeSlot(nil), d.TimeSlots...)
		days[i] = d
	}
	a.WeeklyPattern = days
	ovs := make([]models.DateOverride, len(a.Overrides))
	for i, o := range a.Overrides {
		o.TimeSlots = append([]models.TimeSlot(nil), o.TimeSlots...)
		ovs[i] = o
	}
	a.Overrides = ovs
	if a.Preferences != nil {
		p := *a.Preferences
		a.Preferences = &p
	}
	return a
}

func (s *Availability) Get(_ context.Context, caregiverID, agencyID primitive.ObjectID) (models.CaregiverAvailability, error) {
	if err := takeErr(&s.mu, &s.FailGet); err != nil {
		return models.CaregiverAvailability{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byKey[pairKey{caregiverID, agencyID}]
	if !ok {
		return models.CaregiverAvailability{}, mongo.ErrNoDocuments
	}
	return cloneAvailability(a), nil
}

func (s *Availability) Insert(_ context.Context, a models.CaregiverAvailability) (models.CaregiverAvailability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{a.CaregiverID, a.AgencyID}
	if _, ok := s.byKey[k]; ok {
		return models.CaregiverAvailability{}, ErrAvailabilityExists
	}
	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	s.byKey[k] = cloneAvailability(a)
	return a, nil
}

func (s *Availability) SetWeeklyPattern(_ context.Context, caregiverID, agencyID primitive.ObjectID, days []models.DayAvailability) error {
	return s.update(caregiverID, agencyID, func(a *models.CaregiverAvailability) { a.WeeklyPattern = days })
}

func (s *Availability) SetOverrides(_ context.Context, caregiverID, agencyID primitive.ObjectID, overrides []models.DateOverride) error {
	return s.update(caregiverID, agencyID, func(a *models.CaregiverAvailability) { a.Overrides = overrides })
}

func (s *Availability) SetPreferences(_ context.Context, caregiverID, agencyID primitive.ObjectID, p *models.AvailabilityPreferences) error {
	return s.update(caregiverID, agencyID, func(a *models.CaregiverAvailability) { a.Preferences = p })
}

func (s *Availability) update(caregiverID, agencyID primitive.ObjectID, fn func(*models.CaregiverAvailability)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{caregiverID, agencyID}
	a, ok := s.byKey[k]
	if !ok {
		return mongo.ErrNoDocuments
	}
	fn(&a)
	a.UpdatedAt = time.Now().UTC()
	s.byKey[k] = cloneAvailability(a)
	return nil
}

// Len returns the number of stored records.
func (s *Availability) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey)
}
