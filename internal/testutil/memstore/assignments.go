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

type Assignments struct {
	mu    sync.Mutex
	byID  map[primitive.ObjectID]models.CaregiverAssignment
	order []primitive.ObjectID

	FailCreate error
}

func cloneAssignment(a models.CaregiverAssignment) models.CaregiverAssignment {
	a.ElderIDs = cloneIDs(a.ElderIDs)
	return a
}

func (s *Assignments) Create(_ context.Context, a models.CaregiverAssignment) (models.CaregiverAssignment, error) {
	if err := takeErr(&s.mu, &s.FailCreate); err != nil {
		return models.CaregiverAssignment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.AssignedAt.IsZero() {
		a.AssignedAt = now
	}
	a.Active = true
	a.CreatedAt = now
	a.UpdatedAt = now
	s.byID[a.ID] = cloneAssignment(a)
	s.order = append(s.order, a.ID)
	return a, nil
}

// Put stores a as-is, for seeding.
func (s *Assignments) Put(a models.CaregiverAssignment) models.CaregiverAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if _, ok := s.byID[a.ID]; !ok {
		s.order = append(s.order, a.ID)
	}
	s.byID[a.ID] = cloneAssignment(a)
	return a
}

func (s *Assignments) GetByID(_ context.Context, id primitive.ObjectID) (models.CaregiverAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return models.CaregiverAssignment{}, mongo.ErrNoDocuments
	}
	return cloneAssignment(a), nil
}

func (s *Assignments) ListActiveByCaregiver(_ context.Context, agencyID, caregiverID primitive.ObjectID) ([]models.CaregiverAssignment, error) {
	return s.filter(func(a models.CaregiverAssignment) bool {
		return a.Active && a.AgencyID == agencyID && a.CaregiverID == caregiverID
	}), nil
}

func (s *Assignments) ListActiveByAgency(_ context.Context, agencyID primitive.ObjectID) ([]models.CaregiverAssignment, error) {
	out := s.filter(func(a models.CaregiverAssignment) bool {
		return a.Active && a.AgencyID == agencyID
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CaregiverID.Hex() < out[j].CaregiverID.Hex() })
	return out, nil
}

func (s *Assignments) filter(keep func(models.CaregiverAssignment) bool) []models.CaregiverAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CaregiverAssignment
	for _, id := range s.order {
		if a := s.byID[id]; keep(a) {
			out = append(out, cloneAssignment(a))
		}
	}
	return out
}

func (s *Assignments) Deactivate(_ context.Context, id, actorID primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if !a.Active {
		return nil
	}
	actor := actorID
	when := at
	a.Active = false
	a.DeactivatedAt = &when
	a.DeactivatedByID = &actor
	a.UpdatedAt = at
	s.byID[id] = a
	return nil
}

// Count returns the number of stored records, active or not.
func (s *Assignments) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
