package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Agencies struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.Agency

	FailAddCaregiver error
}

// Put stores a, assigning an id when missing.
func (s *Agencies) Put(a models.Agency) models.Agency {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.Status == "" {
		a.Status = "active"
	}
	s.byID[a.ID] = cloneAgency(a)
	return a
}

func cloneAgency(a models.Agency) models.Agency {
	a.GroupIDs = cloneIDs(a.GroupIDs)
	a.CaregiverIDs = cloneIDs(a.CaregiverIDs)
	return a
}

func (s *Agencies) GetByID(_ context.Context, id primitive.ObjectID) (models.Agency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return models.Agency{}, mongo.ErrNoDocuments
	}
	return cloneAgency(a), nil
}

func (s *Agencies) AddCaregiver(_ context.Context, agencyID, caregiverID primitive.ObjectID) error {
	if err := takeErr(&s.mu, &s.FailAddCaregiver); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[agencyID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	a.CaregiverIDs = unionIDs(a.CaregiverIDs, []primitive.ObjectID{caregiverID})
	a.UpdatedAt = time.Now().UTC()
	s.byID[agencyID] = a
	return nil
}

func (s *Agencies) SetOwner(_ context.Context, agencyID, ownerID primitive.ObjectID) error {
	return s.update(agencyID, func(a *models.Agency) { a.SuperAdminID = ownerID })
}

func (s *Agencies) SetElderCeiling(_ context.Context, agencyID primitive.ObjectID, n int) error {
	return s.update(agencyID, func(a *models.Agency) { a.MaxEldersPerCaregiver = n })
}

func (s *Agencies) update(id primitive.ObjectID, fn func(*models.Agency)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	fn(&a)
	a.UpdatedAt = time.Now().UTC()
	s.byID[id] = a
	return nil
}
