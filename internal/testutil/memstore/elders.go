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

// Elders doubles the elder store together with the transfer log.
type Elders struct {
	mu        sync.Mutex
	byID      map[primitive.ObjectID]models.Elder
	transfers []models.PrimaryCaregiverTransfer

	FailCommit error
}

// Put stores e, assigning an id when missing.
func (s *Elders) Put(e models.Elder) models.Elder {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	s.byID[e.ID] = e
	return e
}

func (s *Elders) GetByID(_ context.Context, id primitive.ObjectID) (models.Elder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return models.Elder{}, mongo.ErrNoDocuments
	}
	return e, nil
}

func (s *Elders) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Elder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Elder
	for _, id := range ids {
		if e, ok := s.byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Elders) SetPrimary(_ context.Context, elderID primitive.ObjectID, ref models.PrimaryRef, actorID primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[elderID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	applyPrimary(&e, &ref, actorID, at)
	s.byID[elderID] = e
	return nil
}

func applyPrimary(e *models.Elder, ref *models.PrimaryRef, actorID primitive.ObjectID, at time.Time) {
	if ref == nil {
		e.PrimaryCaregiverID = nil
		e.PrimaryCaregiverName = ""
		e.PrimaryCaregiverAssignedAt = nil
		e.PrimaryCaregiverAssignedBy = nil
	} else {
		id := ref.CaregiverID
		actor := actorID
		when := at
		e.PrimaryCaregiverID = &id
		e.PrimaryCaregiverName = ref.Name
		e.PrimaryCaregiverAssignedAt = &when
		e.PrimaryCaregiverAssignedBy = &actor
	}
	e.UpdatedAt = at
}

// CommitPrimaryChange applies both writes under one lock, which is the
// in-memory equivalent of the Mongo transaction.
func (s *Elders) CommitPrimaryChange(_ context.Context, change models.PrimaryChange, rec models.PrimaryCaregiverTransfer) error {
	if err := takeErr(&s.mu, &s.FailCommit); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[change.ElderID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	applyPrimary(&e, change.Next, change.ActorID, change.At)
	s.byID[change.ElderID] = e
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	s.transfers = append(s.transfers, rec)
	return nil
}

func (s *Elders) ListTransfers(_ context.Context, elderID primitive.ObjectID) ([]models.PrimaryCaregiverTransfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PrimaryCaregiverTransfer
	for i := len(s.transfers) - 1; i >= 0; i-- {
		if s.transfers[i].ElderID == elderID {
			out = append(out, s.transfers[i])
		}
	}
	// newest first; later appends win timestamp ties
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// TransferCount returns the number of log records across all elders.
func (s *Elders) TransferCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transfers)
}
