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

// Memberships doubles caregiver_memberships.
type Memberships struct {
	mu    sync.Mutex
	byKey map[pairKey]models.CaregiverMembership

	FailMerge error
}

func (s *Memberships) Merge(_ context.Context, m models.CaregiverMembership) error {
	if err := takeErr(&s.mu, &s.FailMerge); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	k := pairKey{m.CaregiverID, m.AgencyID}
	cur, ok := s.byKey[k]
	if !ok {
		cur = models.CaregiverMembership{
			ID:               primitive.NewObjectID(),
			CaregiverID:      m.CaregiverID,
			AgencyID:         m.AgencyID,
			Role:             m.Role,
			Status:           "active",
			AssignedElderIDs: []primitive.ObjectID{},
			AssignedGroupIDs: []primitive.ObjectID{},
			JoinedAt:         now,
		}
	}
	cur.AssignedElderIDs = unionIDs(cloneIDs(cur.AssignedElderIDs), m.AssignedElderIDs)
	cur.AssignedGroupIDs = unionIDs(cloneIDs(cur.AssignedGroupIDs), m.AssignedGroupIDs)
	cur.UpdatedAt = now
	s.byKey[k] = cur
	return nil
}

func (s *Memberships) Get(_ context.Context, caregiverID, agencyID primitive.ObjectID) (models.CaregiverMembership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byKey[pairKey{caregiverID, agencyID}]
	if !ok {
		return models.CaregiverMembership{}, mongo.ErrNoDocuments
	}
	m.AssignedElderIDs = cloneIDs(m.AssignedElderIDs)
	m.AssignedGroupIDs = cloneIDs(m.AssignedGroupIDs)
	return m, nil
}

// ErrDuplicateMembership mirrors the unique (group, user) index.
var ErrDuplicateMembership = errors.New("user is already a member of this group")

// GroupMembers doubles group_memberships.
type GroupMembers struct {
	mu    sync.Mutex
	byKey map[pairKey]models.GroupMembership

	FailEnsure error
}

// Ensure inserts m unless (group, user) already exists.
func (s *GroupMembers) Ensure(_ context.Context, m models.GroupMembership) error {
	if err := takeErr(&s.mu, &s.FailEnsure); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{m.GroupID, m.UserID}
	if _, ok := s.byKey[k]; ok {
		return nil
	}
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.byKey[k] = m
	return nil
}

// Get returns the membership for (group, user).
func (s *GroupMembers) Get(groupID, userID primitive.ObjectID) (models.GroupMembership, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byKey[pairKey{groupID, userID}]
	return m, ok
}

// Len returns the number of memberships.
func (s *GroupMembers) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey)
}
