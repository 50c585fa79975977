// Package memstore holds in-memory doubles for the Mongo stores so the care
// services can be tested without a database. Each type mirrors the store
// package of the same collection, including mongo.ErrNoDocuments on misses.
// Fail* fields inject errors for the next matching call.
package memstore

import (
	"sync"

	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DB bundles one double per collection.
type DB struct {
	Agencies     *Agencies
	Elders       *Elders
	Assignments  *Assignments
	Availability *Availability
	Shifts       *Shifts
	Memberships  *Memberships
	GroupMembers *GroupMembers
	Users        *Users
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		Agencies:     &Agencies{byID: map[primitive.ObjectID]models.Agency{}},
		Elders:       &Elders{byID: map[primitive.ObjectID]models.Elder{}},
		Assignments:  &Assignments{byID: map[primitive.ObjectID]models.CaregiverAssignment{}},
		Availability: &Availability{byKey: map[pairKey]models.CaregiverAvailability{}},
		Shifts:       &Shifts{byID: map[primitive.ObjectID]models.ScheduledShift{}},
		Memberships:  &Memberships{byKey: map[pairKey]models.CaregiverMembership{}},
		GroupMembers: &GroupMembers{byKey: map[pairKey]models.GroupMembership{}},
		Users:        &Users{names: map[primitive.ObjectID]string{}},
	}
}

type pairKey struct {
	a, b primitive.ObjectID
}

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return nil
	}
	out := make([]primitive.ObjectID, len(ids))
	copy(out, ids)
	return out
}

func unionIDs(into []primitive.ObjectID, add []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(into))
	for _, id := range into {
		seen[id] = true
	}
	for _, id := range add {
		if !seen[id] {
			seen[id] = true
			into = append(into, id)
		}
	}
	return into
}

// takeErr returns *p and clears it, under mu.
func takeErr(mu *sync.Mutex, p *error) error {
	mu.Lock()
	defer mu.Unlock()
	err := *p
	*p = nil
	return err
}
