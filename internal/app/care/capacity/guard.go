// Package capacity enforces the two ceilings an assignment must respect: the
// number of elders one caregiver may hold in an agency, and the number of
// caregivers the agency's plan allows.
package capacity

import (
	"context"
	"fmt"

	"github.com/dalemusser/carecoord/internal/app/system/apperr"
	"github.com/dalemusser/carecoord/internal/app/system/planlimits"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AssignmentLister is the slice of the assignment store the guard reads.
type AssignmentLister interface {
	ListActiveByCaregiver(ctx context.Context, agencyID, caregiverID primitive.ObjectID) ([]models.CaregiverAssignment, error)
}

// DefaultSlotMessage is used when the plan limits service rejects without
// saying why.
const DefaultSlotMessage = "Caregiver limit reached for this agency's plan."

type Guard struct {
	assignments AssignmentLister
	plans       planlimits.Checker
	log         *zap.Logger
}

func New(assignments AssignmentLister, plans planlimits.Checker, logger *zap.Logger) *Guard {
	if plans == nil {
		plans = planlimits.NewStatic()
	}
	return &Guard{assignments: assignments, plans: plans, log: logger}
}

// Load describes a caregiver's elder headroom in one agency.
type Load struct {
	Current   int `json:"current"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// CurrentLoad sums the elders across the caregiver's active assignments in
// the agency. It is recomputed on every call.
func (g *Guard) CurrentLoad(ctx context.Context, agencyID, caregiverID primitive.ObjectID) (int, error) {
	list, err := g.assignments.ListActiveByCaregiver(ctx, agencyID, caregiverID)
	if err != nil {
		return 0, fmt.Errorf("list active assignments: %w", err)
	}
	n := 0
	for _, a := range list {
		n += len(a.ElderIDs)
	}
	return n, nil
}

// Load returns current load, the agency ceiling, and what is left.
func (g *Guard) Load(ctx context.Context, agency models.Agency, caregiverID primitive.ObjectID) (Load, error) {
	current, err := g.CurrentLoad(ctx, agency.ID, caregiverID)
	if err != nil {
		return Load{}, err
	}
	limit := agency.ElderCeiling()
	remaining := limit - current
	if remaining < 0 {
		remaining = 0
	}
	return Load{Current: current, Limit: limit, Remaining: remaining}, nil
}

// CheckElderCapacity fails with CapacityExceeded when adding n elders would
// take the caregiver past the agency ceiling.
func (g *Guard) CheckElderCapacity(ctx context.Context, agency models.Agency, caregiverID primitive.ObjectID, n int) error {
	current, err := g.CurrentLoad(ctx, agency.ID, caregiverID)
	if err != nil {
		return err
	}
	limit := agency.ElderCeiling()
	if current+n > limit {
		g.log.Info("elder capacity exceeded",
			zap.String("agency_id", agency.ID.Hex()),
			zap.String("caregiver_id", caregiverID.Hex()),
			zap.Int("current", current),
			zap.Int("requested", n),
			zap.Int("limit", limit))
		return apperr.CapacityExceeded(
			"Cannot assign %d more elder(s). Caregiver already has %d elder(s) assigned. Limit is %d elders per caregiver.",
			n, current, limit)
	}
	return nil
}

// CheckCaregiverSlot asks the plan limits service whether a caregiver who is
// new to the agency may join. Caregivers already on the roster always pass.
func (g *Guard) CheckCaregiverSlot(ctx context.Context, agency models.Agency, caregiverID primitive.ObjectID) error {
	if agency.HasCaregiver(caregiverID) {
		return nil
	}
	d, err := g.plans.CanAddCaregiver(ctx, agency)
	if err != nil {
		return err
	}
	if !d.Allowed {
		msg := d.Message
		if msg == "" {
			msg = DefaultSlotMessage
		}
		return apperr.CapacityExceeded("%s", msg)
	}
	return nil
}
