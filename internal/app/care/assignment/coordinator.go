// Package assignment links caregivers to elders inside an agency. The
// coordinator owns the ordering: validate, detect primary conflicts, enforce
// capacity, persist, and then fan out to the roster, membership, primary and
// group records.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/carecoord/internal/app/care/capacity"
	"github.com/dalemusser/carecoord/internal/app/care/primary"
	"github.com/dalemusser/carecoord/internal/app/system/apperr"
	"github.com/dalemusser/carecoord/internal/app/system/auditlog"
	"github.com/dalemusser/carecoord/internal/app/system/caremetrics"
	"github.com/dalemusser/carecoord/internal/app/system/inputval"
	"github.com/dalemusser/carecoord/internal/app/system/locks"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UnknownCaregiverName is recorded when the profile lookup fails.
const UnknownCaregiverName = "Unknown"

type AgencyStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Agency, error)
	AddCaregiver(ctx context.Context, agencyID, caregiverID primitive.ObjectID) error
}

type ElderReader interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Elder, error)
}

type AssignmentStore interface {
	Create(ctx context.Context, a models.CaregiverAssignment) (models.CaregiverAssignment, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.CaregiverAssignment, error)
	ListActiveByCaregiver(ctx context.Context, agencyID, caregiverID primitive.ObjectID) ([]models.CaregiverAssignment, error)
	Deactivate(ctx context.Context, id, actorID primitive.ObjectID, at time.Time) error
}

type MembershipStore interface {
	Merge(ctx context.Context, m models.CaregiverMembership) error
}

type GroupMembershipStore interface {
	Ensure(ctx context.Context, m models.GroupMembership) error
}

type UserNames interface {
	DisplayName(ctx context.Context, id primitive.ObjectID) (string, error)
}

// Deps wires a Coordinator.
type Deps struct {
	Agencies     AgencyStore
	Elders       ElderReader
	Assignments  AssignmentStore
	Memberships  MembershipStore
	GroupMembers GroupMembershipStore
	Users        UserNames
	Capacity     *capacity.Guard
	Primary      *primary.Registry
	Locker       locks.Locker
	Audit        *auditlog.Logger
	Logger       *zap.Logger
}

type Coordinator struct {
	Deps
	now func() time.Time
}

func New(d Deps) *Coordinator {
	if d.Locker == nil {
		d.Locker = locks.NewLocal()
	}
	return &Coordinator{Deps: d, now: func() time.Time { return time.Now().UTC() }}
}

// Request is one assignment of a caregiver to a batch of elders.
type Request struct {
	AgencyID        primitive.ObjectID            `json:"agency_id" validate:"required"`
	CaregiverID     primitive.ObjectID            `json:"caregiver_id" validate:"required"`
	ElderIDs        []primitive.ObjectID          `json:"elder_ids" validate:"required,min=1,unique,dive,required"`
	GroupID         primitive.ObjectID            `json:"group_id" validate:"required"`
	AssignedBy      primitive.ObjectID            `json:"assigned_by" validate:"required"`
	Role            string                        `json:"role" validate:"omitempty,oneof=caregiver caregiver_admin"`
	Permissions     *models.AssignmentPermissions `json:"permissions,omitempty"`
	AssignAsPrimary bool                          `json:"assign_as_primary"`
	ForceTransfer   bool                          `json:"force_transfer"`
}

// Outcomes of Assign.
const (
	OutcomeCreated  = "created"
	OutcomeConflict = "conflict"
)

// Result is either a created assignment (with any side-effect warnings) or
// the primary conflicts the caller must confirm before retrying with
// ForceTransfer. A created assignment can also carry conflicts for elders
// another caregiver claimed after the check; those elders keep that primary.
type Result struct {
	Outcome      string              `json:"outcome"`
	AssignmentID *primitive.ObjectID `json:"assignment_id,omitempty"`
	Conflicts    []primary.Conflict  `json:"conflicts,omitempty"`
	Warnings     []string            `json:"warnings,omitempty"`
}

// DefaultPermissions returns the bundle granted when the request names none.
func DefaultPermissions(role string, isPrimary bool) models.AssignmentPermissions {
	if role == models.RoleCaregiverAdmin || isPrimary {
		return models.FullPermissions()
	}
	return models.LogOnlyPermissions()
}

// Assign runs the whole assignment under the (agency, caregiver) lock.
func (c *Coordinator) Assign(ctx context.Context, req Request) (Result, error) {
	if req.Role == "" {
		req.Role = models.RoleCaregiver
	}
	if err := inputval.Struct(req); err != nil {
		caremetrics.Assignment(caremetrics.OutcomeInvalid)
		return Result{}, err
	}

	unlock, err := c.Locker.Lock(ctx, locks.Key("assign", req.AgencyID.Hex(), req.CaregiverID.Hex()))
	if err != nil {
		caremetrics.Assignment(caremetrics.OutcomeError)
		return Result{}, err
	}
	defer unlock()

	res, err := c.assign(ctx, req)
	switch {
	case err == nil && res.Outcome == OutcomeConflict:
		caremetrics.Assignment(caremetrics.OutcomeConflict)
	case err == nil:
		caremetrics.Assignment(caremetrics.OutcomeCreated)
	case errors.Is(err, apperr.ErrCapacityExceeded):
		caremetrics.Assignment(caremetrics.OutcomeCapacity)
	case errors.Is(err, apperr.ErrNotFound):
		caremetrics.Assignment(caremetrics.OutcomeNotFound)
	case errors.Is(err, apperr.ErrValidation):
		caremetrics.Assignment(caremetrics.OutcomeInvalid)
	default:
		caremetrics.Assignment(caremetrics.OutcomeError)
	}
	return res, err
}

func (c *Coordinator) assign(ctx context.Context, req Request) (Result, error) {
	agency, err := c.Agencies.GetByID(ctx, req.AgencyID)
	if err != nil {
		return Result{}, apperr.FromStore(err, "agency")
	}
	if !agency.OwnsGroup(req.GroupID) {
		return Result{}, apperr.Validation("group does not belong to this agency")
	}
	if err := c.checkElders(ctx, agency.ID, req.GroupID, req.ElderIDs); err != nil {
		return Result{}, err
	}

	name := c.caregiverName(ctx, req.CaregiverID)
	isPrimary := req.AssignAsPrimary || req.ForceTransfer

	if req.AssignAsPrimary && !req.ForceTransfer {
		conflicts, err := c.Primary.CheckConflicts(ctx, req.ElderIDs, req.CaregiverID, name, true)
		if err != nil {
			return Result{}, err
		}
		if len(conflicts) > 0 {
			c.Logger.Info("primary caregiver conflict",
				zap.String("agency_id", agency.ID.Hex()),
				zap.String("caregiver_id", req.CaregiverID.Hex()),
				zap.Int("conflicts", len(conflicts)))
			return Result{Outcome: OutcomeConflict, Conflicts: conflicts}, nil
		}
	}

	if err := c.Capacity.CheckElderCapacity(ctx, agency, req.CaregiverID, len(req.ElderIDs)); err != nil {
		return Result{}, err
	}

	perms := DefaultPermissions(req.Role, isPrimary)
	if req.Permissions != nil {
		perms = *req.Permissions
	}
	rec, err := c.Assignments.Create(ctx, models.CaregiverAssignment{
		AgencyID:      agency.ID,
		CaregiverID:   req.CaregiverID,
		CaregiverName: name,
		ElderIDs:      req.ElderIDs,
		GroupID:       req.GroupID,
		Role:          req.Role,
		Permissions:   perms,
		IsPrimary:     isPrimary,
		AssignedAt:    c.now(),
		AssignedByID:  req.AssignedBy,
	})
	if err != nil {
		c.Logger.Error("create assignment failed",
			zap.String("agency_id", agency.ID.Hex()),
			zap.String("caregiver_id", req.CaregiverID.Hex()),
			zap.Error(err))
		return Result{}, fmt.Errorf("create assignment: %w", err)
	}

	res := Result{Outcome: OutcomeCreated, AssignmentID: &rec.ID}
	c.sideEffects(ctx, agency, req, name, isPrimary, &res)

	c.Audit.AssignmentCreated(ctx, agency.ID, req.CaregiverID, req.AssignedBy, rec.ID, len(req.ElderIDs), isPrimary)
	c.Logger.Info("assignment created",
		zap.String("assignment_id", rec.ID.Hex()),
		zap.String("agency_id", agency.ID.Hex()),
		zap.String("caregiver_id", req.CaregiverID.Hex()),
		zap.Int("elders", len(req.ElderIDs)),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

func (c *Coordinator) checkElders(ctx context.Context, agencyID, groupID primitive.ObjectID, ids []primitive.ObjectID) error {
	found, err := c.Elders.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load elders: %w", err)
	}
	byID := make(map[primitive.ObjectID]models.Elder, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			return apperr.NotFound("elder %s not found", id.Hex())
		}
		if e.AgencyID != agencyID || e.GroupID != groupID {
			return apperr.Validation("elder %s is not in this group", e.Name)
		}
	}
	return nil
}

func (c *Coordinator) caregiverName(ctx context.Context, id primitive.ObjectID) string {
	name, err := c.Users.DisplayName(ctx, id)
	if err != nil || name == "" {
		if err != nil {
			c.Logger.Debug("caregiver name lookup failed",
				zap.String("caregiver_id", id.Hex()),
				zap.Error(err))
		}
		return UnknownCaregiverName
	}
	return name
}

// sideEffects runs the post-write steps. Each one logs and records a warning
// on failure; nothing is rolled back.
func (c *Coordinator) sideEffects(ctx context.Context, agency models.Agency, req Request, name string, isPrimary bool, res *Result) {
	warn := func(step, what string, err error) {
		c.Logger.Warn("assignment side effect failed",
			zap.String("step", step),
			zap.String("agency_id", agency.ID.Hex()),
			zap.String("caregiver_id", req.CaregiverID.Hex()),
			zap.Error(err))
		caremetrics.SideEffectFailed(step)
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", what, err))
	}

	if !agency.HasCaregiver(req.CaregiverID) {
		if err := c.Capacity.CheckCaregiverSlot(ctx, agency, req.CaregiverID); err != nil {
			warn("agency_roster", "caregiver was not added to the agency roster", err)
		} else if err := c.Agencies.AddCaregiver(ctx, agency.ID, req.CaregiverID); err != nil {
			warn("agency_roster", "caregiver was not added to the agency roster", err)
		}
	}

	if err := c.Memberships.Merge(ctx, models.CaregiverMembership{
		CaregiverID:      req.CaregiverID,
		AgencyID:         agency.ID,
		Role:             req.Role,
		AssignedElderIDs: req.ElderIDs,
		AssignedGroupIDs: []primitive.ObjectID{req.GroupID},
	}); err != nil {
		warn("membership", "caregiver membership was not updated", err)
	}

	if isPrimary {
		ref := models.PrimaryRef{CaregiverID: req.CaregiverID, Name: name}
		for _, elderID := range req.ElderIDs {
			_, err := c.Primary.Claim(ctx, elderID, ref, req.AssignedBy, req.ForceTransfer)
			var ce *primary.ConflictError
			switch {
			case errors.As(err, &ce):
				res.Conflicts = append(res.Conflicts, ce.Conflict)
				warn("primary", "primary caregiver was not changed for "+ce.Conflict.ElderName, err)
			case err != nil:
				warn("primary", "primary caregiver was not set for elder "+elderID.Hex(), err)
			}
		}
	}

	if err := c.GroupMembers.Ensure(ctx, models.GroupMembership{
		GroupID:    req.GroupID,
		UserID:     req.CaregiverID,
		AgencyID:   agency.ID,
		Role:       models.RoleCaregiver,
		Permission: models.PermissionWrite,
		CreatedAt:  c.now(),
	}); err != nil {
		warn("group_membership", "group membership was not synced", err)
	}
}

// RemoveAssignment deactivates an assignment. Elder primary fields are left
// alone. Removing an inactive assignment succeeds without changes.
func (c *Coordinator) RemoveAssignment(ctx context.Context, id, actorID primitive.ObjectID) error {
	a, err := c.Assignments.GetByID(ctx, id)
	if err != nil {
		return apperr.FromStore(err, "assignment")
	}
	if !a.Active {
		return nil
	}

	unlock, err := c.Locker.Lock(ctx, locks.Key("assign", a.AgencyID.Hex(), a.CaregiverID.Hex()))
	if err != nil {
		return err
	}
	defer unlock()

	if err := c.Assignments.Deactivate(ctx, id, actorID, c.now()); err != nil {
		return apperr.FromStore(err, "assignment")
	}
	c.Audit.AssignmentRemoved(ctx, a.AgencyID, a.CaregiverID, actorID, a.ID)
	c.Logger.Info("assignment removed",
		zap.String("assignment_id", id.Hex()),
		zap.String("caregiver_id", a.CaregiverID.Hex()))
	return nil
}

// ListActive returns the caregiver's active assignments in the agency.
func (c *Coordinator) ListActive(ctx context.Context, agencyID, caregiverID primitive.ObjectID) ([]models.CaregiverAssignment, error) {
	list, err := c.Assignments.ListActiveByCaregiver(ctx, agencyID, caregiverID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.CaregiverAssignment{}
	}
	return list, nil
}

// Load reports the caregiver's elder headroom in the agency.
func (c *Coordinator) Load(ctx context.Context, agencyID, caregiverID primitive.ObjectID) (capacity.Load, error) {
	agency, err := c.Agencies.GetByID(ctx, agencyID)
	if err != nil {
		return capacity.Load{}, apperr.FromStore(err, "agency")
	}
	return c.Capacity.Load(ctx, agency, caregiverID)
}
