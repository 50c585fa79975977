// Package agencyadmin holds the owner-only agency settings: who owns the
// agency and how many elders one caregiver may hold.
package agencyadmin

import (
	"context"

	"github.com/dalemusser/carecoord/internal/app/system/apperr"
	"github.com/dalemusser/carecoord/internal/app/system/auditlog"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type AgencyStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Agency, error)
	SetOwner(ctx context.Context, agencyID, ownerID primitive.ObjectID) error
	SetElderCeiling(ctx context.Context, agencyID primitive.ObjectID, n int) error
}

type Service struct {
	agencies AgencyStore
	audit    *auditlog.Logger
	log      *zap.Logger
}

func New(agencies AgencyStore, audit *auditlog.Logger, logger *zap.Logger) *Service {
	return &Service{agencies: agencies, audit: audit, log: logger}
}

// owned loads the agency and checks that actorID is its super admin.
func (s *Service) owned(ctx context.Context, agencyID, actorID primitive.ObjectID) (models.Agency, error) {
	a, err := s.agencies.GetByID(ctx, agencyID)
	if err != nil {
		return models.Agency{}, apperr.FromStore(err, "agency")
	}
	if actorID.IsZero() || a.SuperAdminID != actorID {
		return models.Agency{}, apperr.Unauthorized("only the agency owner can do this")
	}
	return a, nil
}

// TransferOwnership hands the agency to newOwnerID. Only the current owner
// may call it.
func (s *Service) TransferOwnership(ctx context.Context, agencyID, newOwnerID, actorID primitive.ObjectID) error {
	if newOwnerID.IsZero() {
		return apperr.Validation("new owner is required")
	}
	a, err := s.owned(ctx, agencyID, actorID)
	if err != nil {
		return err
	}
	if newOwnerID == a.SuperAdminID {
		return nil
	}
	if err := s.agencies.SetOwner(ctx, agencyID, newOwnerID); err != nil {
		return apperr.FromStore(err, "agency")
	}
	s.audit.OwnershipTransferred(ctx, agencyID, actorID, newOwnerID)
	s.log.Info("agency ownership transferred",
		zap.String("agency_id", agencyID.Hex()),
		zap.String("from_user_id", actorID.Hex()),
		zap.String("to_user_id", newOwnerID.Hex()))
	return nil
}

// SetElderCeiling changes the per-caregiver elder limit. Existing
// assignments above a lowered limit are kept; only new assignments see it.
func (s *Service) SetElderCeiling(ctx context.Context, agencyID primitive.ObjectID, n int, actorID primitive.ObjectID) error {
	if n < 1 {
		return apperr.Validation("max_elders_per_caregiver must be at least 1")
	}
	a, err := s.owned(ctx, agencyID, actorID)
	if err != nil {
		return err
	}
	prev := a.ElderCeiling()
	if err := s.agencies.SetElderCeiling(ctx, agencyID, n); err != nil {
		return apperr.FromStore(err, "agency")
	}
	s.audit.ElderCeilingChanged(ctx, agencyID, actorID, prev, n)
	return nil
}
