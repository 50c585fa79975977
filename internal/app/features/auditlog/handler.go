// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"

	"github.com/dalemusser/carecoord/internal/app/store/audit"
	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Events queries stored audit events.
type Events interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
}

// Agencies loads the agency whose log is requested.
type Agencies interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Agency, error)
}

type Handler struct {
	Events   Events
	Agencies Agencies
	Log      *zap.Logger
}

// NewHandler constructs an audit log handler. Only an agency's owner may
// read its log.
func NewHandler(events Events, agencies Agencies, logger *zap.Logger) *Handler {
	return &Handler{
		Events:   events,
		Agencies: agencies,
		Log:      logger,
	}
}
