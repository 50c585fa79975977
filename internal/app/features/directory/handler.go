// internal/app/features/directory/handler.go
package directory

import (
	"errors"

	agencystore "github.com/dalemusser/carecoord/internal/app/store/agencies"
	elderstore "github.com/dalemusser/carecoord/internal/app/store/elders"
	groupstore "github.com/dalemusser/carecoord/internal/app/store/groups"
	membershipstore "github.com/dalemusser/carecoord/internal/app/store/memberships"
	userstore "github.com/dalemusser/carecoord/internal/app/store/users"
	"github.com/dalemusser/carecoord/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the tenant directory: agencies, their groups, the elders
// in each group, users and group memberships. These records are what the
// scheduling endpoints act on.
type Handler struct {
	Agencies    *agencystore.Store
	Groups      *groupstore.Store
	Elders      *elderstore.Store
	Users       *userstore.Store
	Memberships *membershipstore.Store
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Agencies:    agencystore.New(db),
		Groups:      groupstore.New(db),
		Elders:      elderstore.New(db, logger),
		Users:       userstore.New(db),
		Memberships: membershipstore.New(db),
		Log:         logger,
	}
}

// storeErr maps store sentinels onto API error kinds.
func storeErr(err error, what string) error {
	switch {
	case errors.Is(err, agencystore.ErrDuplicateAgency),
		errors.Is(err, groupstore.ErrDuplicateGroupName),
		errors.Is(err, userstore.ErrDuplicateEmail),
		errors.Is(err, membershipstore.ErrDuplicateMembership):
		return apperr.Validation("%s", err.Error())
	default:
		return apperr.FromStore(err, what)
	}
}
