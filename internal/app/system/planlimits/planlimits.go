// Package planlimits answers "may this agency add another caregiver?".
//
// The ceiling is owned by the subscription/billing side of the platform. Two
// implementations are provided: an HTTP client for the plan limits service
// and a static tier table used when no service URL is configured.
package planlimits

import (
	"context"
	"fmt"

	"github.com/dalemusser/carecoord/internal/domain/models"
)

// Decision is the answer for one agency.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Message string `json:"message,omitempty"`
}

// Checker is consulted only when a caregiver is new to an agency.
type Checker interface {
	CanAddCaregiver(ctx context.Context, agency models.Agency) (Decision, error)
}

// DefaultTierLimits maps subscription tiers to caregiver roster ceilings.
var DefaultTierLimits = map[string]int{
	models.TierFamily:       2,
	models.TierSingleAgency: 10,
	models.TierMultiAgency:  50,
}

// DefaultLimit applies to tiers missing from the table.
const DefaultLimit = 10

// Static decides from the agency's tier and current roster size.
type Static struct {
	Limits map[string]int
}

// NewStatic returns a Static checker over DefaultTierLimits.
func NewStatic() *Static {
	return &Static{Limits: DefaultTierLimits}
}

// Limit returns the roster ceiling for tier.
func (s *Static) Limit(tier string) int {
	if n, ok := s.Limits[tier]; ok {
		return n
	}
	return DefaultLimit
}

// CanAddCaregiver implements Checker.
func (s *Static) CanAddCaregiver(ctx context.Context, agency models.Agency) (Decision, error) {
	limit := s.Limit(agency.Subscription.Tier)
	if len(agency.CaregiverIDs)+1 > limit {
		tier := agency.Subscription.Tier
		if tier == "" {
			tier = "current"
		}
		return Decision{
			Allowed: false,
			Message: fmt.Sprintf("Your %s plan allows up to %d caregivers. Upgrade your plan to add more.", tier, limit),
		}, nil
	}
	return Decision{Allowed: true}, nil
}
