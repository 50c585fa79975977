package planlimits

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/carecoord/internal/domain/models"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// HTTP calls the plan limits service:
//
//	GET {base}/agencies/{agencyID}/caregiver-slot -> {"allowed":bool,"message":"..."}
type HTTP struct {
	client *resty.Client
	log    *zap.Logger
}

// NewHTTP builds a client for the service at baseURL.
func NewHTTP(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTP {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Accept", "application/json")

	return &HTTP{client: client, log: logger}
}

// CanAddCaregiver implements Checker.
func (h *HTTP) CanAddCaregiver(ctx context.Context, agency models.Agency) (Decision, error) {
	var out Decision
	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParam("agencyID", agency.ID.Hex()).
		SetResult(&out).
		Get("/agencies/{agencyID}/caregiver-slot")
	if err != nil {
		h.log.Error("plan limits call failed",
			zap.String("agency_id", agency.ID.Hex()),
			zap.Error(err))
		return Decision{}, fmt.Errorf("plan limits: %w", err)
	}
	if resp.IsError() {
		h.log.Error("plan limits returned error",
			zap.String("agency_id", agency.ID.Hex()),
			zap.Int("status_code", resp.StatusCode()))
		return Decision{}, fmt.Errorf("plan limits: unexpected status %d", resp.StatusCode())
	}
	return out, nil
}
