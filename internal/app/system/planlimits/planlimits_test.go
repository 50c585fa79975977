package planlimits

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/carecoord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func agencyWith(tier string, caregivers int) models.Agency {
	a := models.Agency{ID: primitive.NewObjectID(), Subscription: models.AgencySubscription{Tier: tier}}
	for i := 0; i < caregivers; i++ {
		a.CaregiverIDs = append(a.CaregiverIDs, primitive.NewObjectID())
	}
	return a
}

func TestStatic(t *testing.T) {
	s := NewStatic()
	ctx := context.Background()

	tests := []struct {
		name    string
		agency  models.Agency
		allowed bool
	}{
		{"family with room", agencyWith(models.TierFamily, 1), true},
		{"family full", agencyWith(models.TierFamily, 2), false},
		{"single agency with room", agencyWith(models.TierSingleAgency, 9), true},
		{"single agency full", agencyWith(models.TierSingleAgency, 10), false},
		{"unknown tier uses default", agencyWith("legacy", DefaultLimit), false},
		{"multi agency", agencyWith(models.TierMultiAgency, 30), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := s.CanAddCaregiver(ctx, tt.agency)
			if err != nil {
				t.Fatalf("CanAddCaregiver failed: %v", err)
			}
			if d.Allowed != tt.allowed {
				t.Errorf("Allowed = %v, want %v", d.Allowed, tt.allowed)
			}
			if !d.Allowed && d.Message == "" {
				t.Error("expected a message when not allowed")
			}
		})
	}
}

func TestHTTP_CanAddCaregiver(t *testing.T) {
	agency := agencyWith(models.TierFamily, 0)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/agencies/"+agency.ID.Hex()+"/caregiver-slot") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Decision{Allowed: false, Message: "Plan limit reached"})
	}))
	defer srv.Close()

	c := NewHTTP(srv.URL, time.Second, zap.NewNop())
	d, err := c.CanAddCaregiver(context.Background(), agency)
	if err != nil {
		t.Fatalf("CanAddCaregiver failed: %v", err)
	}
	if d.Allowed {
		t.Error("expected Allowed=false")
	}
	if d.Message != "Plan limit reached" {
		t.Errorf("Message = %q", d.Message)
	}
}

func TestHTTP_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewHTTP(srv.URL, time.Second, zap.NewNop())
	if _, err := c.CanAddCaregiver(context.Background(), agencyWith("", 0)); err == nil {
		t.Fatal("expected error for 400 response")
	}
}
