package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/carecoord/internal/app/features/health"
	"github.com/dalemusser/carecoord/internal/testutil"
	"go.uber.org/zap"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type healthBody struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Locks    string `json:"locks"`
	Message  string `json:"message"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, healthBody) {
	t.Helper()
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, body
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rec, body := serve(t, health.NewHandler(db.Client(), nil, zap.NewNop()))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if body.Status != "ok" || body.Database != "connected" {
		t.Errorf("body = %+v", body)
	}
	if body.Locks != "" {
		t.Errorf("locks should be omitted without a lock backend, got %q", body.Locks)
	}
}

func TestServe_LockBackend(t *testing.T) {
	db := testutil.SetupTestDB(t)

	rec, body := serve(t, health.NewHandler(db.Client(), pinger{}, zap.NewNop()))
	if rec.Code != http.StatusOK || body.Locks != "connected" {
		t.Errorf("healthy backend: code %d body %+v", rec.Code, body)
	}

	rec, body = serve(t, health.NewHandler(db.Client(), pinger{err: errors.New("connection refused")}, zap.NewNop()))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if body.Status != "error" || body.Locks != "disconnected" || body.Database != "connected" {
		t.Errorf("body = %+v", body)
	}
}

func TestRoutes_Live(t *testing.T) {
	// A nil client proves /live never reaches the database.
	h := health.NewHandler(nil, nil, zap.NewNop())
	r := health.Routes(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Status != "ok" || body.Database != "" {
		t.Errorf("body = %+v, want status ok and no database field", body)
	}
}
