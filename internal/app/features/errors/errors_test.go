package errors_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	errorsfeature "github.com/dalemusser/carecoord/internal/app/features/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func TestFallbacks(t *testing.T) {
	h := errorsfeature.NewHandler(zap.NewNop())

	r := chi.NewRouter()
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)
	r.Get("/known", func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		wantKind string
	}{
		{"unknown path", http.MethodGet, "/nowhere", http.StatusNotFound, `"not_found"`},
		{"wrong method", http.MethodPost, "/known", http.StatusMethodNotAllowed, `"validation"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			if !strings.Contains(rec.Body.String(), tt.wantKind) {
				t.Errorf("body = %s, want kind %s", rec.Body.String(), tt.wantKind)
			}
		})
	}
}
