package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/carecoord/internal/app/system/actor"
	"github.com/dalemusser/carecoord/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLimiter_AllowAndRemaining(t *testing.T) {
	l := ratelimit.New(2, time.Minute)
	defer l.Stop()

	if got := l.Remaining("a"); got != 2 {
		t.Fatalf("Remaining before use = %d, want 2", got)
	}
	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("a") {
		t.Error("third request should be throttled")
	}
	if got := l.Remaining("a"); got != 0 {
		t.Errorf("Remaining after limit = %d, want 0", got)
	}
	if !l.Allow("b") {
		t.Error("other keys must not share a window")
	}

	l.Reset("a")
	if !l.Allow("a") {
		t.Error("Reset should reopen the window")
	}
}

func TestLimiter_Stop(t *testing.T) {
	l := ratelimit.New(1, time.Minute)
	select {
	case <-l.Done():
		t.Fatal("Done closed before Stop")
	default:
	}
	l.Stop()
	l.Stop()
	select {
	case <-l.Done():
	default:
		t.Error("Done not closed after Stop")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := ratelimit.New(1, 20*time.Millisecond)
	defer l.Stop()

	if !l.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("k") {
		t.Fatal("second request inside the window should be throttled")
	}
	time.Sleep(40 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("request after the window should be allowed")
	}
}

func TestKey(t *testing.T) {
	id := primitive.NewObjectID()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(actor.Header, id.Hex())
	if got, want := ratelimit.Key(r), "actor:"+id.Hex(); got != want {
		t.Errorf("Key with actor = %q, want %q", got, want)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.7:5123"
	if got := ratelimit.Key(r); got != "ip:10.0.0.7" {
		t.Errorf("Key without actor = %q, want ip:10.0.0.7", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded for", "203.0.113.9, 10.0.0.1", "", "10.0.0.1:80", "203.0.113.9"},
		{"real ip", "", " 198.51.100.4 ", "10.0.0.1:80", "198.51.100.4"},
		{"remote with port", "", "", "192.0.2.1:4000", "192.0.2.1"},
		{"remote without port", "", "", "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ratelimit.ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	l := ratelimit.New(1, time.Minute)
	defer l.Stop()

	h := ratelimit.Middleware(l, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	id := primitive.NewObjectID().Hex()
	do := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/x", nil)
		r.Header.Set(actor.Header, id)
		h.ServeHTTP(rec, r)
		return rec
	}

	if rec := do(); rec.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d, want 204", rec.Code)
	}
	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
	if !strings.Contains(rec.Body.String(), `"rate_limited"`) {
		t.Errorf("body = %s, want rate_limited kind", rec.Body.String())
	}
}
