// Package actor carries the acting user's id through request contexts.
//
// Authentication happens upstream; the gateway forwards the signed-in user
// as the X-Actor-ID header (a hex ObjectID). Handlers read it back with
// IDFromRequest.
package actor

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Header is the request header that names the acting user.
const Header = "X-Actor-ID"

type ctxKey string

const actorKey ctxKey = "actor"

// Middleware parses the actor header into the request context. Requests
// without the header pass through with no actor; a malformed header is
// rejected with 400.
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(Header))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				logger.Debug("malformed actor header", zap.String("value", raw))
				http.Error(w, "invalid "+Header+" header", http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}

// WithID returns a context carrying id as the actor.
func WithID(ctx context.Context, id primitive.ObjectID) context.Context {
	return context.WithValue(ctx, actorKey, id)
}

// ID returns the actor stored in ctx, if any.
func ID(ctx context.Context) (primitive.ObjectID, bool) {
	id, ok := ctx.Value(actorKey).(primitive.ObjectID)
	if !ok || id.IsZero() {
		return primitive.NilObjectID, false
	}
	return id, true
}

// IDFromRequest returns the actor for r, falling back to parsing the header
// when the middleware did not run.
func IDFromRequest(r *http.Request) (primitive.ObjectID, bool) {
	if id, ok := ID(r.Context()); ok {
		return id, true
	}
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(r.Header.Get(Header)))
	if err != nil || id.IsZero() {
		return primitive.NilObjectID, false
	}
	return id, true
}
