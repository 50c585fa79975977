// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/carecoord/internal/app/system/httpapi"
	"go.uber.org/zap"
)

// Handler serves the JSON fallbacks for requests no route matched.
type Handler struct {
	Log *zap.Logger
}

// NewHandler constructs an errors Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// NotFound answers unknown paths with a not_found error envelope.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Log.Debug("no route", zap.String("method", r.Method), zap.String("path", r.URL.Path))
	httpapi.Fail(w, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
}

// MethodNotAllowed answers a known path requested with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httpapi.Fail(w, http.StatusMethodNotAllowed, "validation", r.Method+" is not allowed on "+r.URL.Path)
}
