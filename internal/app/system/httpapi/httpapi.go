// Package httpapi holds the JSON envelope shared by the API handlers.
//
// Success bodies are {"data": ...}. Failures are
// {"error": {"kind": "...", "message": "..."}} with the status chosen from
// the apperr kind.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dalemusser/carecoord/internal/app/system/actor"
	"github.com/dalemusser/carecoord/internal/app/system/apperr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaxBodyBytes bounds request bodies read by Decode.
const MaxBodyBytes = 1 << 20

type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// JSON writes v as the data member with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dataEnvelope{Data: v})
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Created writes v with 201.
func Created(w http.ResponseWriter, v any) { JSON(w, http.StatusCreated, v) }

// Status maps an error to its HTTP status.
func Status(err error) int {
	switch apperr.Kind(err) {
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrCapacityExceeded:
		return http.StatusUnprocessableEntity
	case apperr.ErrUnauthorized:
		return http.StatusForbidden
	case apperr.ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err in the error envelope. Internal errors are logged and
// their text replaced with a generic message.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		msg = "internal error"
	}
	Fail(w, status, apperr.KindName(err), msg)
}

// Fail writes an error envelope with an explicit status and kind.
func Fail(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorBody{Kind: kind, Message: message}})
}

// Decode reads a JSON body into v. Unknown fields are rejected.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is empty")
		}
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

// PathID parses the chi URL parameter name as an ObjectID.
func PathID(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("%s %q is not a valid id", name, raw)
	}
	return id, nil
}

// QueryIDs parses repeated query values of name as ObjectIDs.
func QueryIDs(r *http.Request, name string) ([]primitive.ObjectID, error) {
	raw := r.URL.Query()[name]
	out := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return nil, apperr.Validation("%s %q is not a valid id", name, v)
		}
		out = append(out, id)
	}
	return out, nil
}

// QueryBool parses a boolean query value, returning def when absent.
func QueryBool(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def, apperr.Validation("%s must be true or false", name)
	}
	return b, nil
}

// Actor returns the acting user or an Unauthorized error.
func Actor(r *http.Request) (primitive.ObjectID, error) {
	id, ok := actor.IDFromRequest(r)
	if !ok {
		return primitive.NilObjectID, apperr.Unauthorized("missing %s header", actor.Header)
	}
	return id, nil
}
