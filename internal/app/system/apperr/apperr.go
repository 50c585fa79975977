// Package apperr defines the error kinds surfaced by the scheduling engine.
//
// Every error carries a human-readable message for the caller and one of a
// small set of kinds that handlers map to transport status codes:
//
//	ErrNotFound          agency, elder, assignment or shift missing
//	ErrCapacityExceeded  per-caregiver or per-agency ceiling reached
//	ErrUnauthorized      actor may not perform the operation
//	ErrValidation        malformed ids, dates, time ranges
//
// Primary caregiver conflicts are not errors; they are returned as values so
// the caller can resend with a force flag.
package apperr

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Kinds. Match with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrValidation       = errors.New("validation failed")
)

// Error pairs a kind with the message shown to the user.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the kind so errors.Is(err, ErrNotFound) works.
func (e *Error) Unwrap() error { return e.Kind }

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns an ErrNotFound error.
func NotFound(format string, args ...any) error { return newf(ErrNotFound, format, args...) }

// CapacityExceeded returns an ErrCapacityExceeded error.
func CapacityExceeded(format string, args ...any) error {
	return newf(ErrCapacityExceeded, format, args...)
}

// Unauthorized returns an ErrUnauthorized error.
func Unauthorized(format string, args ...any) error {
	return newf(ErrUnauthorized, format, args...)
}

// Validation returns an ErrValidation error.
func Validation(format string, args ...any) error { return newf(ErrValidation, format, args...) }

// FromStore maps mongo.ErrNoDocuments to a NotFound error naming what was
// looked up. Other errors pass through wrapped with the same label.
func FromStore(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, ErrNotFound) {
		return NotFound("%s not found", what)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// Kind returns the kind of err, or nil when err is not an apperr error.
func Kind(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, k := range []error{ErrNotFound, ErrCapacityExceeded, ErrUnauthorized, ErrValidation} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName is the stable string used in API responses.
func KindName(err error) string {
	switch Kind(err) {
	case ErrNotFound:
		return "not_found"
	case ErrCapacityExceeded:
		return "capacity_exceeded"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrValidation:
		return "validation"
	default:
		return "internal"
	}
}
