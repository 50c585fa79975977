// Package caremetrics exposes Prometheus counters for the scheduling engine.
package caremetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Assignment outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeConflict  = "conflict"
	OutcomeCapacity  = "capacity"
	OutcomeNotFound  = "not_found"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
	OutcomeAvailable = "available"
	OutcomeBusy      = "unavailable"
)

var (
	assignments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carecoord",
		Subsystem: "assignment",
		Name:      "requests_total",
		Help:      "Assignment requests broken down by outcome.",
	}, []string{"outcome"})

	sideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carecoord",
		Subsystem: "assignment",
		Name:      "side_effect_failures_total",
		Help:      "Post-write side effects that failed and were skipped.",
	}, []string{"step"})

	primaryChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carecoord",
		Subsystem: "primary",
		Name:      "changes_total",
		Help:      "Primary caregiver changes by kind (set, transfer, remove).",
	}, []string{"kind"})

	shiftsCopied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carecoord",
		Subsystem: "schedule",
		Name:      "shifts_copied_total",
		Help:      "Shifts written by week copies, by resulting fill state.",
	}, []string{"state"})

	availabilityChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carecoord",
		Subsystem: "availability",
		Name:      "checks_total",
		Help:      "Availability checks by result.",
	}, []string{"result"})
)

// Assignment records one assignment request outcome.
func Assignment(outcome string) {
	assignments.WithLabelValues(outcome).Inc()
}

// SideEffectFailed records a skipped post-write step.
func SideEffectFailed(step string) {
	sideEffectFailures.WithLabelValues(step).Inc()
}

// PrimaryChange records a primary caregiver write.
func PrimaryChange(kind string) {
	primaryChanges.WithLabelValues(kind).Inc()
}

// ShiftsCopied adds n copied shifts in state ("filled" or "unfilled").
func ShiftsCopied(state string, n int) {
	if n <= 0 {
		return
	}
	shiftsCopied.WithLabelValues(state).Add(float64(n))
}

// AvailabilityCheck records one availability decision.
func AvailabilityCheck(available bool) {
	if available {
		availabilityChecks.WithLabelValues(OutcomeAvailable).Inc()
		return
	}
	availabilityChecks.WithLabelValues(OutcomeBusy).Inc()
}
