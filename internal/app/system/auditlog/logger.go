// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"strconv"

	"github.com/dalemusser/carecoord/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Admin controls assignment, primary caregiver and agency ownership events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
	// Schedule controls shift, week copy and availability events. Same values as Admin.
	Schedule string
}

// ValidSetting reports whether s is one of the accepted destination values.
func ValidSetting(s string) bool {
	switch s {
	case "all", "db", "log", "off":
		return true
	}
	return false
}

// Logger records audit events to MongoDB (via audit.Store) and zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.AgencyID != nil {
		fields = append(fields, zap.String("agency_id", event.AgencyID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so services can run without auditing.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAdmin:
		setting = l.config.Admin
	case audit.CategorySchedule:
		setting = l.config.Schedule
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if (setting == "all" || setting == "log") && l.zapLog != nil {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil && l.zapLog != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func admin(eventType string, agencyID primitive.ObjectID, userID *primitive.ObjectID, actorID primitive.ObjectID, details map[string]string) audit.Event {
	return audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		AgencyID:  &agencyID,
		UserID:    userID,
		ActorID:   &actorID,
		Success:   true,
		Details:   details,
	}
}

func schedule(eventType string, agencyID primitive.ObjectID, userID *primitive.ObjectID, actorID primitive.ObjectID, details map[string]string) audit.Event {
	e := admin(eventType, agencyID, userID, actorID, details)
	e.Category = audit.CategorySchedule
	return e
}

// --- Assignment Events ---

// AssignmentCreated logs a new caregiver assignment.
func (l *Logger) AssignmentCreated(ctx context.Context, agencyID, caregiverID, actorID, assignmentID primitive.ObjectID, elderCount int, primary bool) {
	l.Log(ctx, admin(audit.EventAssignmentCreated, agencyID, &caregiverID, actorID, map[string]string{
		"assignment_id": assignmentID.Hex(),
		"elder_count":   strconv.Itoa(elderCount),
		"is_primary":    strconv.FormatBool(primary),
	}))
}

// AssignmentRemoved logs the deactivation of an assignment.
func (l *Logger) AssignmentRemoved(ctx context.Context, agencyID, caregiverID, actorID, assignmentID primitive.ObjectID) {
	l.Log(ctx, admin(audit.EventAssignmentRemoved, agencyID, &caregiverID, actorID, map[string]string{
		"assignment_id": assignmentID.Hex(),
	}))
}

// --- Primary Caregiver Events ---

// PrimaryTransferred logs a primary change. from is nil when there was none.
func (l *Logger) PrimaryTransferred(ctx context.Context, agencyID, elderID primitive.ObjectID, from *primitive.ObjectID, to, actorID primitive.ObjectID, reason string) {
	details := map[string]string{
		"elder_id": elderID.Hex(),
	}
	if from != nil {
		details["from_caregiver_id"] = from.Hex()
	}
	if reason != "" {
		details["reason"] = reason
	}
	l.Log(ctx, admin(audit.EventPrimaryTransferred, agencyID, &to, actorID, details))
}

// PrimaryRemoved logs the clearing of an elder's primary.
func (l *Logger) PrimaryRemoved(ctx context.Context, agencyID, elderID, previousID, actorID primitive.ObjectID) {
	l.Log(ctx, admin(audit.EventPrimaryRemoved, agencyID, &previousID, actorID, map[string]string{
		"elder_id": elderID.Hex(),
	}))
}

// --- Agency Events ---

// OwnershipTransferred logs a change of agency super admin.
func (l *Logger) OwnershipTransferred(ctx context.Context, agencyID, fromID, toID primitive.ObjectID) {
	l.Log(ctx, admin(audit.EventOwnershipTransferred, agencyID, &toID, fromID, map[string]string{
		"from_user_id": fromID.Hex(),
	}))
}

// ElderCeilingChanged logs a new per-caregiver elder limit.
func (l *Logger) ElderCeilingChanged(ctx context.Context, agencyID, actorID primitive.ObjectID, previous, next int) {
	l.Log(ctx, admin(audit.EventElderCeilingChanged, agencyID, nil, actorID, map[string]string{
		"previous": strconv.Itoa(previous),
		"next":     strconv.Itoa(next),
	}))
}

// --- Schedule Events ---

// WeekCopied logs the outcome of a week copy batch.
func (l *Logger) WeekCopied(ctx context.Context, agencyID, actorID primitive.ObjectID, batchID, sourceWeek, targetWeek string, created, unfilled, skipped int) {
	l.Log(ctx, schedule(audit.EventWeekCopied, agencyID, nil, actorID, map[string]string{
		"batch_id":    batchID,
		"source_week": sourceWeek,
		"target_week": targetWeek,
		"created":     strconv.Itoa(created),
		"unfilled":    strconv.Itoa(unfilled),
		"skipped":     strconv.Itoa(skipped),
	}))
}

// ShiftCreated logs a single shift creation.
func (l *Logger) ShiftCreated(ctx context.Context, agencyID, actorID, shiftID primitive.ObjectID, caregiverID *primitive.ObjectID, date string) {
	l.Log(ctx, schedule(audit.EventShiftCreated, agencyID, caregiverID, actorID, map[string]string{
		"shift_id": shiftID.Hex(),
		"date":     date,
	}))
}

// ShiftCancelled logs a shift cancellation.
func (l *Logger) ShiftCancelled(ctx context.Context, agencyID, actorID, shiftID primitive.ObjectID) {
	l.Log(ctx, schedule(audit.EventShiftCancelled, agencyID, nil, actorID, map[string]string{
		"shift_id": shiftID.Hex(),
	}))
}

// AvailabilityChanged logs an edit to a caregiver's availability. what names
// the part edited (weekly_pattern, override, preferences).
func (l *Logger) AvailabilityChanged(ctx context.Context, agencyID, caregiverID, actorID primitive.ObjectID, what string) {
	l.Log(ctx, schedule(audit.EventAvailabilityChanged, agencyID, &caregiverID, actorID, map[string]string{
		"changed": what,
	}))
}
