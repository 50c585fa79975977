// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/carecoord/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Tenant directory
	ensure("users", usersSchema())
	ensure("agencies", agenciesSchema())
	ensure("groups", groupsSchema())
	ensure("elders", eldersSchema())
	ensure("group_memberships", groupMembershipsSchema())

	// Scheduling state
	ensure("caregiver_assignments", caregiverAssignmentsSchema())
	ensure("caregiver_availability", caregiverAvailabilitySchema())
	ensure("scheduled_shifts", scheduledShiftsSchema())

	// These don't strictly need validators; we still ensure the collections exist.
	ensure("caregiver_memberships", nil)
	ensure("primary_caregiver_transfers", nil)
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// nonBlank matches a string with at least one non-space character.
var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

const (
	datePattern  = "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"
	clockPattern = "^[0-9]{2}:[0-9]{2}$"
)

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "role", "status"},
			"properties": bson.M{
				"full_name":    nonBlank,
				"full_name_ci": bson.M{"bsonType": "string"},
				"email":        nonBlank,
				"role":         nonBlank,
				"status":       bson.M{"enum": bson.A{"active", "disabled"}},
			},
		},
	}
}

func agenciesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "super_admin_id", "status"},
			"properties": bson.M{
				"name":                     nonBlank,
				"name_ci":                  nonBlank,
				"super_admin_id":           bson.M{"bsonType": "objectId"},
				"group_ids":                bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"caregiver_ids":            bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"max_elders_per_caregiver": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"status":                   bson.M{"enum": bson.A{"active", "disabled"}},
			},
		},
	}
}

func groupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"agency_id", "name", "name_ci", "status"},
			"properties": bson.M{
				"agency_id": bson.M{"bsonType": "objectId"},
				"name":      nonBlank,
				"name_ci":   nonBlank,
				"status":    bson.M{"enum": bson.A{"active", "disabled"}},
			},
		},
	}
}

func eldersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"agency_id", "group_id", "name"},
			"properties": bson.M{
				"agency_id":              bson.M{"bsonType": "objectId"},
				"group_id":               bson.M{"bsonType": "objectId"},
				"name":                   nonBlank,
				"primary_caregiver_id":   bson.M{"bsonType": "objectId"},
				"primary_caregiver_name": bson.M{"bsonType": "string"},
			},
		},
	}
}

func groupMembershipsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "group_id", "permission"},
			"properties": bson.M{
				"user_id":    bson.M{"bsonType": "objectId"},
				"group_id":   bson.M{"bsonType": "objectId"},
				"agency_id":  bson.M{"bsonType": "objectId"},
				"role":       bson.M{"bsonType": "string"},
				"permission": bson.M{"enum": bson.A{models.PermissionRead, models.PermissionWrite}},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func caregiverAssignmentsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"agency_id", "caregiver_id", "group_id", "elder_ids", "role", "active"},
			"properties": bson.M{
				"agency_id":    bson.M{"bsonType": "objectId"},
				"caregiver_id": bson.M{"bsonType": "objectId"},
				"group_id":     bson.M{"bsonType": "objectId"},
				"elder_ids":    bson.M{"bsonType": "array", "minItems": 1, "items": bson.M{"bsonType": "objectId"}},
				"role":         bson.M{"enum": bson.A{models.RoleCaregiver, models.RoleCaregiverAdmin}},
				"is_primary":   bson.M{"bsonType": "bool"},
				"active":       bson.M{"bsonType": "bool"},
			},
		},
	}
}

func caregiverAvailabilitySchema() bson.M {
	slot := bson.M{
		"bsonType": "object",
		"required": bson.A{"start", "end"},
		"properties": bson.M{
			"start": bson.M{"bsonType": "string", "pattern": clockPattern},
			"end":   bson.M{"bsonType": "string", "pattern": clockPattern},
		},
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"caregiver_id", "agency_id", "weekly_pattern"},
			"properties": bson.M{
				"caregiver_id": bson.M{"bsonType": "objectId"},
				"agency_id":    bson.M{"bsonType": "objectId"},
				"weekly_pattern": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"day_of_week", "available"},
						"properties": bson.M{
							"day_of_week": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0, "maximum": 6},
							"available":   bson.M{"bsonType": "bool"},
							"time_slots":  bson.M{"bsonType": bson.A{"array", "null"}, "items": slot},
						},
					},
				},
				"overrides": bson.M{
					"bsonType": bson.A{"array", "null"},
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"date", "available"},
						"properties": bson.M{
							"date":      bson.M{"bsonType": "string", "pattern": datePattern},
							"available": bson.M{"bsonType": "bool"},
						},
					},
				},
			},
		},
	}
}

func scheduledShiftsSchema() bson.M {
	statuses := bson.A{}
	for _, s := range models.ShiftStatuses {
		statuses = append(statuses, s)
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"agency_id", "elder_id", "date", "start_time", "end_time", "status"},
			"properties": bson.M{
				"agency_id":    bson.M{"bsonType": "objectId"},
				"elder_id":     bson.M{"bsonType": "objectId"},
				"caregiver_id": bson.M{"bsonType": "objectId"},
				"date":         bson.M{"bsonType": "string", "pattern": datePattern},
				"start_time":   bson.M{"bsonType": "string", "pattern": clockPattern},
				"end_time":     bson.M{"bsonType": "string", "pattern": clockPattern},
				"status":       bson.M{"enum": statuses},
			},
		},
	}
}
