// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	sets := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"agencies", ensureAgencies},
		{"groups", ensureGroups},
		{"elders", ensureElders},
		{"group_memberships", ensureGroupMemberships},
		{"caregiver_assignments", ensureCaregiverAssignments},
		{"caregiver_memberships", ensureCaregiverMemberships},
		{"primary_caregiver_transfers", ensurePrimaryTransfers},
		{"caregiver_availability", ensureAvailability},
		{"scheduled_shifts", ensureShifts},
		{"audit_events", ensureAuditEvents},
	}

	var problems []string
	for _, s := range sets {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// recreate drops the index named old and creates m in its place.
func recreate(ctx context.Context, coll *mongo.Collection, old string, m mongo.IndexModel, name string, unique bool) error {
	if _, err := coll.Indexes().DropOne(ctx, old); err != nil {
		return fmt.Errorf("%s(%s): drop failed: %v", coll.Name(), name, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		if unique && isDuplicateKeyErr(err) {
			return fmt.Errorf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name)
		}
		return fmt.Errorf("%s(%s): %v", coll.Name(), name, err)
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var name string
		var uniquePtr *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			uniquePtr = m.Options.Unique
		}
		unique := uniquePtr != nil && *uniquePtr
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
		}

		existing := listExisting(ctx, coll)
		if ex, ok := existing[sig]; ok {
			switch {
			case sameBoolPtr(uniquePtr, ex.Unique) && (name == "" || ex.Name == name):
				zap.L().Debug("reusing existing index", fields...)
			default:
				// Name or options drifted: align with the desired definition.
				if err := recreate(ctx, coll, ex.Name, m, name, unique); err != nil {
					zap.L().Warn("index recreate failed", append(fields, zap.Error(err))...)
					errs = append(errs, err.Error())
					continue
				}
				zap.L().Info("index dropped and recreated",
					append(fields, zap.String("from", ex.Name), zap.Duration("took", time.Since(start)))...)
			}
			continue
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil && isOptionsConflictErr(err) {
			// Another node created it between List and CreateOne.
			if ex, ok := listExisting(ctx, coll)[sig]; ok {
				if sameBoolPtr(uniquePtr, ex.Unique) {
					continue
				}
				err = recreate(ctx, coll, ex.Name, m, name, unique)
			}
		}
		if err != nil {
			zap.L().Warn("index ensure failed",
				append(fields, zap.Duration("took", time.Since(start)), zap.Error(err))...)
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			continue
		}
		zap.L().Info("index ensured",
			append(fields, zap.String("created_name", created), zap.Duration("took", time.Since(start)))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_fullnameci__id"),
		},
	})
}

func ensureAgencies(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("agencies"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_agencies_nameci"),
		},
		{
			Keys:    bson.D{{Key: "super_admin_id", Value: 1}},
			Options: options.Index().SetName("idx_agencies_superadmin"),
		},
		{
			Keys:    bson.D{{Key: "caregiver_ids", Value: 1}},
			Options: options.Index().SetName("idx_agencies_caregivers"),
		},
	})
}

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("groups"), []mongo.IndexModel{
		// no duplicate group names inside the same agency
		{
			Keys:    bson.D{{Key: "agency_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_group_agency_nameci"),
		},
	})
}

func ensureElders(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("elders"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_elders_group_nameci"),
		},
		{
			Keys:    bson.D{{Key: "agency_id", Value: 1}, {Key: "primary_caregiver_id", Value: 1}},
			Options: options.Index().SetName("idx_elders_agency_primary"),
		},
	})
}

func ensureGroupMemberships(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("group_memberships"), []mongo.IndexModel{
		// exactly one membership per (user, group)
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "group_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_gm_user_group"),
		},
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "role", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_gm_group_role_user"),
		},
	})
}

func ensureCaregiverAssignments(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("caregiver_assignments"), []mongo.IndexModel{
		// load computation: active assignments of one caregiver in one agency
		{
			Keys: bson.D{
				{Key: "agency_id", Value: 1},
				{Key: "caregiver_id", Value: 1},
				{Key: "active", Value: 1},
			},
			Options: options.Index().SetName("idx_ca_agency_caregiver_active"),
		},
		{
			Keys:    bson.D{{Key: "elder_ids", Value: 1}, {Key: "active", Value: 1}},
			Options: options.Index().SetName("idx_ca_elders_active"),
		},
	})
}

func ensureCaregiverMemberships(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("caregiver_memberships"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "caregiver_id", Value: 1}, {Key: "agency_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_cm_caregiver_agency"),
		},
	})
}

func ensurePrimaryTransfers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("primary_caregiver_transfers"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "elder_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_pct_elder_ts"),
		},
	})
}

func ensureAvailability(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("caregiver_availability"), []mongo.IndexModel{
		// one availability document per caregiver per agency
		{
			Keys:    bson.D{{Key: "caregiver_id", Value: 1}, {Key: "agency_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_avail_caregiver_agency"),
		},
		{
			Keys:    bson.D{{Key: "agency_id", Value: 1}},
			Options: options.Index().SetName("idx_avail_agency"),
		},
	})
}

func ensureShifts(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("scheduled_shifts"), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "agency_id", Value: 1},
				{Key: "date", Value: 1},
				{Key: "start_time", Value: 1},
			},
			Options: options.Index().SetName("idx_shifts_agency_date_start"),
		},
		{
			Keys: bson.D{
				{Key: "agency_id", Value: 1},
				{Key: "caregiver_id", Value: 1},
				{Key: "date", Value: 1},
			},
			Options: options.Index().SetName("idx_shifts_agency_caregiver_date"),
		},
		{
			Keys:    bson.D{{Key: "copy_batch_id", Value: 1}},
			Options: options.Index().SetName("idx_shifts_copybatch").SetSparse(true),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_ts"),
		},
		{
			Keys:    bson.D{{Key: "agency_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_agency_ts"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_category_type_ts"),
		},
	})
}
