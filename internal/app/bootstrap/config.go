// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/carecoord/internal/app/system/auditlog"
	"github.com/dalemusser/carecoord/internal/app/system/locks"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for carecoord.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, lock_mode, etc.
//   - Environment variables: CARECOORD_MONGO_URI, CARECOORD_LOCK_MODE, etc.
//   - Command-line flags: --mongo_uri, --lock_mode, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "carecoord", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "mongo_connect_timeout", Default: "10s", Desc: "Timeout for the initial MongoDB connect and ping"},

	// Plan limits
	{Name: "plan_limits_url", Default: "", Desc: "Base URL of the plan limits service (blank uses the built-in tier table)"},
	{Name: "plan_limits_timeout", Default: "3s", Desc: "Timeout for one plan limits request"},

	// Locking
	{Name: "lock_mode", Default: locks.ModeLocal, Desc: "Lock backend: 'local' (single instance), 'redis' (shared) or 'none'"},
	{Name: "redis_addr", Default: "", Desc: "Redis address for lock_mode=redis (host:port)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "lock_ttl", Default: "30s", Desc: "Lease length for redis locks"},

	// Scheduling rules
	{Name: "day_load_ceiling", Default: 3, Desc: "Max elders one caregiver may cover on one day"},

	// Audit logging settings
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_schedule", Default: "all", Desc: "Schedule event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Throttling
	{Name: "api_rate_limit", Default: 600, Desc: "Requests per actor per minute on /api (0 disables)"},

	// Operation timeouts
	{Name: "timeout_lookup", Default: "5s", Desc: "Timeout for single-document reads"},
	{Name: "timeout_write", Default: "10s", Desc: "Timeout for single writes and assignment batches"},
	{Name: "timeout_batch", Default: "60s", Desc: "Timeout for week copies and other bulk work"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, CARECOORD_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CARECOORD", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:            appValues.String("mongo_uri"),
		MongoDatabase:       appValues.String("mongo_database"),
		MongoMaxPoolSize:    uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize:    uint64(appValues.Int("mongo_min_pool_size")),
		MongoConnectTimeout: appValues.Duration("mongo_connect_timeout", 10*time.Second),

		// Plan limits
		PlanLimitsURL:     appValues.String("plan_limits_url"),
		PlanLimitsTimeout: appValues.Duration("plan_limits_timeout", 3*time.Second),

		// Locking
		LockMode:      appValues.String("lock_mode"),
		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),
		LockTTL:       appValues.Duration("lock_ttl", 30*time.Second),

		// Scheduling rules
		DayLoadCeiling: appValues.Int("day_load_ceiling"),

		// Audit logging
		AuditLogAdmin:    appValues.String("audit_log_admin"),
		AuditLogSchedule: appValues.String("audit_log_schedule"),

		// Throttling
		APIRateLimit: appValues.Int("api_rate_limit"),

		// Timeouts
		TimeoutLookup: appValues.Duration("timeout_lookup", 5*time.Second),
		TimeoutWrite:  appValues.Duration("timeout_write", 10*time.Second),
		TimeoutBatch:  appValues.Duration("timeout_batch", 60*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI, lock backend and audit settings are checked here so
// misconfiguration fails before any connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must be set")
	}

	if !locks.ValidMode(appCfg.LockMode) {
		return fmt.Errorf("lock_mode %q must be one of local, redis, none", appCfg.LockMode)
	}
	if appCfg.LockMode == locks.ModeRedis && appCfg.RedisAddr == "" {
		return fmt.Errorf("lock_mode=redis requires redis_addr to be set")
	}
	if appCfg.LockMode == locks.ModeNone {
		logger.Warn("lock_mode=none: concurrent writes are not serialized; use only for single-writer tooling")
	}

	if appCfg.DayLoadCeiling < 1 {
		return fmt.Errorf("day_load_ceiling must be at least 1, got %d", appCfg.DayLoadCeiling)
	}

	if appCfg.APIRateLimit < 0 {
		return fmt.Errorf("api_rate_limit must not be negative, got %d", appCfg.APIRateLimit)
	}

	for key, v := range map[string]string{
		"audit_log_admin":    appCfg.AuditLogAdmin,
		"audit_log_schedule": appCfg.AuditLogSchedule,
	} {
		if !auditlog.ValidSetting(v) {
			return fmt.Errorf("%s %q must be one of all, db, log, off", key, v)
		}
	}

	return nil
}
