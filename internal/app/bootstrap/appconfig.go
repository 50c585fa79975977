// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig carries everything the scheduling engine needs on top of that:
// where its data lives, how it serializes concurrent writes, where plan
// limits come from, and the scheduling rules that agencies share.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI            string        // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase       string        // Database name within MongoDB
	MongoMaxPoolSize    uint64        // Max connections in the driver pool
	MongoMinPoolSize    uint64        // Min idle connections kept open
	MongoConnectTimeout time.Duration // Bound on the initial connect and ping

	// Plan limits service. Blank URL uses the built-in tier table.
	PlanLimitsURL     string
	PlanLimitsTimeout time.Duration

	// Lock backend for elder, caregiver and agency critical sections.
	LockMode      string // "local", "redis" or "none"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	// DayLoadCeiling is the maximum number of elders one caregiver may
	// cover on a single calendar day.
	DayLoadCeiling int

	// Audit logging destinations: "all", "db", "log" or "off".
	AuditLogAdmin    string
	AuditLogSchedule string

	// APIRateLimit is the request budget per actor per minute on /api.
	// Zero disables throttling.
	APIRateLimit int

	// Per-operation context timeouts.
	TimeoutLookup time.Duration
	TimeoutWrite  time.Duration
	TimeoutBatch  time.Duration
}
