// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, logging and CORS; everything specific to CollabHub lives
// here and is passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer tokens
	JWTSecret       string        // HS256 signing secret
	JWTIssuer       string        // "iss" claim written to and required of every token
	AccessTokenTTL  time.Duration // lifetime of access tokens
	RefreshTokenTTL time.Duration // lifetime of refresh tokens

	// Login throttling, per minute
	LoginIPPerMinute         int
	LoginCredentialPerMinute int

	// Store call timeouts
	TimeoutShort time.Duration
	TimeoutLong  time.Duration

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth    string
	AuditLogProject string

	// TokenCleanupInterval is how often expired revoked tokens are
	// purged; zero disables the worker.
	TokenCleanupInterval time.Duration

	// MetricsEnabled mounts /metrics and the request metrics middleware.
	MetricsEnabled bool
}
