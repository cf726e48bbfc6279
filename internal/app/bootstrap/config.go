// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devSecret is the default signing secret. ValidateConfig refuses it
// outside dev.
const devSecret = "dev-only-change-me-please-0123456789ABCDEF"

// minSecretLen is the shortest JWT secret accepted outside dev.
const minSecretLen = 32

// appConfigKeys defines the configuration keys for CollabHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: COLLABHUB_MONGO_URI, COLLABHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "collabhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer tokens
	{Name: "jwt_secret", Default: devSecret, Desc: "HS256 signing secret (at least 32 bytes in production)"},
	{Name: "jwt_issuer", Default: "collabhub", Desc: "Issuer claim for access and refresh tokens"},
	{Name: "access_token_ttl", Default: "60m", Desc: "Access token lifetime (e.g., 15m, 1h)"},
	{Name: "refresh_token_ttl", Default: "168h", Desc: "Refresh token lifetime (e.g., 24h, 168h)"},

	// Login throttling
	{Name: "login_ip_per_minute", Default: 30, Desc: "Login attempts allowed per client IP per minute"},
	{Name: "login_credential_per_minute", Default: 10, Desc: "Login attempts allowed per username/email per minute"},

	// Store timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document store calls"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for aggregations and cascading deletes"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_project", Default: "all", Desc: "Project event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "token_cleanup_interval", Default: "1h", Desc: "How often to purge expired revoked tokens (0 disables)"},

	{Name: "metrics_enabled", Default: true, Desc: "Expose Prometheus metrics on /metrics"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, COLLABHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COLLABHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:       appValues.String("jwt_secret"),
		JWTIssuer:       appValues.String("jwt_issuer"),
		AccessTokenTTL:  appValues.Duration("access_token_ttl", 60*time.Minute),
		RefreshTokenTTL: appValues.Duration("refresh_token_ttl", 7*24*time.Hour),

		LoginIPPerMinute:         appValues.Int("login_ip_per_minute"),
		LoginCredentialPerMinute: appValues.Int("login_credential_per_minute"),

		TimeoutShort: appValues.Duration("timeout_short", 5*time.Second),
		TimeoutLong:  appValues.Duration("timeout_long", 30*time.Second),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogProject: appValues.String("audit_log_project"),

		TokenCleanupInterval: appValues.Duration("token_cleanup_interval", time.Hour),

		MetricsEnabled: appValues.Bool("metrics_enabled"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI format is checked here to catch configuration errors
// before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must be set")
	}

	dev := coreCfg == nil || coreCfg.Env == "" || coreCfg.Env == "dev"
	if !dev {
		if appCfg.JWTSecret == devSecret {
			return fmt.Errorf("jwt_secret must be changed from the development default")
		}
		if len(appCfg.JWTSecret) < minSecretLen {
			return fmt.Errorf("jwt_secret must be at least %d bytes", minSecretLen)
		}
	} else if appCfg.JWTSecret == devSecret {
		logger.Warn("using the development JWT secret")
	}
	if appCfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret must be set")
	}

	if appCfg.AccessTokenTTL <= 0 || appCfg.RefreshTokenTTL <= 0 {
		return fmt.Errorf("access_token_ttl and refresh_token_ttl must be positive")
	}
	if appCfg.RefreshTokenTTL < appCfg.AccessTokenTTL {
		logger.Warn("refresh_token_ttl is shorter than access_token_ttl",
			zap.Duration("access_token_ttl", appCfg.AccessTokenTTL),
			zap.Duration("refresh_token_ttl", appCfg.RefreshTokenTTL))
	}
	if appCfg.TokenCleanupInterval < 0 {
		return fmt.Errorf("token_cleanup_interval must not be negative")
	}
	if appCfg.LoginIPPerMinute <= 0 || appCfg.LoginCredentialPerMinute <= 0 {
		return fmt.Errorf("login rate limits must be positive")
	}

	for name, v := range map[string]string{
		"audit_log_auth":    appCfg.AuditLogAuth,
		"audit_log_project": appCfg.AuditLogProject,
	} {
		switch v {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", name, v)
		}
	}

	return nil
}
