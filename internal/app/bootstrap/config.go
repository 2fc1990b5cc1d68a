// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/auditlog"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/taskboard/internal/app/tracker"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devJWTSecret is only accepted outside prod.
const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// minProdSecretLen is the shortest JWT secret accepted in prod.
const minProdSecretLen = 32

// appConfigKeys defines the configuration keys for the task board.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: TASKBOARD_MONGO_URI, TASKBOARD_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "taskboard", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Tokens
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HMAC secret for signing tokens (must be strong in production)"},
	{Name: "jwt_expiry", Default: "168h", Desc: "Token lifetime (e.g., 24h, 168h)"},
	{Name: "jwt_issuer", Default: "taskboard", Desc: "Token issuer claim"},

	// Browser clients
	{Name: "client_url", Default: "http://localhost:3000", Desc: "Allowed browser origins, comma separated ('*' for any)"},

	// Redis relay
	{Name: "redis_addr", Default: "", Desc: "Redis address for the realtime relay (blank disables it)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "redis_channel", Default: "taskboard:events", Desc: "Redis pub/sub channel for realtime events"},

	// Realtime
	{Name: "project_updates_scope", Default: tracker.ScopeAll, Desc: "Who receives projectUpdated events: 'all' or 'subscribers'"},
	{Name: "ws_send_buffer", Default: 64, Desc: "Queued outbound messages per websocket before drops"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_changes", Default: "all", Desc: "Project/task change logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Client address
	{Name: "trust_proxy", Default: false, Desc: "Take the client IP from X-Forwarded-For/X-Real-IP (only behind a trusted proxy)"},

	// Login throttling
	{Name: "login_ip_limit", Default: 10, Desc: "Login attempts per IP per minute"},
	{Name: "login_email_limit", Default: 5, Desc: "Login attempts per email per five minutes"},

	// Database deadlines
	{Name: "timeout_ping", Default: "2s", Desc: "Deadline for health check pings"},
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list queries and single writes"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for multi-collection operations"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, TASKBOARD_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TASKBOARD", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTExpiry: appValues.Duration("jwt_expiry", 7*24*time.Hour),
		JWTIssuer: appValues.String("jwt_issuer"),

		ClientURLs: splitList(appValues.String("client_url")),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),
		RedisChannel:  appValues.String("redis_channel"),

		ProjectUpdatesScope: strings.ToLower(strings.TrimSpace(appValues.String("project_updates_scope"))),
		WSSendBuffer:        appValues.Int("ws_send_buffer"),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogChanges: appValues.String("audit_log_changes"),

		TrustProxy: appValues.Bool("trust_proxy"),

		LoginIPLimit:    appValues.Int("login_ip_limit"),
		LoginEmailLimit: appValues.Int("login_email_limit"),

		Timeouts: timeouts.Config{
			Ping:   appValues.Duration("timeout_ping", timeouts.DefaultPing),
			Short:  appValues.Duration("timeout_short", timeouts.DefaultShort),
			Medium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
			Long:   appValues.Duration("timeout_long", timeouts.DefaultLong),
		},
	}

	return coreCfg, appCfg, nil
}

// splitList splits a comma-separated value, dropping blanks and trailing
// slashes.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimRight(strings.TrimSpace(part), "/")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
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

	if strings.TrimSpace(appCfg.JWTSecret) == "" {
		return fmt.Errorf("jwt_secret must be set")
	}
	if coreCfg.Env == "prod" {
		if appCfg.JWTSecret == devJWTSecret {
			return fmt.Errorf("jwt_secret must be changed from the development default in prod")
		}
		if len(appCfg.JWTSecret) < minProdSecretLen {
			return fmt.Errorf("jwt_secret must be at least %d characters in prod", minProdSecretLen)
		}
	}
	if appCfg.JWTExpiry <= 0 {
		return fmt.Errorf("jwt_expiry must be positive")
	}

	switch appCfg.ProjectUpdatesScope {
	case tracker.ScopeAll, tracker.ScopeSubscribers:
	default:
		return fmt.Errorf("project_updates_scope must be %q or %q, got %q",
			tracker.ScopeAll, tracker.ScopeSubscribers, appCfg.ProjectUpdatesScope)
	}

	for key, v := range map[string]string{
		"audit_log_auth":    appCfg.AuditLogAuth,
		"audit_log_changes": appCfg.AuditLogChanges,
	} {
		if !auditlog.ValidSetting(v) {
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", key, v)
		}
	}

	for key, d := range map[string]time.Duration{
		"timeout_ping":   appCfg.Timeouts.Ping,
		"timeout_short":  appCfg.Timeouts.Short,
		"timeout_medium": appCfg.Timeouts.Medium,
		"timeout_long":   appCfg.Timeouts.Long,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", key, d)
		}
	}

	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}

	return nil
}
