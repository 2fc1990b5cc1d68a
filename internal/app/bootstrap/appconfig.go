// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - Request body size limits
//   - Environment ("dev" or "prod")
//
// AppConfig carries everything specific to the task board: storage,
// token signing, the realtime relay, audit settings and rate limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Token issuance
	JWTSecret string        // HMAC key for signing tokens (at least 32 characters in prod)
	JWTExpiry time.Duration // Token lifetime (default 7 days)
	JWTIssuer string

	// Browser origins allowed by CORS and the websocket handshake.
	ClientURLs []string

	// Redis relay (disabled when RedisAddr is empty)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	// Realtime
	ProjectUpdatesScope string // "all" or "subscribers"
	WSSendBuffer        int    // Outbound queue length per websocket listener

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth    string
	AuditLogChanges string

	// Honor X-Forwarded-For / X-Real-IP for the client address. Enable only
	// behind a reverse proxy that sets them.
	TrustProxy bool

	// Login rate limits (per IP per minute, per email per five minutes)
	LoginIPLimit    int
	LoginEmailLimit int

	// Deadlines for database work per request class (zero keeps the default)
	Timeouts timeouts.Config
}
