// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/taskboard/internal/app/realtime"
	"github.com/dalemusser/taskboard/internal/app/system/auditlog"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/ratelimit"
	"github.com/dalemusser/taskboard/internal/app/tracker"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Redis         *redis.Client // nil when the relay is disabled

	// services is allocated by ConnectDB and filled by Startup; WAFFLE
	// passes DBDeps by value to each hook.
	services *services
}

// services are the process-lifetime objects shared by handlers.
type services struct {
	Hub       *realtime.Hub
	Relay     *realtime.RedisRelay // nil without Redis
	Publisher realtime.Publisher
	Tokens    *auth.Tokens
	Limiter   *ratelimit.LoginLimiter
	AuditLog  *auditlog.Logger
	Tracker   *tracker.Service
}
