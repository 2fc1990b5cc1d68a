// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/taskboard/internal/app/realtime"
	"github.com/dalemusser/taskboard/internal/app/store/audit"
	"github.com/dalemusser/taskboard/internal/app/system/auditlog"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/ratelimit"
	"github.com/dalemusser/taskboard/internal/app/system/respond"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/taskboard/internal/app/tracker"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// creates the listener hub, subscribes the Redis relay when one is
// configured, and builds the shared services handlers depend on.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	respond.ShowErrorDetail(coreCfg.Env == "dev")
	timeouts.Configure(appCfg.Timeouts)

	svc := deps.services
	svc.Hub = realtime.NewHub(appCfg.WSSendBuffer, logger)
	svc.Publisher = realtime.NewLocal(svc.Hub)

	if deps.Redis != nil {
		relay := realtime.NewRedisRelay(svc.Hub, deps.Redis, appCfg.RedisChannel, logger)
		if err := relay.Start(ctx); err != nil {
			logger.Error("redis relay start failed", zap.Error(err))
			return err
		}
		svc.Relay = relay
		svc.Publisher = relay
	}

	svc.Tokens = auth.NewTokens(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.JWTExpiry)
	svc.Limiter = ratelimit.NewLoginLimiter(appCfg.LoginIPLimit, appCfg.LoginEmailLimit)
	svc.AuditLog = auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Changes: appCfg.AuditLogChanges,
	})
	svc.Tracker = tracker.New(deps.MongoDatabase, svc.Publisher, svc.AuditLog, logger, tracker.Options{
		ProjectUpdatesScope: appCfg.ProjectUpdatesScope,
	})

	logger.Info("startup complete",
		zap.String("env", coreCfg.Env),
		zap.Bool("redis_relay", svc.Relay != nil),
		zap.String("project_updates_scope", appCfg.ProjectUpdatesScope),
		zap.Any("timeouts", timeouts.Current()))
	return nil
}
