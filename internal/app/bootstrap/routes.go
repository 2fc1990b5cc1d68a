// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authapifeature "github.com/dalemusser/taskboard/internal/app/features/authapi"
	healthfeature "github.com/dalemusser/taskboard/internal/app/features/health"
	livefeature "github.com/dalemusser/taskboard/internal/app/features/live"
	projectsfeature "github.com/dalemusser/taskboard/internal/app/features/projects"
	tasksfeature "github.com/dalemusser/taskboard/internal/app/features/tasks"
	usersfeature "github.com/dalemusser/taskboard/internal/app/features/users"
	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/respond"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. The router serves:
//   - /health         database (and relay) liveness
//   - /api/auth       register, login, me
//   - /api/projects   project CRUD, with task creation nested per project
//   - /api/tasks      task update and delete
//   - /api/ws         websocket channel for live updates
//
// Unknown routes and wrong methods get JSON envelopes.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := deps.services
	db := deps.MongoDatabase

	mw := auth.NewMiddleware(svc.Tokens, userstore.NewFetcher(db), logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if appCfg.TrustProxy {
		// Only a proxy we run may rewrite RemoteAddr from forwarding headers.
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(appCfg.ClientURLs))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Fail(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, svc.Hub, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Route("/api", func(api chi.Router) {
		authHandler := authapifeature.NewHandler(db, svc.Tokens, svc.Limiter, svc.AuditLog, logger)
		api.Mount("/auth", authapifeature.Routes(authHandler, mw))

		tasksHandler := tasksfeature.NewHandler(svc.Tracker, logger)
		projectsHandler := projectsfeature.NewHandler(svc.Tracker, logger)
		api.Mount("/projects", projectsfeature.Routes(projectsHandler, mw, tasksfeature.ProjectRoutes(tasksHandler)))
		api.Mount("/tasks", tasksfeature.Routes(tasksHandler, mw))

		usersHandler := usersfeature.NewHandler(db, logger)
		api.Mount("/users", usersfeature.Routes(usersHandler, mw))

		liveHandler := livefeature.NewHandler(svc.Hub, mw, appCfg.ClientURLs, logger)
		api.Mount("/ws", livefeature.Routes(liveHandler))
	})

	return r, nil
}

// corsHandler allows the configured browser origins to call the API with a
// bearer token.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
