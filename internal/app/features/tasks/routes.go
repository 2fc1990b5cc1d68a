// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/tasks.
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireUser)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// ProjectRoutes is mounted under a project at /{projectId}/tasks; the parent
// router authenticates.
func ProjectRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	return r
}
