// internal/app/features/projects/routes.go
package projects

import (
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/projects. Every route requires a token. tasks,
// when non-nil, is mounted at /{projectId}/tasks.
func Routes(h *Handler, mw *auth.Middleware, tasks chi.Router) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireUser)
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/activity", h.Activity)
	if tasks != nil {
		r.Mount("/{projectId}/tasks", tasks)
	}
	return r
}
