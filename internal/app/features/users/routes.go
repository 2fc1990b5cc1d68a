// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/users.
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireUser)
	r.Get("/", h.List)
	return r
}
