// internal/app/features/authapi/routes.go
package authapi

import (
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/auth. Only /me requires a token.
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.With(mw.RequireUser).Get("/me", h.Me)
	return r
}
