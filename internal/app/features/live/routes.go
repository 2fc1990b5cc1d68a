// internal/app/features/live/routes.go
package live

import "github.com/go-chi/chi/v5"

// Routes is mounted at /api/ws.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
