// internal/app/features/live/handler.go
package live

import (
	"net/http"
	"strings"

	"github.com/dalemusser/taskboard/internal/app/realtime"
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/respond"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler upgrades authenticated requests to a realtime connection.
type Handler struct {
	Hub      *realtime.Hub
	Auth     *auth.Middleware
	Origins  []string
	Log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler builds the upgrade handler. origins lists the browser origins
// allowed to connect; "*" allows any. Requests without an Origin header
// (non-browser clients) are always accepted.
func NewHandler(hub *realtime.Hub, mw *auth.Middleware, origins []string, logger *zap.Logger) *Handler {
	h := &Handler{Hub: hub, Auth: mw, Origins: origins, Log: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.Origins {
		if o == "*" || strings.EqualFold(strings.TrimRight(o, "/"), origin) {
			return true
		}
	}
	h.Log.Warn("websocket origin rejected", zap.String("origin", origin))
	return false
}

// Serve handles GET /api/ws. The token comes from the Authorization header
// or the token query parameter, since browsers cannot set headers on a
// websocket handshake.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	u, err := h.Auth.Authenticate(r)
	if err != nil {
		respond.Fail(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.Log.Debug("websocket connected", zap.String("user_id", u.ID.Hex()))
	realtime.Serve(h.Hub, conn, u.ID.Hex(), h.Log)
}
