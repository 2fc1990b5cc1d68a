package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/taskboard/internal/app/realtime"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Redis  *redis.Client // nil when the relay is disabled
	Hub    *realtime.Hub // nil omits listener stats
	Log    *zap.Logger
}

// NewHandler constructs a health Handler. rdb and hub may be nil.
func NewHandler(client *mongo.Client, rdb *redis.Client, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Redis:  rdb,
		Hub:    hub,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string          `json:"status"`
	Database string          `json:"database"`
	Relay    string          `json:"relay,omitempty"`
	Realtime *realtime.Stats `json:"realtime,omitempty"`
	Message  string          `json:"message,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "realtime":{"listeners":3,"groups":1,"dropped":0} }
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…"}
//
// A relay that cannot be reached is reported but does not fail the check;
// events still reach listeners on this instance.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Redis != nil {
		resp.Relay = "connected"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			h.Log.Warn("health-check: redis ping failed", zap.Error(err))
			resp.Relay = "disconnected"
		}
	}

	if h.Hub != nil {
		st := h.Hub.Stats()
		resp.Realtime = &st
	}

	_ = json.NewEncoder(w).Encode(resp)
}
