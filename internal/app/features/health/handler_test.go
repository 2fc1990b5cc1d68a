package health_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/taskboard/internal/app/features/health"
	"github.com/dalemusser/taskboard/internal/app/realtime"
	"github.com/dalemusser/taskboard/internal/testutil"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type healthBody struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Relay    string `json:"relay"`
	Message  string `json:"message"`
	Realtime *struct {
		Listeners int `json:"listeners"`
		Groups    int `json:"groups"`
	} `json:"realtime"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, healthBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	health.Routes(h).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, body
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rec, body := serve(t, health.NewHandler(db.Client(), nil, nil, zap.NewNop()))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if body.Status != "ok" || body.Database != "connected" {
		t.Errorf("body = %+v", body)
	}
	if body.Relay != "" {
		t.Errorf("relay reported without redis: %q", body.Relay)
	}
}

func TestServe_ReportsListenerStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	hub := realtime.NewHub(8, nil)
	t.Cleanup(hub.Close)
	l := hub.Register("u1")
	hub.Join(l, "p1")
	hub.Register("u2")

	rec, body := serve(t, health.NewHandler(db.Client(), nil, hub, zap.NewNop()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if body.Realtime == nil {
		t.Fatal("realtime stats missing")
	}
	if body.Realtime.Listeners != 2 || body.Realtime.Groups != 1 {
		t.Errorf("realtime = %+v, want 2 listeners in 1 group", *body.Realtime)
	}
}

func TestServe_RelayDownIsReportedNotFatal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	defer rdb.Close()

	rec, body := serve(t, health.NewHandler(db.Client(), rdb, nil, zap.NewNop()))
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if body.Relay != "disconnected" {
		t.Errorf("relay = %q, want disconnected", body.Relay)
	}
}

func TestServe_DatabaseDown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(100*time.Millisecond))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Disconnect(context.Background())

	rec, body := serve(t, health.NewHandler(client, nil, nil, zap.NewNop()))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if body.Status != "error" || body.Database != "disconnected" || body.Message != "Database unavailable" {
		t.Errorf("body = %+v", body)
	}
}
