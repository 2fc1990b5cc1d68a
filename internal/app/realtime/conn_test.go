package realtime_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/taskboard/internal/app/realtime"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func dial(t *testing.T, hub *realtime.Hub) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		realtime.Serve(hub, conn, "user-1", zap.NewNop())
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var env map[string]any
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestServe_JoinAndReceive(t *testing.T) {
	hub := realtime.NewHub(8, nil)
	conn := dial(t, hub)

	hello := readEnvelope(t, conn)
	if hello["event"] != realtime.EventConnected {
		t.Fatalf("first event = %v, want connected", hello["event"])
	}
	if data, _ := hello["data"].(map[string]any); data["listenerId"] == "" {
		t.Error("connected event should carry listenerId")
	}

	const pid = "507f1f77bcf86cd799439011"
	if err := conn.WriteJSON(map[string]string{"type": "joinProject", "projectId": pid}); err != nil {
		t.Fatalf("write join: %v", err)
	}
	if ack := readEnvelope(t, conn); ack["event"] != realtime.EventJoined {
		t.Fatalf("ack = %v, want joined", ack)
	}
	if got := hub.Stats().Groups; got != 1 {
		t.Fatalf("Groups = %d, want 1", got)
	}

	pub := realtime.NewLocal(hub)
	_ = pub.PublishProject(context.Background(), pid, realtime.Envelope{
		Event: realtime.EventTaskDeleted,
		Data:  map[string]string{"taskId": "abc"},
	})
	env := readEnvelope(t, conn)
	if env["event"] != realtime.EventTaskDeleted {
		t.Errorf("event = %v, want taskDeleted", env["event"])
	}

	if err := conn.WriteJSON(map[string]string{"type": "leave", "projectId": pid}); err != nil {
		t.Fatalf("write leave: %v", err)
	}
	if ack := readEnvelope(t, conn); ack["event"] != realtime.EventLeft {
		t.Fatalf("ack = %v, want left", ack)
	}
}

func TestServe_RejectsBadMessages(t *testing.T) {
	hub := realtime.NewHub(8, nil)
	conn := dial(t, hub)
	readEnvelope(t, conn) // connected

	tests := []any{
		"not json",
		map[string]string{"type": "join", "projectId": "nope"},
		map[string]string{"type": "dance", "projectId": "507f1f77bcf86cd799439011"},
	}
	for _, msg := range tests {
		var err error
		if s, ok := msg.(string); ok {
			err = conn.WriteMessage(websocket.TextMessage, []byte(s))
		} else {
			err = conn.WriteJSON(msg)
		}
		if err != nil {
			t.Fatalf("write: %v", err)
		}
		if env := readEnvelope(t, conn); env["event"] != realtime.EventError {
			t.Errorf("reply to %v = %v, want error", msg, env)
		}
	}
}

func TestServe_UnregistersOnDisconnect(t *testing.T) {
	hub := realtime.NewHub(8, nil)
	conn := dial(t, hub)
	readEnvelope(t, conn)

	if got := hub.Stats().Listeners; got != 1 {
		t.Fatalf("Listeners = %d, want 1", got)
	}
	conn.Close()

	deadline := time.Now().Add(3 * time.Second)
	for hub.Stats().Listeners != 0 {
		if time.Now().After(deadline) {
			t.Fatal("listener was not unregistered after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
