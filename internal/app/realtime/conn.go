// internal/app/realtime/conn.go
package realtime

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Serve runs the listener's pumps on conn until the client disconnects or
// the hub unregisters the listener. It blocks and closes conn on return.
func Serve(hub *Hub, conn *websocket.Conn, userID string, logger *zap.Logger) {
	l := hub.Register(userID)
	log := logger.With(zap.String("listener_id", l.ID), zap.String("user_id", userID))
	log.Debug("realtime: listener connected")

	hello, _ := Envelope{Event: EventConnected, Data: map[string]string{"listenerId": l.ID}}.Encode()
	hub.SendTo(l, hello)

	done := make(chan struct{})
	go func() {
		defer close(done)
		writePump(conn, l, log)
	}()

	readPump(hub, conn, l, log)
	hub.Unregister(l)
	<-done
	_ = conn.Close()
	log.Debug("realtime: listener disconnected")
}

func readPump(hub *Hub, conn *websocket.Conn, l *Listener, log *zap.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Info("realtime: read error", zap.Error(err))
			}
			return
		}
		reply := handleClientMessage(hub, l, raw)
		if b, err := reply.Encode(); err == nil {
			hub.SendTo(l, b)
		}
	}
}

// handleClientMessage applies a join/leave request and returns the ack.
func handleClientMessage(hub *Hub, l *Listener, raw []byte) Envelope {
	var m clientMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return Envelope{Event: EventError, Data: map[string]string{"message": "Malformed message"}}
	}
	projectID := strings.TrimSpace(m.ProjectID)
	if _, err := primitive.ObjectIDFromHex(projectID); err != nil {
		return Envelope{Event: EventError, Data: map[string]string{"message": "A valid projectId is required"}}
	}

	switch normalizeType(m.Type) {
	case "join":
		hub.Join(l, projectID)
		return Envelope{Event: EventJoined, Data: map[string]string{"projectId": projectID}}
	case "leave":
		hub.Leave(l, projectID)
		return Envelope{Event: EventLeft, Data: map[string]string{"projectId": projectID}}
	default:
		return Envelope{Event: EventError, Data: map[string]string{"message": "Unknown message type"}}
	}
}

func writePump(conn *websocket.Conn, l *Listener, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-l.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("realtime: write failed", zap.Error(err))
				// Unblock the read pump so the listener is unregistered.
				_ = conn.Close()
				drain(l)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				drain(l)
				return
			}
		}
	}
}

// drain discards queued messages until the hub closes the queue.
func drain(l *Listener) {
	for range l.Messages() {
	}
}
