// Package realtime fans project and task changes out to connected
// WebSocket listeners.
//
// Listeners join project groups explicitly. Project-scoped events reach the
// group; global events reach every listener. Delivery is best effort: a
// listener whose queue is full misses the message rather than slowing the
// publisher.
package realtime

import "encoding/json"

// Server → client event names.
const (
	EventConnected      = "connected"
	EventJoined         = "joined"
	EventLeft           = "left"
	EventError          = "error"
	EventTaskCreated    = "taskCreated"
	EventTaskUpdated    = "taskUpdated"
	EventTaskDeleted    = "taskDeleted"
	EventProjectUpdated = "projectUpdated"
	EventProjectDeleted = "projectDeleted"
)

// Envelope is every server → client frame.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Encode marshals the envelope once so it can be shared by all recipients.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// clientMessage is every client → server frame.
type clientMessage struct {
	Type      string `json:"type"`
	ProjectID string `json:"projectId"`
}

// normalizeType maps the accepted aliases onto join/leave.
func normalizeType(t string) string {
	switch t {
	case "join", "joinProject":
		return "join"
	case "leave", "leaveProject":
		return "leave"
	}
	return t
}
