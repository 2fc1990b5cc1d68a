// internal/app/realtime/hub.go
package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSendBuffer is the per-listener queue length when none is configured.
const DefaultSendBuffer = 64

// Listener is one connected client.
type Listener struct {
	ID     string
	UserID string

	send   chan []byte
	groups map[string]struct{} // guarded by Hub.mu
}

// Messages is the listener's outbound queue. It is closed by Unregister.
func (l *Listener) Messages() <-chan []byte { return l.send }

// Hub is the in-process listener registry. It is created once at startup
// and is safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	all    map[*Listener]struct{}
	groups map[string]map[*Listener]struct{}

	sendBuffer int
	dropped    atomic.Int64
	log        *zap.Logger
}

// NewHub returns an empty hub. sendBuffer <= 0 uses DefaultSendBuffer.
func NewHub(sendBuffer int, logger *zap.Logger) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		all:        make(map[*Listener]struct{}),
		groups:     make(map[string]map[*Listener]struct{}),
		sendBuffer: sendBuffer,
		log:        logger,
	}
}

// Register adds a listener for userID with a fresh id.
func (h *Hub) Register(userID string) *Listener {
	l := &Listener{
		ID:     uuid.NewString(),
		UserID: userID,
		send:   make(chan []byte, h.sendBuffer),
		groups: make(map[string]struct{}),
	}
	h.mu.Lock()
	h.all[l] = struct{}{}
	h.mu.Unlock()
	return l
}

// Unregister removes l from every group and closes its queue. Calling it
// twice is harmless.
func (h *Hub) Unregister(l *Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[l]; !ok {
		return
	}
	for g := range l.groups {
		h.removeFromGroup(l, g)
	}
	delete(h.all, l)
	close(l.send)
}

// Join subscribes l to a project group. Unknown listeners are ignored.
func (h *Hub) Join(l *Listener, projectID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[l]; !ok {
		return
	}
	members := h.groups[projectID]
	if members == nil {
		members = make(map[*Listener]struct{})
		h.groups[projectID] = members
	}
	members[l] = struct{}{}
	l.groups[projectID] = struct{}{}
}

// Leave unsubscribes l from a project group.
func (h *Hub) Leave(l *Listener, projectID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromGroup(l, projectID)
}

func (h *Hub) removeFromGroup(l *Listener, projectID string) {
	delete(l.groups, projectID)
	if members, ok := h.groups[projectID]; ok {
		delete(members, l)
		if len(members) == 0 {
			delete(h.groups, projectID)
		}
	}
}

// DeliverProject queues payload for every listener in the project group and
// reports how many accepted it.
func (h *Hub) DeliverProject(projectID string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deliver(h.groups[projectID], payload)
}

// DeliverAll queues payload for every listener.
func (h *Hub) DeliverAll(payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deliver(h.all, payload)
}

// SendTo queues payload for a single listener if it is still registered.
func (h *Hub) SendTo(l *Listener, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.all[l]; !ok {
		return false
	}
	return h.offer(l, payload)
}

// deliver must be called with h.mu held for reading.
func (h *Hub) deliver(set map[*Listener]struct{}, payload []byte) int {
	n := 0
	for l := range set {
		if h.offer(l, payload) {
			n++
		}
	}
	return n
}

func (h *Hub) offer(l *Listener, payload []byte) bool {
	select {
	case l.send <- payload:
		return true
	default:
		h.dropped.Add(1)
		h.log.Debug("realtime: listener queue full, message dropped",
			zap.String("listener_id", l.ID),
			zap.String("user_id", l.UserID))
		return false
	}
}

// Stats is a snapshot for diagnostics and tests.
type Stats struct {
	Listeners int   `json:"listeners"`
	Groups    int   `json:"groups"`
	Dropped   int64 `json:"dropped"`
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{Listeners: len(h.all), Groups: len(h.groups), Dropped: h.dropped.Load()}
}

// Close unregisters every listener, which ends their write pumps.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for l := range h.all {
		for g := range l.groups {
			h.removeFromGroup(l, g)
		}
		delete(h.all, l)
		close(l.send)
	}
}
