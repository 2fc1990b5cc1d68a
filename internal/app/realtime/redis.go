// internal/app/realtime/redis.go
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRedisChannel is used when no channel is configured.
const DefaultRedisChannel = "taskboard:events"

const (
	scopeProject = "project"
	scopeAll     = "all"
)

type relayMessage struct {
	Origin    string          `json:"origin"`
	Scope     string          `json:"scope"`
	ProjectID string          `json:"projectId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// RedisRelay delivers locally and republishes through a Redis pub/sub
// channel so listeners attached to other instances receive the event too.
// Messages an instance published itself are skipped on receipt.
type RedisRelay struct {
	hub     *Hub
	rdb     *redis.Client
	channel string
	origin  string
	log     *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRedisRelay(hub *Hub, rdb *redis.Client, channel string, logger *zap.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{
		hub:     hub,
		rdb:     rdb,
		channel: channel,
		origin:  uuid.NewString(),
		log:     logger,
	}
}

func (r *RedisRelay) PublishProject(ctx context.Context, projectID string, env Envelope) error {
	payload, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.Event, err)
	}
	r.hub.DeliverProject(projectID, payload)
	return r.publish(ctx, relayMessage{Scope: scopeProject, ProjectID: projectID, Payload: payload})
}

func (r *RedisRelay) Broadcast(ctx context.Context, env Envelope) error {
	payload, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.Event, err)
	}
	r.hub.DeliverAll(payload)
	return r.publish(ctx, relayMessage{Scope: scopeAll, Payload: payload})
}

func (r *RedisRelay) publish(ctx context.Context, m relayMessage) error {
	m.Origin = r.origin
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, r.channel, b).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Start subscribes to the channel and begins delivering remote messages. It
// returns once the subscription is confirmed.
func (r *RedisRelay) Start(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe %q: %w", r.channel, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.mu.Lock()
	r.cancel, r.done = cancel, done
	r.mu.Unlock()

	go func() {
		defer close(done)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-runCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.handle(msg.Payload)
			}
		}
	}()

	r.log.Info("realtime: redis relay subscribed", zap.String("channel", r.channel))
	return nil
}

func (r *RedisRelay) handle(raw string) {
	var m relayMessage
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		r.log.Warn("realtime: bad relay message", zap.Error(err))
		return
	}
	if m.Origin == r.origin {
		return
	}
	switch m.Scope {
	case scopeProject:
		r.hub.DeliverProject(m.ProjectID, m.Payload)
	case scopeAll:
		r.hub.DeliverAll(m.Payload)
	default:
		r.log.Warn("realtime: unknown relay scope", zap.String("scope", m.Scope))
	}
}

// Close stops the subscription loop. The Redis client is owned by the caller.
func (r *RedisRelay) Close() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}
