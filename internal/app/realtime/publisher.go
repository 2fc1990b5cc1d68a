// internal/app/realtime/publisher.go
package realtime

import (
	"context"
	"fmt"
)

// Publisher sends an envelope to a project group or to every listener.
type Publisher interface {
	PublishProject(ctx context.Context, projectID string, env Envelope) error
	Broadcast(ctx context.Context, env Envelope) error
}

// Local delivers to listeners attached to this process only.
type Local struct {
	hub *Hub
}

func NewLocal(hub *Hub) *Local { return &Local{hub: hub} }

func (p *Local) PublishProject(_ context.Context, projectID string, env Envelope) error {
	payload, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.Event, err)
	}
	p.hub.DeliverProject(projectID, payload)
	return nil
}

func (p *Local) Broadcast(_ context.Context, env Envelope) error {
	payload, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.Event, err)
	}
	p.hub.DeliverAll(payload)
	return nil
}
