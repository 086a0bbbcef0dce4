package memory

import (
	"context"
	"encoding/json"
	"fmt"
)

// Poster delivers a JSON body to a named destination. *qstash.Client
// satisfies it.
type Poster interface {
	Publish(ctx context.Context, destination string, body []byte) error
}

type webhookPublisher struct {
	poster      Poster
	destination string
}

// NewWebhookPublisher forwards fired events as {"org_id", "event"} bodies.
func NewWebhookPublisher(poster Poster, destination string) Publisher {
	return &webhookPublisher{poster: poster, destination: destination}
}

func (p *webhookPublisher) Publish(ctx context.Context, orgID string, ev Event) error {
	encoded, err := MarshalEvent(ev)
	if err != nil {
		return err
	}
	body, err := json.Marshal(struct {
		OrgID string          `json:"org_id"`
		Event json.RawMessage `json:"event"`
	}{
		OrgID: orgID,
		Event: encoded,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook body: %w", err)
	}
	return p.poster.Publish(ctx, p.destination, body)
}
