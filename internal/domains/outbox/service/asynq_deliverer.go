package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"fulfillment-backend/internal/domains/outbox/model"
	"fulfillment-backend/internal/shared"
)

// AsynqDeliverer pushes outbox events onto the task queue for downstream
// consumers. The dedup key rides in the payload so consumers can discard
// re-deliveries.
type AsynqDeliverer struct {
	client *asynq.Client
}

func NewAsynqDeliverer(client *asynq.Client) *AsynqDeliverer {
	return &AsynqDeliverer{client: client}
}

// DeliveryPayload is the wire shape of one delivered event.
type DeliveryPayload struct {
	DedupKey      string          `json:"dedup_key"`
	TenantID      string          `json:"tenant_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
}

func (d *AsynqDeliverer) Deliver(ctx context.Context, event model.Event) error {
	payload, err := json.Marshal(DeliveryPayload{
		DedupKey:      event.DedupKey(),
		TenantID:      event.TenantID.String(),
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID.String(),
		EventType:     event.EventType,
		Payload:       event.Payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal delivery payload: %w", err)
	}

	task := asynq.NewTask(shared.TypeOutboxDeliver, payload)
	if _, err := d.client.EnqueueContext(ctx, task, asynq.Queue(shared.QueueDefault)); err != nil {
		return fmt.Errorf("failed to enqueue delivery task: %w", err)
	}

	return nil
}
