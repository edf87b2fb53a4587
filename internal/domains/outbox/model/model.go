package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the delivery state of an outbox event.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPublished Status = "PUBLISHED"
	StatusFailed    Status = "FAILED"
)

// Event is one row of the transactional outbox. It is written in the same
// transaction as the state change it reports; a separate publisher drains it
// at-least-once.
type Event struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	PublishedAt   *time.Time      `json:"published_at,omitempty"`
}

// DedupKey is the consumer-side deduplication key: identical deliveries of
// the same event carry the same key.
func (e Event) DedupKey() string {
	return e.AggregateType + ":" + e.AggregateID.String() + ":" + e.EventType + ":" + e.ID.String()
}
