package model

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one append-only audit row.
type Entry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Action     string // e.g. "post", "negative_override"
	EntityType string
	EntityID   uuid.UUID
	ActorID    string
	Metadata   map[string]any
	CreatedAt  time.Time
}
