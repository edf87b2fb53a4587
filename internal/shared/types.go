package shared

// Asynq task types.
const (
	TypeReservationExpire = "reservation:expire"
	TypeOutboxPublish     = "outbox:publish"
	TypeOutboxDeliver     = "outbox:deliver"
)

// Asynq queue names with server-side priorities.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Outbox aggregate types and event types the core emits.
const (
	AggregateReservation = "reservation"
	AggregateMovement    = "inventory_movement"

	EventReservationChanged = "inventory.reservation.changed"
	EventMovementPosted     = "inventory.movement.posted"
)

// Actor capabilities recognized by the core.
const (
	CapabilityNegativeStockOverride = "inventory.negative_stock_override"
)
