package main

import (
	"github.com/hibiken/asynq"

	outboxJob "fulfillment-backend/internal/domains/outbox/job"
	reservationJob "fulfillment-backend/internal/domains/reservation/job"
	"fulfillment-backend/internal/shared"
	"fulfillment-backend/pkg/container"
)

// HandlerRegistry wires task types to their handlers.
type HandlerRegistry struct {
	expire  *reservationJob.ExpireHandler
	publish *outboxJob.PublishHandler
}

func newHandlerRegistry(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		expire:  reservationJob.NewExpireHandler(c.ReservationEngine, c.Config.Inventory.ReservationExpiryBatchSize),
		publish: outboxJob.NewPublishHandler(c.OutboxPublisher),
	}
}

// RegisterHandlers mounts every handler on the mux.
func (r *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.Handle(shared.TypeReservationExpire, r.expire)
	mux.Handle(shared.TypeOutboxPublish, r.publish)
}
