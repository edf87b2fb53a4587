package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"fulfillment-backend/internal/domains/reservation/service"
	"fulfillment-backend/pkg/logger"
)

// ExpireHandler sweeps expired reservations when the scheduler fires.
type ExpireHandler struct {
	engine    *service.Engine
	batchSize int
}

func NewExpireHandler(engine *service.Engine, batchSize int) *ExpireHandler {
	return &ExpireHandler{engine: engine, batchSize: batchSize}
}

func (h *ExpireHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	// Loop until a sweep comes back short, so a backlog clears in one run.
	total := 0
	for {
		expired, err := h.engine.ExpireDue(ctx, h.batchSize)
		if err != nil {
			return fmt.Errorf("reservation expiry sweep: %w", err)
		}
		total += expired
		if expired < h.batchSize {
			break
		}
	}

	if total > 0 {
		logger.Info("expired reservations released", map[string]interface{}{
			"count": total,
		})
	}
	return nil
}
