package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"fulfillment-backend/internal/domains/outbox/service"
	"fulfillment-backend/pkg/logger"
)

// PublishHandler runs one outbox drain when the scheduler fires.
type PublishHandler struct {
	publisher *service.Publisher
}

func NewPublishHandler(publisher *service.Publisher) *PublishHandler {
	return &PublishHandler{publisher: publisher}
}

func (h *PublishHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	published, err := h.publisher.Drain(ctx)
	if err != nil {
		return fmt.Errorf("outbox drain: %w", err)
	}

	if published > 0 {
		logger.Info("outbox events published", map[string]interface{}{
			"count": published,
		})
	}
	return nil
}
