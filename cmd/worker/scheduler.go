package main

import (
	"log"

	"github.com/hibiken/asynq"

	"fulfillment-backend/internal/shared"
	"fulfillment-backend/pkg/container"
	"fulfillment-backend/pkg/logger"
)

type asynqScheduler struct {
	*asynq.Scheduler
}

// setupScheduler registers the periodic sweeps: reservation expiry every
// minute, outbox publishing every ten seconds.
func setupScheduler(c *container.Container) *asynqScheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     c.Config.Redis.Host,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		},
		nil,
	)

	entries := []struct {
		spec  string
		task  *asynq.Task
		queue string
	}{
		{"* * * * *", asynq.NewTask(shared.TypeReservationExpire, nil), shared.QueueDefault},
		{"@every 10s", asynq.NewTask(shared.TypeOutboxPublish, nil), shared.QueueCritical},
	}
	for _, e := range entries {
		if _, err := scheduler.Register(e.spec, e.task, asynq.Queue(e.queue)); err != nil {
			log.Fatalf("failed to register scheduled task %s: %v", e.task.Type(), err)
		}
	}

	go func() {
		logger.Info("scheduler starting", nil)
		if err := scheduler.Run(); err != nil {
			log.Fatalf("scheduler failed: %v", err)
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

func (s *asynqScheduler) Shutdown() {
	s.Scheduler.Shutdown()
	logger.Info("scheduler stopped", nil)
}
