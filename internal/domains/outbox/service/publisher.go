package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fulfillment-backend/internal/domains/outbox/model"
	"fulfillment-backend/internal/domains/outbox/repository"
	"fulfillment-backend/pkg/database"
	"fulfillment-backend/pkg/logger"
)

// Deliverer hands one event to the downstream transport. Delivery is
// at-least-once; consumers deduplicate on the event's DedupKey.
type Deliverer interface {
	Deliver(ctx context.Context, event model.Event) error
}

// Publisher drains PENDING outbox events in claimed batches.
type Publisher struct {
	pool      *pgxpool.Pool
	repo      repository.RepositoryInterface
	deliverer Deliverer
	batchSize int
}

func NewPublisher(pool *pgxpool.Pool, repo repository.RepositoryInterface, deliverer Deliverer, batchSize int) *Publisher {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Publisher{pool: pool, repo: repo, deliverer: deliverer, batchSize: batchSize}
}

// PublishBatch claims one batch and delivers it. Returns the number of
// events delivered. Claim and status update share one transaction: if the
// process dies mid-batch the claim rolls back and another publisher picks
// the events up again.
func (p *Publisher) PublishBatch(ctx context.Context) (int, error) {
	published := 0

	err := database.WithTransaction(ctx, p.pool, func(tx pgx.Tx) error {
		events, err := p.repo.ClaimPending(ctx, tx, p.batchSize)
		if err != nil {
			return err
		}

		for _, event := range events {
			if err := p.deliverer.Deliver(ctx, event); err != nil {
				logger.Error("outbox delivery failed", err)
				if err := p.repo.MarkFailed(ctx, tx, event.ID); err != nil {
					return err
				}
				continue
			}

			if err := p.repo.MarkPublished(ctx, tx, event.ID); err != nil {
				return err
			}
			published++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return published, nil
}

// Drain publishes batches until the table has no more claimable events.
func (p *Publisher) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := p.PublishBatch(ctx)
		if err != nil {
			return total, err
		}
		total += n
		if n < p.batchSize {
			return total, nil
		}
	}
}
