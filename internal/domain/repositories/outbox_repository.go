package repositories

import (
	"context"
	"time"

	"pay-chain.backend/internal/domain/entities"
)

// OutboxRepository appends event records transactionally and serves the
// publisher's scan/mark/retry/cleanup operations (C3).
type OutboxRepository interface {
	// Append writes one row inside tx. Must only be called alongside a
	// payment mutation in the same transaction (invariant O1).
	Append(ctx context.Context, tx Transaction, aggregateID, aggregateType string, eventType entities.EventType, payload []byte) error
	FetchUnpublished(ctx context.Context, limit, maxRetries int) ([]*entities.OutboxRecord, error)
	MarkPublished(ctx context.Context, id string) error
	IncrementRetry(ctx context.Context, id string, errMessage string) error
	DeletePublishedOlderThan(ctx context.Context, days int) (int64, error)
	FetchExhausted(ctx context.Context, maxRetries int) ([]*entities.OutboxRecord, error)
}

// RetentionHorizon computes the cutoff timestamp for cleanup.
func RetentionHorizon(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}
