package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pay-chain.backend/internal/domain/entities"
	domainrepos "pay-chain.backend/internal/domain/repositories"
	"pay-chain.backend/internal/infrastructure/models"
)

// OutboxRepositoryImpl is the C3 Outbox Store backing the transactional
// outbox: Append always runs inside the caller's transaction, everything
// else serves the Outbox Publisher's polling loop.
type OutboxRepositoryImpl struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepositoryImpl {
	return &OutboxRepositoryImpl{db: db}
}

func (r *OutboxRepositoryImpl) Append(ctx context.Context, tx domainrepos.Transaction, aggregateID, aggregateType string, eventType entities.EventType, payload []byte) error {
	row := &models.Outbox{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     string(eventType),
		Payload:       string(payload),
		Published:     false,
		RetryCount:    0,
		CreatedAt:     time.Now().UTC(),
	}
	return dbFor(r.db, tx).WithContext(ctx).Create(row).Error
}

func (r *OutboxRepositoryImpl) FetchUnpublished(ctx context.Context, limit, maxRetries int) ([]*entities.OutboxRecord, error) {
	var rows []models.Outbox
	err := r.db.WithContext(ctx).
		Where("published = ? AND retry_count < ?", false, maxRetries).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toOutboxEntities(rows), nil
}

func (r *OutboxRepositoryImpl) FetchExhausted(ctx context.Context, maxRetries int) ([]*entities.OutboxRecord, error) {
	var rows []models.Outbox
	err := r.db.WithContext(ctx).
		Where("published = ? AND retry_count >= ?", false, maxRetries).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toOutboxEntities(rows), nil
}

func (r *OutboxRepositoryImpl) MarkPublished(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&models.Outbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published":    true,
			"published_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("outbox record not found")
	}
	return nil
}

func (r *OutboxRepositoryImpl) IncrementRetry(ctx context.Context, id string, errMessage string) error {
	if len(errMessage) > entities.MaxLastErrorBytes {
		errMessage = errMessage[:entities.MaxLastErrorBytes]
	}
	result := r.db.WithContext(ctx).Model(&models.Outbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  errMessage,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("outbox record not found")
	}
	return nil
}

func (r *OutboxRepositoryImpl) DeletePublishedOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := domainrepos.RetentionHorizon(time.Now().UTC(), days)
	result := r.db.WithContext(ctx).
		Where("published = ? AND published_at < ?", true, cutoff).
		Delete(&models.Outbox{})
	return result.RowsAffected, result.Error
}

func toOutboxEntities(rows []models.Outbox) []*entities.OutboxRecord {
	out := make([]*entities.OutboxRecord, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		out = append(out, &entities.OutboxRecord{
			ID:            row.ID,
			AggregateID:   row.AggregateID,
			AggregateType: row.AggregateType,
			EventType:     entities.EventType(row.EventType),
			Payload:       []byte(row.Payload),
			Published:     row.Published,
			PublishedAt:   row.PublishedAt,
			RetryCount:    row.RetryCount,
			LastError:     row.LastError,
			CreatedAt:     row.CreatedAt,
		})
	}
	return out
}
