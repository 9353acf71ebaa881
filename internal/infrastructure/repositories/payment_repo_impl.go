package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pay-chain.backend/internal/domain/entities"
	domainrepos "pay-chain.backend/internal/domain/repositories"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/infrastructure/models"
)

// postgresUniqueViolation is the SQLSTATE for unique_violation.
const postgresUniqueViolation = "23505"

// PaymentRepositoryImpl is the C2 Payment Store: persists payment records
// and enforces the idempotency-key / order-code uniqueness invariants.
type PaymentRepositoryImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepositoryImpl {
	return &PaymentRepositoryImpl{db: db}
}

func (r *PaymentRepositoryImpl) InsertPending(ctx context.Context, payment *entities.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	payment.Status = entities.PaymentStatusPending
	payment.CreatedAt = now
	payment.UpdatedAt = now

	metadata, err := json.Marshal(payment.Metadata)
	if err != nil {
		return err
	}

	row := &models.Payment{
		ID:                    payment.ID,
		OrderCode:             payment.OrderCode,
		IdempotencyKey:        payment.IdempotencyKey,
		AmountCents:           payment.AmountCents,
		Currency:              payment.Currency,
		Provider:              string(payment.Provider),
		ProviderTransactionID: payment.ProviderTransactionID,
		RedirectURL:           payment.RedirectURL,
		PaymentURL:            payment.PaymentURL,
		Status:                string(payment.Status),
		CreatedAt:             payment.CreatedAt,
		UpdatedAt:             payment.UpdatedAt,
		Metadata:              string(metadata),
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return classifyUniqueViolation(err)
	}
	return nil
}

func classifyUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == postgresUniqueViolation {
		return uniqueViolationKind(pqErr.Constraint)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		switch {
		case strings.Contains(err.Error(), "idempotency_key"):
			return domainerrors.ErrDuplicateIdempotencyKey
		case strings.Contains(err.Error(), "order_code"):
			return domainerrors.ErrDuplicateOrderCode
		}
		return domainerrors.ErrDuplicateIdempotencyKey
	}
	return err
}

func uniqueViolationKind(constraint string) error {
	if strings.Contains(constraint, "order_code") {
		return domainerrors.ErrDuplicateOrderCode
	}
	return domainerrors.ErrDuplicateIdempotencyKey
}

func (r *PaymentRepositoryImpl) FindByIdempotencyKey(ctx context.Context, key string) (*entities.Payment, error) {
	return r.findOne(ctx, r.db, "idempotency_key = ?", key)
}

func (r *PaymentRepositoryImpl) FindByOrderCode(ctx context.Context, code string) (*entities.Payment, error) {
	return r.findOne(ctx, r.db, "order_code = ?", code)
}

func (r *PaymentRepositoryImpl) FindByProviderTransactionID(ctx context.Context, pid string) (*entities.Payment, error) {
	return r.findOne(ctx, r.db, "provider_transaction_id = ?", pid)
}

func (r *PaymentRepositoryImpl) LockByProviderTransactionID(ctx context.Context, tx domainrepos.Transaction, pid string) (*entities.Payment, error) {
	return r.findOne(ctx, dbFor(r.db, tx).Clauses(clause.Locking{Strength: "UPDATE"}), "provider_transaction_id = ?", pid)
}

func (r *PaymentRepositoryImpl) LockByOrderCode(ctx context.Context, tx domainrepos.Transaction, orderCode string) (*entities.Payment, error) {
	return r.findOne(ctx, dbFor(r.db, tx).Clauses(clause.Locking{Strength: "UPDATE"}), "order_code = ?", orderCode)
}

func (r *PaymentRepositoryImpl) findOne(ctx context.Context, db *gorm.DB, where string, arg any) (*entities.Payment, error) {
	var row models.Payment
	err := db.WithContext(ctx).Where(where, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return toEntity(&row)
}

// UpdateStatus moves a PENDING payment into a terminal status. The
// conditional WHERE status = 'PENDING' is the second guard beyond the
// caller's row lock: even if a caller forgot to lock, this can never move
// a payment that is already terminal.
func (r *PaymentRepositoryImpl) UpdateStatus(ctx context.Context, tx domainrepos.Transaction, id string, toStatus entities.PaymentStatus, ts time.Time) error {
	db := dbFor(r.db, tx).WithContext(ctx)

	updates := map[string]any{
		"status":     string(toStatus),
		"updated_at": ts,
	}
	switch toStatus {
	case entities.PaymentStatusCompleted:
		updates["completed_at"] = ts
	case entities.PaymentStatusFailed:
		updates["failed_at"] = ts
	case entities.PaymentStatusCancelled:
		updates["cancelled_at"] = ts
	}

	result := db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, string(entities.PaymentStatusPending)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrStateTransitionConflict
	}
	return nil
}

func toEntity(row *models.Payment) (*entities.Payment, error) {
	var metadata map[string]string
	if row.Metadata != "" {
		if err := json.Unmarshal([]byte(row.Metadata), &metadata); err != nil {
			return nil, err
		}
	}
	return &entities.Payment{
		ID:                    row.ID,
		OrderCode:             row.OrderCode,
		IdempotencyKey:        row.IdempotencyKey,
		AmountCents:           row.AmountCents,
		Currency:              row.Currency,
		Provider:              entities.Provider(row.Provider),
		ProviderTransactionID: row.ProviderTransactionID,
		RedirectURL:           row.RedirectURL,
		PaymentURL:            row.PaymentURL,
		Status:                entities.PaymentStatus(row.Status),
		CreatedAt:             row.CreatedAt,
		UpdatedAt:             row.UpdatedAt,
		CompletedAt:           row.CompletedAt,
		FailedAt:              row.FailedAt,
		CancelledAt:           row.CancelledAt,
		Metadata:              metadata,
	}, nil
}
