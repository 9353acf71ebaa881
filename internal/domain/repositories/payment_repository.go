package repositories

import (
	"context"
	"time"

	"pay-chain.backend/internal/domain/entities"
)

// PaymentRepository persists payment records and enforces the uniqueness
// invariants on idempotency key and order code (C2).
type PaymentRepository interface {
	// InsertPending writes a new PENDING payment row. Returns
	// domainerrors.ErrDuplicateIdempotencyKey or
	// domainerrors.ErrDuplicateOrderCode when the corresponding unique
	// constraint is violated.
	InsertPending(ctx context.Context, payment *entities.Payment) error
	FindByIdempotencyKey(ctx context.Context, key string) (*entities.Payment, error)
	FindByOrderCode(ctx context.Context, code string) (*entities.Payment, error)
	FindByProviderTransactionID(ctx context.Context, pid string) (*entities.Payment, error)
	// LockByProviderTransactionID resolves and row-locks a payment for a
	// mutating transition. Must be called inside tx.
	LockByProviderTransactionID(ctx context.Context, tx Transaction, pid string) (*entities.Payment, error)
	// LockByOrderCode is the cancellation-path counterpart.
	LockByOrderCode(ctx context.Context, tx Transaction, orderCode string) (*entities.Payment, error)
	// UpdateStatus must run inside tx; it only moves a payment that is
	// still PENDING (enforced by a conditional WHERE in addition to the
	// caller's row lock) and returns
	// domainerrors.ErrStateTransitionConflict when no PENDING row matches.
	UpdateStatus(ctx context.Context, tx Transaction, id string, toStatus entities.PaymentStatus, ts time.Time) error
}
