package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	domainproviders "pay-chain.backend/internal/domain/providers"
	"pay-chain.backend/internal/domain/repositories"
	"pay-chain.backend/pkg/logger"

	"go.uber.org/zap"
)

// ProviderResolver resolves a Provider tag to its adapter. Satisfied by
// internal/infrastructure/providers.Registry.
type ProviderResolver interface {
	Resolve(provider entities.Provider) (domainproviders.Adapter, error)
}

// CreateIntentInput is the engine-facing shape of a create request.
type CreateIntentInput struct {
	OrderCode      string
	IdempotencyKey string
	AmountCents    int64
	Currency       string
	Provider       entities.Provider
	RedirectURL    string
	TimeoutSeconds int
}

// LifecycleUsecase is the single writer of payment status (C4). It owns
// the transactional envelope that couples a status change to its outbox
// event.
type LifecycleUsecase struct {
	payments       repositories.PaymentRepository
	outbox         repositories.OutboxRepository
	uow            repositories.UnitOfWork
	resolver       ProviderResolver
	idempotent     *IdempotencyCache
	webhookBaseURL string
}

func NewLifecycleUsecase(
	payments repositories.PaymentRepository,
	outbox repositories.OutboxRepository,
	uow repositories.UnitOfWork,
	resolver ProviderResolver,
	idempotent *IdempotencyCache,
	webhookBaseURL string,
) *LifecycleUsecase {
	return &LifecycleUsecase{
		payments:       payments,
		outbox:         outbox,
		uow:            uow,
		resolver:       resolver,
		idempotent:     idempotent,
		webhookBaseURL: webhookBaseURL,
	}
}

// webhookURLFor builds the per-provider callback URL the adapter passes to
// the gateway at link creation, matching the /webhook/<provider> routes
// registered in cmd/server/routes.go.
func (u *LifecycleUsecase) webhookURLFor(provider entities.Provider) string {
	switch provider {
	case entities.ProviderZaloPay:
		return u.webhookBaseURL + "/webhook/zalopay"
	case entities.ProviderPayOS:
		return u.webhookBaseURL + "/webhook/payos"
	default:
		return ""
	}
}

// CreateIntent returns the checkout URL for idempotencyKey, creating a new
// PENDING payment on first sight and replaying the stored URL on every
// subsequent call with the same key.
func (u *LifecycleUsecase) CreateIntent(ctx context.Context, in CreateIntentInput) (string, error) {
	if url, hit := u.idempotent.Lookup(ctx, in.IdempotencyKey); hit {
		return url, nil
	}

	existing, err := u.payments.FindByIdempotencyKey(ctx, in.IdempotencyKey)
	if err == nil {
		u.idempotent.Store(ctx, in.IdempotencyKey, existing.PaymentURL)
		return existing.PaymentURL, nil
	}
	if !errors.Is(err, domainerrors.ErrPaymentNotFound) {
		return "", err
	}

	adapter, err := u.resolver.Resolve(in.Provider)
	if err != nil {
		return "", err
	}

	link, err := adapter.CreatePaymentLink(ctx, domainproviders.CreatePaymentLinkInput{
		Amount:         in.AmountCents,
		OrderCode:      in.OrderCode,
		Currency:       in.Currency,
		IdempotencyKey: in.IdempotencyKey,
		RedirectURL:    in.RedirectURL,
		TimeoutSeconds: in.TimeoutSeconds,
		WebhookURL:     u.webhookURLFor(in.Provider),
	})
	if err != nil {
		return "", err
	}

	payment := &entities.Payment{
		OrderCode:             in.OrderCode,
		IdempotencyKey:        in.IdempotencyKey,
		AmountCents:           in.AmountCents,
		Currency:              in.Currency,
		Provider:              in.Provider,
		ProviderTransactionID: link.ProviderTransactionID,
		RedirectURL:           in.RedirectURL,
		PaymentURL:            link.PaymentURL,
	}

	if err := u.payments.InsertPending(ctx, payment); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateIdempotencyKey) {
			// A concurrent caller won the race; absorb it and replay their URL.
			// A provider link now exists with no local row for it, which is
			// acceptable: it expires on its own TimeoutSeconds at the provider.
			existing, findErr := u.payments.FindByIdempotencyKey(ctx, in.IdempotencyKey)
			if findErr != nil {
				return "", findErr
			}
			u.idempotent.Store(ctx, in.IdempotencyKey, existing.PaymentURL)
			return existing.PaymentURL, nil
		}
		return "", err
	}

	u.idempotent.Store(ctx, in.IdempotencyKey, payment.PaymentURL)
	return payment.PaymentURL, nil
}

// GetByIdempotencyKey serves the RPC lookup operation.
func (u *LifecycleUsecase) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*entities.Payment, error) {
	return u.payments.FindByIdempotencyKey(ctx, idempotencyKey)
}

// CompleteByProviderTxID drives PENDING -> COMPLETED. A missing payment is
// logged and returned as domainerrors.ErrPaymentNotFound; a terminal-state
// clash with a different outcome is logged and returns nil without
// mutating anything. The webhook ingress acknowledges the provider in both
// cases.
func (u *LifecycleUsecase) CompleteByProviderTxID(ctx context.Context, pid string) error {
	return u.transition(ctx, pid, entities.PaymentStatusCompleted, entities.EventTypePaymentCompleted)
}

// FailByProviderTxID drives PENDING -> FAILED.
func (u *LifecycleUsecase) FailByProviderTxID(ctx context.Context, pid string, reason string) error {
	if reason != "" {
		logger.Warn(ctx, "payment marked failed by provider", zap.String("provider_transaction_id", pid), zap.String("reason", reason))
	}
	return u.transition(ctx, pid, entities.PaymentStatusFailed, entities.EventTypePaymentFailed)
}

// CancelByOrderCode drives PENDING -> CANCELLED. Locked by order code
// since cancellation has no provider transaction id yet.
func (u *LifecycleUsecase) CancelByOrderCode(ctx context.Context, orderCode string) error {
	payment, err := u.payments.FindByOrderCode(ctx, orderCode)
	if err != nil {
		return err
	}
	return u.transitionLocked(ctx, func(ctx context.Context, tx repositories.Transaction) (*entities.Payment, error) {
		return u.payments.LockByOrderCode(ctx, tx, orderCode)
	}, payment.ID, entities.PaymentStatusCancelled, entities.EventTypePaymentCancelled)
}

func (u *LifecycleUsecase) transition(ctx context.Context, pid string, toStatus entities.PaymentStatus, eventType entities.EventType) error {
	payment, err := u.payments.FindByProviderTransactionID(ctx, pid)
	if err != nil {
		if errors.Is(err, domainerrors.ErrPaymentNotFound) {
			logger.Warn(ctx, "webhook for unknown payment", zap.String("provider_transaction_id", pid))
			return domainerrors.ErrPaymentNotFound
		}
		return err
	}
	return u.transitionLocked(ctx, func(ctx context.Context, tx repositories.Transaction) (*entities.Payment, error) {
		return u.payments.LockByProviderTransactionID(ctx, tx, pid)
	}, payment.ID, toStatus, eventType)
}

func (u *LifecycleUsecase) transitionLocked(
	ctx context.Context,
	lock func(ctx context.Context, tx repositories.Transaction) (*entities.Payment, error),
	paymentID string,
	toStatus entities.PaymentStatus,
	eventType entities.EventType,
) error {
	tx, err := u.uow.Begin(ctx)
	if err != nil {
		return err
	}

	locked, err := lock(ctx, tx)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if locked.Status == toStatus {
		// Duplicate matching webhook: idempotent no-op.
		return tx.Commit()
	}
	if locked.Status.IsTerminal() {
		// Non-matching terminal clash: log and acknowledge, do not mutate.
		logger.Warn(ctx, "state transition conflict",
			zap.String("payment_id", locked.ID),
			zap.String("current_status", string(locked.Status)),
			zap.String("requested_status", string(toStatus)))
		return tx.Commit()
	}

	now := time.Now().UTC()
	if err := u.payments.UpdateStatus(ctx, tx, paymentID, toStatus, now); err != nil {
		_ = tx.Rollback()
		return err
	}

	payload, err := buildEventPayload(locked, toStatus, now)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := u.outbox.Append(ctx, tx, locked.ID, entities.AggregateTypePayment, eventType, payload); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func buildEventPayload(payment *entities.Payment, toStatus entities.PaymentStatus, ts time.Time) ([]byte, error) {
	event := entities.EventPayload{
		PaymentID:     payment.ID,
		OrderCode:     payment.OrderCode,
		AmountCents:   payment.AmountCents,
		Currency:      payment.Currency,
		Provider:      string(payment.Provider),
		TransactionID: payment.ProviderTransactionID,
	}
	iso := ts.Format(time.RFC3339)
	switch toStatus {
	case entities.PaymentStatusCompleted:
		event.CompletedAt = iso
	case entities.PaymentStatusFailed:
		event.FailedAt = iso
	case entities.PaymentStatusCancelled:
		event.CancelledAt = iso
	}
	return json.Marshal(event)
}
