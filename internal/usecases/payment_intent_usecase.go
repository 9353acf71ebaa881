package usecases

import (
	"context"
	"errors"
	"net/url"

	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
)

// CreatePaymentIntentRequest is the RPC-facing request shape (spec.md §6).
type CreatePaymentIntentRequest struct {
	OrderCode      string            `json:"orderCode" binding:"required"`
	AmountCents    int64             `json:"amountCents" binding:"required"`
	Currency       string            `json:"currency" binding:"required"`
	Provider       entities.Provider `json:"provider" binding:"required"`
	IdempotencyKey string            `json:"idempotencyKey" binding:"required"`
	RedirectURL    string            `json:"redirectUrl"`
	TimeoutSeconds int32             `json:"timeoutSeconds" binding:"required"`
}

type CreatePaymentIntentResponse struct {
	PaymentURL string `json:"paymentUrl"`
}

type GetPaymentUrlByIdempotencyKeyResponse struct {
	PaymentURL string                 `json:"paymentUrl"`
	Status     entities.PaymentStatus `json:"status"`
}

// supportedCurrencies is deliberately a single entry: spec.md §4.7 scopes
// this service to VND-denominated Vietnamese payment gateways.
var supportedCurrencies = map[string]bool{"VND": true}

// PaymentIntentUsecase is the RPC surface (C7): it validates requests and
// maps engine errors to business codes, delegating all state mutation to
// the Lifecycle Engine.
type PaymentIntentUsecase struct {
	lifecycle *LifecycleUsecase
}

func NewPaymentIntentUsecase(lifecycle *LifecycleUsecase) *PaymentIntentUsecase {
	return &PaymentIntentUsecase{lifecycle: lifecycle}
}

func (u *PaymentIntentUsecase) CreatePaymentIntent(ctx context.Context, req CreatePaymentIntentRequest) (*CreatePaymentIntentResponse, error) {
	if err := validateCreateIntent(req); err != nil {
		return nil, err
	}

	paymentURL, err := u.lifecycle.CreateIntent(ctx, CreateIntentInput{
		OrderCode:      req.OrderCode,
		IdempotencyKey: req.IdempotencyKey,
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		Provider:       req.Provider,
		RedirectURL:    req.RedirectURL,
		TimeoutSeconds: int(req.TimeoutSeconds),
	})
	if err != nil {
		return nil, classifyEngineError(err)
	}
	return &CreatePaymentIntentResponse{PaymentURL: paymentURL}, nil
}

func (u *PaymentIntentUsecase) GetPaymentUrlByIdempotencyKey(ctx context.Context, idempotencyKey string) (*GetPaymentUrlByIdempotencyKeyResponse, error) {
	if idempotencyKey == "" {
		return nil, domainerrors.ValidationError("idempotencyKey is required")
	}

	payment, err := u.lifecycle.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, classifyEngineError(err)
	}
	return &GetPaymentUrlByIdempotencyKeyResponse{PaymentURL: payment.PaymentURL, Status: payment.Status}, nil
}

func validateCreateIntent(req CreatePaymentIntentRequest) error {
	switch {
	case req.AmountCents <= 0:
		return domainerrors.ValidationError("amountCents must be positive")
	case !supportedCurrencies[req.Currency]:
		return domainerrors.ValidationError("currency is not supported")
	case req.OrderCode == "":
		return domainerrors.ValidationError("orderCode is required")
	case req.IdempotencyKey == "":
		return domainerrors.ValidationError("idempotencyKey is required")
	case req.Provider != entities.ProviderZaloPay && req.Provider != entities.ProviderPayOS && req.Provider != entities.ProviderVNPay:
		return domainerrors.ValidationError("provider is not supported")
	case req.TimeoutSeconds <= 0:
		return domainerrors.ValidationError("timeoutSeconds must be positive")
	}
	if req.RedirectURL != "" {
		if _, err := url.ParseRequestURI(req.RedirectURL); err != nil {
			return domainerrors.ValidationError("redirectUrl must be a valid URL")
		}
	}
	return nil
}

// classifyEngineError maps Lifecycle Engine errors to the business codes
// spec.md §4.7 requires. Anything unrecognized surfaces as an internal
// error rather than leaking the engine's internal sentinel.
func classifyEngineError(err error) error {
	switch {
	case errors.Is(err, domainerrors.ErrPaymentNotFound):
		return domainerrors.NotFound("payment not found")
	case errors.Is(err, domainerrors.ErrProviderRejected):
		return domainerrors.Forbidden(err.Error())
	default:
		var appErr *domainerrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return domainerrors.InternalError(err)
	}
}
