package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
)

func TestPaymentIntent_CreatePaymentIntent_HappyPath(t *testing.T) {
	db := newLifecycleTestDB(t)
	adapter := &fakeAdapter{url: "https://pay.example/checkout/1", pid: "ztx-rpc-1"}
	lifecycle := newLifecycleUsecase(db, adapter)
	u := NewPaymentIntentUsecase(lifecycle)

	resp, err := u.CreatePaymentIntent(context.Background(), CreatePaymentIntentRequest{
		OrderCode:      "rpc-1",
		AmountCents:    150000,
		Currency:       "VND",
		Provider:       entities.ProviderZaloPay,
		IdempotencyKey: "rpc-key-1",
		RedirectURL:    "https://merchant.example/return",
		TimeoutSeconds: 900,
	})
	require.NoError(t, err)
	require.Equal(t, "https://pay.example/checkout/1", resp.PaymentURL)
}

func TestPaymentIntent_CreatePaymentIntent_RejectsInvalidAmount(t *testing.T) {
	db := newLifecycleTestDB(t)
	u := NewPaymentIntentUsecase(newLifecycleUsecase(db, &fakeAdapter{}))

	_, err := u.CreatePaymentIntent(context.Background(), CreatePaymentIntentRequest{
		OrderCode: "rpc-2", AmountCents: 0, Currency: "VND",
		Provider: entities.ProviderZaloPay, IdempotencyKey: "rpc-key-2", TimeoutSeconds: 900,
	})
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 400, appErr.Status)
}

func TestPaymentIntent_CreatePaymentIntent_RejectsUnsupportedCurrency(t *testing.T) {
	db := newLifecycleTestDB(t)
	u := NewPaymentIntentUsecase(newLifecycleUsecase(db, &fakeAdapter{}))

	_, err := u.CreatePaymentIntent(context.Background(), CreatePaymentIntentRequest{
		OrderCode: "rpc-3", AmountCents: 1000, Currency: "USD",
		Provider: entities.ProviderZaloPay, IdempotencyKey: "rpc-key-3", TimeoutSeconds: 900,
	})
	require.Error(t, err)
}

func TestPaymentIntent_CreatePaymentIntent_RejectsMalformedRedirectURL(t *testing.T) {
	db := newLifecycleTestDB(t)
	u := NewPaymentIntentUsecase(newLifecycleUsecase(db, &fakeAdapter{}))

	_, err := u.CreatePaymentIntent(context.Background(), CreatePaymentIntentRequest{
		OrderCode: "rpc-4", AmountCents: 1000, Currency: "VND",
		Provider: entities.ProviderZaloPay, IdempotencyKey: "rpc-key-4",
		RedirectURL: "not a url", TimeoutSeconds: 900,
	})
	require.Error(t, err)
}

func TestPaymentIntent_GetPaymentUrlByIdempotencyKey_NotFoundMapsToBusinessCode(t *testing.T) {
	db := newLifecycleTestDB(t)
	u := NewPaymentIntentUsecase(newLifecycleUsecase(db, &fakeAdapter{}))

	_, err := u.GetPaymentUrlByIdempotencyKey(context.Background(), "does-not-exist")
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, domainerrors.CodePaymentNotFound, appErr.Code)
}

func TestPaymentIntent_GetPaymentUrlByIdempotencyKey_HappyPath(t *testing.T) {
	db := newLifecycleTestDB(t)
	adapter := &fakeAdapter{url: "https://pay.example/checkout/2", pid: "ztx-rpc-5"}
	lifecycle := newLifecycleUsecase(db, adapter)
	u := NewPaymentIntentUsecase(lifecycle)

	_, err := u.CreatePaymentIntent(context.Background(), CreatePaymentIntentRequest{
		OrderCode: "rpc-5", AmountCents: 1000, Currency: "VND",
		Provider: entities.ProviderZaloPay, IdempotencyKey: "rpc-key-5", TimeoutSeconds: 900,
	})
	require.NoError(t, err)

	resp, err := u.GetPaymentUrlByIdempotencyKey(context.Background(), "rpc-key-5")
	require.NoError(t, err)
	require.Equal(t, "https://pay.example/checkout/2", resp.PaymentURL)
	require.Equal(t, entities.PaymentStatusPending, resp.Status)
}
