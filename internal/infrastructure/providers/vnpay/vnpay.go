// Package vnpay reserves the VNPay provider slot. VNPay is not wired to a
// live gateway; every call fails with an unsupported-provider error.
package vnpay

import (
	"context"

	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/domain/providers"
)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) CreatePaymentLink(ctx context.Context, in providers.CreatePaymentLinkInput) (providers.CreatePaymentLinkOutput, error) {
	return providers.CreatePaymentLinkOutput{}, domainerrors.ErrUnsupportedProvider
}

func (a *Adapter) HandleCallback(ctx context.Context, rawBody []byte) (providers.CallbackOutcome, error) {
	return providers.CallbackOutcome{}, domainerrors.ErrUnsupportedProvider
}
