package vnpay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/domain/providers"
)

func TestAdapter_AlwaysUnsupported(t *testing.T) {
	a := New()
	_, err := a.CreatePaymentLink(context.Background(), providers.CreatePaymentLinkInput{})
	require.ErrorIs(t, err, domainerrors.ErrUnsupportedProvider)

	_, err = a.HandleCallback(context.Background(), []byte(`{}`))
	require.ErrorIs(t, err, domainerrors.ErrUnsupportedProvider)
}
