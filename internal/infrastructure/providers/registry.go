package providers

import (
	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	domainproviders "pay-chain.backend/internal/domain/providers"
	"pay-chain.backend/internal/infrastructure/providers/payos"
	"pay-chain.backend/internal/infrastructure/providers/vnpay"
	"pay-chain.backend/internal/infrastructure/providers/zalopay"
)

// Registry resolves a Provider tag to its configured adapter.
type Registry struct {
	adapters map[entities.Provider]domainproviders.Adapter
}

func NewRegistry(zp *zalopay.Adapter, po *payos.Adapter, vn *vnpay.Adapter) *Registry {
	return &Registry{
		adapters: map[entities.Provider]domainproviders.Adapter{
			entities.ProviderZaloPay: zp,
			entities.ProviderPayOS:   po,
			entities.ProviderVNPay:   vn,
		},
	}
}

func (r *Registry) Resolve(provider entities.Provider) (domainproviders.Adapter, error) {
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, domainerrors.ErrUnsupportedProvider
	}
	return adapter, nil
}
