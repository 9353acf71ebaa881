package usecases

import (
	"context"
	"encoding/json"

	"pay-chain.backend/internal/domain/entities"
	"pay-chain.backend/pkg/logger"

	"go.uber.org/zap"
)

// zalopayShape and payosShape are the minimal fields each provider's
// callback body carries, used to infer the provider when the route
// itself doesn't name one (spec.md §4.6).
type zalopayShape struct {
	Data string `json:"data"`
	Mac  string `json:"mac"`
	Type int    `json:"type"`
}

type payosShape struct {
	Code      string `json:"code"`
	Desc      string `json:"desc"`
	Signature string `json:"signature"`
}

// WebhookUsecase is the ingress for provider callbacks (C6). It never
// returns an error the HTTP layer should reflect as non-200: the adapter
// is the sole authority on what envelope the provider receives back.
type WebhookUsecase struct {
	resolver  ProviderResolver
	lifecycle *LifecycleUsecase
}

func NewWebhookUsecase(resolver ProviderResolver, lifecycle *LifecycleUsecase) *WebhookUsecase {
	return &WebhookUsecase{resolver: resolver, lifecycle: lifecycle}
}

// HandleZaloPayCallback processes a body arriving on /webhook/zalopay.
func (u *WebhookUsecase) HandleZaloPayCallback(ctx context.Context, rawBody []byte) any {
	return u.handle(ctx, entities.ProviderZaloPay, rawBody)
}

// HandlePayOSCallback processes a body arriving on /webhook/payos.
func (u *WebhookUsecase) HandlePayOSCallback(ctx context.Context, rawBody []byte) any {
	return u.handle(ctx, entities.ProviderPayOS, rawBody)
}

// InferProvider guesses the provider from body shape alone, for a single
// shared webhook route. Returns "" if neither shape matches.
func InferProvider(rawBody []byte) entities.Provider {
	var zp zalopayShape
	if err := json.Unmarshal(rawBody, &zp); err == nil && zp.Data != "" && zp.Mac != "" {
		return entities.ProviderZaloPay
	}
	var po payosShape
	if err := json.Unmarshal(rawBody, &po); err == nil && po.Code != "" && po.Signature != "" {
		return entities.ProviderPayOS
	}
	return ""
}

func (u *WebhookUsecase) handle(ctx context.Context, provider entities.Provider, rawBody []byte) any {
	adapter, err := u.resolver.Resolve(provider)
	if err != nil {
		logger.Error(ctx, "webhook for unresolvable provider", zap.String("provider", string(provider)), zap.Error(err))
		return genericFailureEnvelope(provider)
	}

	outcome, err := adapter.HandleCallback(ctx, rawBody)
	if err != nil {
		logger.Warn(ctx, "webhook callback validation failed", zap.String("provider", string(provider)), zap.Error(err))
		if outcome.ProviderResponse != nil {
			return outcome.ProviderResponse
		}
		return genericFailureEnvelope(provider)
	}

	if outcome.Success {
		if outcome.ProviderTransactionID == "" {
			logger.Error(ctx, "webhook success with no provider transaction id", zap.String("provider", string(provider)))
			return outcome.ProviderResponse
		}
		if err := u.lifecycle.CompleteByProviderTxID(ctx, outcome.ProviderTransactionID); err != nil {
			logger.Error(ctx, "completing payment from webhook failed", zap.String("provider_transaction_id", outcome.ProviderTransactionID), zap.Error(err))
		}
		return outcome.ProviderResponse
	}

	// Failure branch: only drive the engine if the callback was at least
	// well-formed enough to carry a provider transaction id.
	if outcome.ProviderTransactionID != "" {
		if err := u.lifecycle.FailByProviderTxID(ctx, outcome.ProviderTransactionID, ""); err != nil {
			logger.Error(ctx, "failing payment from webhook failed", zap.String("provider_transaction_id", outcome.ProviderTransactionID), zap.Error(err))
		}
	}
	return outcome.ProviderResponse
}

func genericFailureEnvelope(provider entities.Provider) any {
	switch provider {
	case entities.ProviderPayOS:
		return map[string]any{"error": -1, "message": "invalid callback", "data": nil}
	default:
		return map[string]any{"return_code": -1, "return_message": "invalid callback"}
	}
}
