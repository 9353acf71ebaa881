// Package payos implements the providers.Adapter contract over the real
// payOSHQ SDK.
package payos

import (
	"context"
	"encoding/json"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/payOSHQ/payos-lib-golang"

	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/domain/providers"
)

// Config holds the merchant credentials payOS issues per client.
type Config struct {
	ClientID    string
	APIKey      string
	ChecksumKey string
}

type Adapter struct {
	cfg Config

	mu               sync.Mutex
	confirmedWebhook string
}

func New(cfg Config) (*Adapter, error) {
	if err := payos.Key(cfg.ClientID, cfg.APIKey, cfg.ChecksumKey); err != nil {
		return nil, domainerrors.ErrProviderUnavailable
	}
	return &Adapter{cfg: cfg}, nil
}

// CreatePaymentLink builds the numeric order code payOS requires
// (YYYYMMDD * 10^8 + f(orderCode)) and submits the checkout request. The
// numeric code is not reversible to the caller's orderCode, so the
// provider-assigned paymentLinkId is returned as the provider transaction
// id and used for all later lookups.
func (a *Adapter) CreatePaymentLink(ctx context.Context, in providers.CreatePaymentLinkInput) (providers.CreatePaymentLinkOutput, error) {
	if err := a.ensureWebhookConfirmed(in.WebhookURL); err != nil {
		return providers.CreatePaymentLinkOutput{}, err
	}

	numericOrderCode := buildPayOSOrderCode(time.Now(), in.OrderCode)

	body := payos.CheckoutRequestType{
		OrderCode:   numericOrderCode,
		Amount:      int(in.Amount),
		Description: truncateDescription(in.OrderCode),
		CancelUrl:   in.RedirectURL,
		ReturnUrl:   in.RedirectURL,
		Items: []payos.Item{
			{Name: in.OrderCode, Price: int(in.Amount), Quantity: 1},
		},
	}

	resp, err := payos.CreatePaymentLink(body)
	if err != nil {
		return providers.CreatePaymentLinkOutput{}, domainerrors.ErrProviderRejected
	}

	return providers.CreatePaymentLinkOutput{
		PaymentURL:            resp.CheckoutUrl,
		ProviderTransactionID: resp.PaymentLinkId,
	}, nil
}

// ensureWebhookConfirmed registers webhookURL with payOS on first use (or
// whenever it changes). payOS delivers IPNs to whichever URL was last
// confirmed for the merchant account, not to anything passed per checkout,
// so this is the one place that URL can be wired in.
func (a *Adapter) ensureWebhookConfirmed(webhookURL string) error {
	if webhookURL == "" {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.confirmedWebhook == webhookURL {
		return nil
	}
	if _, err := payos.ConfirmWebhook(webhookURL); err != nil {
		return domainerrors.ErrProviderUnavailable
	}
	a.confirmedWebhook = webhookURL
	return nil
}

// buildPayOSOrderCode: YYYYMMDD * 10^8 + base36(last 5 chars of orderCode).
func buildPayOSOrderCode(now time.Time, orderCode string) int64 {
	datePrefix := int64(now.Year())*10000 + int64(now.Month())*100 + int64(now.Day())

	tail := orderCode
	if len(tail) > 5 {
		tail = tail[len(tail)-5:]
	}
	encoded := new(big.Int)
	encoded.SetString(base36Digits(tail), 36)
	suffix := encoded.Int64() % 1e8

	return datePrefix*1e8 + suffix
}

// base36Digits keeps only characters valid in base 36 so big.Int.SetString
// never fails on punctuation in the caller's orderCode tail.
func base36Digits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z':
			out = append(out, c)
		case c >= 'A' && c <= 'Z':
			out = append(out, c-'A'+'a')
		}
	}
	if len(out) == 0 {
		return "0"
	}
	return string(out)
}

func truncateDescription(orderCode string) string {
	desc := "Order " + orderCode
	if len(desc) > 25 {
		desc = desc[:25]
	}
	return desc
}

type callbackResult struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// HandleCallback delegates signature verification to the SDK; success is
// defined by the inner code == "00".
func (a *Adapter) HandleCallback(ctx context.Context, rawBody []byte) (providers.CallbackOutcome, error) {
	var webhook payos.WebhookType
	if err := json.Unmarshal(rawBody, &webhook); err != nil {
		return providers.CallbackOutcome{
			Success:          false,
			ProviderResponse: callbackResult{Error: -1, Message: "Malformed payload"},
		}, domainerrors.ErrMalformedPayload
	}

	data, err := payos.VerifyPaymentWebhookData(webhook)
	if err != nil {
		return providers.CallbackOutcome{
			Success:          false,
			ProviderResponse: callbackResult{Error: -1, Message: "Invalid signature"},
		}, nil
	}

	if webhook.Code != "00" {
		return providers.CallbackOutcome{
			Success:               false,
			ProviderTransactionID: paymentLinkIDFromData(data),
			ProviderResponse:      callbackResult{Error: -1, Message: webhook.Desc},
		}, nil
	}

	return providers.CallbackOutcome{
		Success:               true,
		ProviderTransactionID: paymentLinkIDFromData(data),
		ProviderResponse:      callbackResult{Error: 0, Message: "Success"},
	}, nil
}

func paymentLinkIDFromData(data payos.WebhookDataType) string {
	if data.PaymentLinkId != "" {
		return data.PaymentLinkId
	}
	return strconv.FormatInt(data.OrderCode, 10)
}
