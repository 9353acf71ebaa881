// Package zalopay implements the providers.Adapter contract against
// ZaloPay's create-order and callback wire shapes.
package zalopay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/domain/providers"
)

const createOrderURL = "https://sb-openapi.zalopay.vn/v2/create"

// Config holds the merchant keys ZaloPay issues per app.
type Config struct {
	AppID string
	Key1  string // signs outbound create-order requests
	Key2  string // verifies inbound callback MACs
}

type Adapter struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Adapter {
	return &Adapter{
		cfg: cfg,
		client: &http.Client{
			Transport: &http.Transport{},
			Timeout:   25 * time.Second,
		},
	}
}

type createOrderRequest struct {
	AppID       string `json:"app_id"`
	AppTransID  string `json:"app_trans_id"`
	AppUser     string `json:"app_user"`
	Amount      int64  `json:"amount"`
	AppTime     int64  `json:"app_time"`
	EmbedData   string `json:"embed_data"`
	Item        string `json:"item"`
	Description string `json:"description"`
	Mac         string `json:"mac"`
}

type createOrderResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
	OrderURL      string `json:"order_url"`
}

// CreatePaymentLink builds app_trans_id = YYMMDD_<orderCode> using the
// local day at request time, signs the order with key1, and submits it.
func (a *Adapter) CreatePaymentLink(ctx context.Context, in providers.CreatePaymentLinkInput) (providers.CreatePaymentLinkOutput, error) {
	appTransID := buildAppTransID(time.Now(), in.OrderCode)
	appTime := time.Now().UnixMilli()
	embedData, _ := json.Marshal(map[string]string{
		"redirecturl": in.RedirectURL,
		"callbackurl": in.WebhookURL,
	})
	item := "[]"

	req := createOrderRequest{
		AppID:       a.cfg.AppID,
		AppTransID:  appTransID,
		AppUser:     in.IdempotencyKey,
		Amount:      in.Amount,
		AppTime:     appTime,
		EmbedData:   string(embedData),
		Item:        item,
		Description: fmt.Sprintf("Order %s", in.OrderCode),
	}
	req.Mac = computeOrderMAC(a.cfg.Key1, req)

	body, err := json.Marshal(req)
	if err != nil {
		return providers.CreatePaymentLinkOutput{}, domainerrors.ErrMalformedPayload
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, createOrderURL, bytes.NewReader(body))
	if err != nil {
		return providers.CreatePaymentLinkOutput{}, domainerrors.ErrProviderUnavailable
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return providers.CreatePaymentLinkOutput{}, domainerrors.ErrProviderUnavailable
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.CreatePaymentLinkOutput{}, domainerrors.ErrProviderUnavailable
	}

	var out createOrderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return providers.CreatePaymentLinkOutput{}, domainerrors.ErrMalformedPayload
	}
	if out.ReturnCode != 1 {
		return providers.CreatePaymentLinkOutput{}, domainerrors.ErrProviderRejected
	}

	return providers.CreatePaymentLinkOutput{
		PaymentURL:            out.OrderURL,
		ProviderTransactionID: appTransID,
	}, nil
}

// buildAppTransID uses the local day at call time, not a caller-supplied
// time; a webhook landing on a day boundary can carry a mismatched date
// prefix, which is fine because the suffix (orderCode) is the join key.
func buildAppTransID(now time.Time, orderCode string) string {
	return fmt.Sprintf("%s_%s", now.Format("060102"), orderCode)
}

func computeOrderMAC(key1 string, req createOrderRequest) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d|%s|%s",
		req.AppID, req.AppTransID, req.AppUser, req.Amount, req.AppTime, req.EmbedData, req.Item)
	return hmacSHA256(key1, data)
}

func hmacSHA256(key, data string) string {
	h := hmac.New(sha256.New, []byte(key))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

type callbackEnvelope struct {
	Data string `json:"data"`
	Mac  string `json:"mac"`
	Type int    `json:"type"`
}

type callbackInnerData struct {
	AppTransID string `json:"app_trans_id"`
}

type successResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
}

// HandleCallback verifies the MAC over the raw data string with key2,
// rejects any type other than 1, then decodes the nested JSON to recover
// app_trans_id as the provider transaction id.
func (a *Adapter) HandleCallback(ctx context.Context, rawBody []byte) (providers.CallbackOutcome, error) {
	var envelope callbackEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return providers.CallbackOutcome{
			Success:         false,
			ProviderResponse: successResponse{ReturnCode: -1, ReturnMessage: "Malformed payload"},
		}, domainerrors.ErrMalformedPayload
	}

	expected := hmacSHA256(a.cfg.Key2, envelope.Data)
	if expected != envelope.Mac {
		return providers.CallbackOutcome{
			Success:          false,
			ProviderResponse: successResponse{ReturnCode: -1, ReturnMessage: "Invalid mac"},
		}, nil
	}
	if envelope.Type != 1 {
		return providers.CallbackOutcome{
			Success:          false,
			ProviderResponse: successResponse{ReturnCode: -1, ReturnMessage: "Unsupported callback type"},
		}, nil
	}

	var inner callbackInnerData
	if err := json.Unmarshal([]byte(envelope.Data), &inner); err != nil {
		return providers.CallbackOutcome{
			Success:          false,
			ProviderResponse: successResponse{ReturnCode: -1, ReturnMessage: "Malformed payload"},
		}, nil
	}

	return providers.CallbackOutcome{
		Success:               true,
		ProviderTransactionID: inner.AppTransID,
		ProviderResponse:      successResponse{ReturnCode: 1, ReturnMessage: "Success"},
	}, nil
}
