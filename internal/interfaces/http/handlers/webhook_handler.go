package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// WebhookService is the provider callback ingress (C6) as seen by the
// HTTP transport.
type WebhookService interface {
	HandleZaloPayCallback(ctx context.Context, rawBody []byte) any
	HandlePayOSCallback(ctx context.Context, rawBody []byte) any
}

// WebhookHandler is the thin Gin adapter over the webhook ingress. Every
// route always answers HTTP 200: both providers retransmit on any other
// status, which would re-drive a callback that already failed validation
// for a reason a retry cannot fix.
type WebhookHandler struct {
	service WebhookService
}

func NewWebhookHandler(service WebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// HandleZaloPay handles ZaloPay's create-order callback.
// POST /webhook/zalopay
func (h *WebhookHandler) HandleZaloPay(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	c.JSON(http.StatusOK, h.service.HandleZaloPayCallback(c.Request.Context(), body))
}

// HandlePayOS handles PayOS's payment-link callback.
// POST /webhook/payos
func (h *WebhookHandler) HandlePayOS(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	c.JSON(http.StatusOK, h.service.HandlePayOSCallback(c.Request.Context(), body))
}
