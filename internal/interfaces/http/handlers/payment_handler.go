package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/interfaces/http/response"
	"pay-chain.backend/internal/usecases"
)

// PaymentService is the RPC surface (C7) as seen by the HTTP transport.
type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, req usecases.CreatePaymentIntentRequest) (*usecases.CreatePaymentIntentResponse, error)
	GetPaymentUrlByIdempotencyKey(ctx context.Context, idempotencyKey string) (*usecases.GetPaymentUrlByIdempotencyKeyResponse, error)
}

// PaymentHandler is the thin Gin adapter over the RPC surface.
type PaymentHandler struct {
	service PaymentService
}

func NewPaymentHandler(service PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// CreatePaymentIntent creates or replays a payment checkout URL.
// POST /api/v1/payments
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	var req usecases.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.ValidationError(err.Error()))
		return
	}

	resp, err := h.service.CreatePaymentIntent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// GetPaymentUrlByIdempotencyKey looks up a payment's URL and status.
// GET /api/v1/payments/:idempotencyKey
func (h *PaymentHandler) GetPaymentUrlByIdempotencyKey(c *gin.Context) {
	key := c.Param("idempotencyKey")
	if key == "" {
		response.Error(c, domainerrors.ValidationError("idempotencyKey is required"))
		return
	}

	resp, err := h.service.GetPaymentUrlByIdempotencyKey(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}
