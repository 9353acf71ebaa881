package main

import (
	"github.com/gin-gonic/gin"

	"pay-chain.backend/internal/interfaces/http/handlers"
)

type routeDeps struct {
	paymentHandler *handlers.PaymentHandler
	webhookHandler *handlers.WebhookHandler
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		payments := v1.Group("/payments")
		{
			payments.POST("", d.paymentHandler.CreatePaymentIntent)
			payments.GET("/:idempotencyKey", d.paymentHandler.GetPaymentUrlByIdempotencyKey)
		}
	}

	webhooks := r.Group("/webhook")
	{
		webhooks.POST("/zalopay", d.webhookHandler.HandleZaloPay)
		webhooks.POST("/payos", d.webhookHandler.HandlePayOS)
	}
}
