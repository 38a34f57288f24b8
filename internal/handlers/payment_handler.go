package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/printhub/printhub-backend/internal/services"
)

const maxWebhookBytes = 1 << 20

// PaymentHandler receives gateway webhooks
type PaymentHandler struct {
	webhookService services.WebhookService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(webhookService services.WebhookService) *PaymentHandler {
	return &PaymentHandler{webhookService: webhookService}
}

// Webhook handles POST /api/payments/webhook. The raw body is needed for the signature check.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	if err := h.webhookService.HandleWebhook(c.Request.Context(), body, c.GetHeader("X-Razorpay-Signature")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
