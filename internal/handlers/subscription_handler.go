package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/printhub/printhub-backend/internal/middleware"
	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/services"
)

// SubscriptionHandler sells membership plans
type SubscriptionHandler struct {
	subscriptionService services.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptionService services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// CreateSubscription handles POST /api/subscriptions
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req models.CreateSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	checkout, err := h.subscriptionService.Create(c.Request.Context(), middleware.CurrentUser(c).ID, req.Plan, requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkout)
}

// VerifySubscription handles POST /api/subscriptions/verify
func (h *SubscriptionHandler) VerifySubscription(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.subscriptionService.Verify(c.Request.Context(), middleware.CurrentUser(c).ID, &req, requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// MySubscriptions handles GET /api/subscriptions
func (h *SubscriptionHandler) MySubscriptions(c *gin.Context) {
	subs, err := h.subscriptionService.Mine(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if subs == nil {
		subs = []*models.Subscription{}
	}
	c.JSON(http.StatusOK, gin.H{"items": subs})
}
