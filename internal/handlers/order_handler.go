package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/printhub/printhub-backend/internal/middleware"
	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderHandler covers checkout for customers and order administration
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrder handles POST /api/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	user := middleware.CurrentUser(c)
	checkout, err := h.orderService.Create(c.Request.Context(), user.ID, &req, requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkout)
}

// VerifyPayment handles POST /api/orders/verify
func (h *OrderHandler) VerifyPayment(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	user := middleware.CurrentUser(c)
	order, err := h.orderService.VerifyPayment(c.Request.Context(), user.ID, &req, requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListMyOrders handles GET /api/orders
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	page, limit := pagination(c)
	orders, err := h.orderService.ListMine(c.Request.Context(), middleware.CurrentUser(c).ID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetMyOrder handles GET /api/orders/:id
func (h *OrderHandler) GetMyOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetMine(c.Request.Context(), middleware.CurrentUser(c).ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /api/admin/orders?status=&userId=&from=&to=&page=&limit=
func (h *OrderHandler) ListOrders(c *gin.Context) {
	page, limit := pagination(c)
	filter := models.OrderFilter{Status: models.OrderStatus(c.Query("status"))}
	if raw := c.Query("userId"); raw != "" {
		uid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
			return
		}
		filter.UserID = &uid
	}
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}
	filter.From, filter.To = from, to

	orders, err := h.orderService.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder handles GET /api/admin/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles PATCH /api/admin/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orderService.UpdateStatus(c.Request.Context(), id, req.Status, actorID(c), requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// RefundOrder handles POST /api/admin/orders/:id/refund
func (h *OrderHandler) RefundOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.Refund(c.Request.Context(), id, actorID(c), requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
