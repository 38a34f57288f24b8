package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusFailed         OrderStatus = "failed"
	OrderStatusRefunded       OrderStatus = "refunded"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// AllOrderStatuses lists every known status, in lifecycle order
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusPlaced,
	OrderStatusProcessing,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusFailed,
	OrderStatusRefunded,
	OrderStatusCancelled,
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	for _, known := range AllOrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// OrderItem is a snapshot of a product at the time of ordering
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
}

// Order represents a customer order and its payment references
type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID            primitive.ObjectID `bson:"userId" json:"userId"`
	Items             []OrderItem        `bson:"items" json:"items"`
	Subtotal          float64            `bson:"subtotal" json:"subtotal"`
	Tax               float64            `bson:"tax" json:"tax"`
	Total             float64            `bson:"total" json:"total"`
	Currency          string             `bson:"currency" json:"currency"`
	Status            OrderStatus        `bson:"status" json:"status"`
	RazorpayOrderID   string             `bson:"razorpayOrderId" json:"razorpayOrderId"`
	RazorpayPaymentID string             `bson:"razorpayPaymentId,omitempty" json:"razorpayPaymentId,omitempty"`
	RazorpaySignature string             `bson:"razorpaySignature,omitempty" json:"-"`
	RazorpayRefundID  string             `bson:"razorpayRefundId,omitempty" json:"razorpayRefundId,omitempty"`
	ShippingAddress   Address            `bson:"shippingAddress" json:"shippingAddress"`
	Notes             string             `bson:"notes,omitempty" json:"notes,omitempty"`
	PaidAt            *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CartItem is one line of a checkout request
type CartItem struct {
	ProductID string `json:"productId" validate:"required,len=24,hexadecimal"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=100000"`
}

// CreateOrderRequest is the checkout payload
type CreateOrderRequest struct {
	Items           []CartItem `json:"items" validate:"required,min=1,max=50,dive"`
	ShippingAddress Address    `json:"shippingAddress" validate:"required"`
	Notes           string     `json:"notes" validate:"max=1000"`
}

// VerifyPaymentRequest is sent by the client after the gateway checkout completes
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId" validate:"required"`
	RazorpayPaymentID string `json:"razorpayPaymentId" validate:"required"`
	RazorpaySignature string `json:"razorpaySignature" validate:"required"`
}

// UpdateOrderStatusRequest is the admin status change payload
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
}

// CheckoutResponse returns the local order plus what the client needs to open the gateway checkout
type CheckoutResponse struct {
	Order     *Order `json:"order"`
	KeyID     string `json:"keyId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	GatewayID string `json:"razorpayOrderId"`
}

// OrderFilter narrows order listings
type OrderFilter struct {
	UserID *primitive.ObjectID
	Status OrderStatus
	From   *time.Time
	To     *time.Time
}
