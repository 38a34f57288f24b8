package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription is a paid membership for a reseller
type Subscription struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID            primitive.ObjectID `bson:"userId" json:"userId"`
	Plan              string             `bson:"plan" json:"plan"`
	Amount            float64            `bson:"amount" json:"amount"`
	DurationDays      int                `bson:"durationDays" json:"durationDays"`
	Currency          string             `bson:"currency" json:"currency"`
	Status            SubscriptionStatus `bson:"status" json:"status"`
	RazorpayOrderID   string             `bson:"razorpayOrderId" json:"razorpayOrderId"`
	RazorpayPaymentID string             `bson:"razorpayPaymentId,omitempty" json:"razorpayPaymentId,omitempty"`
	RazorpaySignature string             `bson:"razorpaySignature,omitempty" json:"-"`
	StartDate         *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate           *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CreateSubscriptionRequest selects a plan
type CreateSubscriptionRequest struct {
	Plan string `json:"plan" validate:"required"`
}

// SubscriptionCheckout is returned when a subscription payment is opened
type SubscriptionCheckout struct {
	Subscription *Subscription `json:"subscription"`
	KeyID        string        `json:"keyId"`
	Amount       int64         `json:"amount"`
	Currency     string        `json:"currency"`
	GatewayID    string        `json:"razorpayOrderId"`
}
