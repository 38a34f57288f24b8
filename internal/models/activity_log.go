package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityAction enumerates audit events
type ActivityAction string

const (
	ActionUserRegistered        ActivityAction = "user_registered"
	ActionUserLogin             ActivityAction = "user_login"
	ActionUserLoginFailed       ActivityAction = "user_login_failed"
	ActionUserLogout            ActivityAction = "user_logout"
	ActionUserApproved          ActivityAction = "user_approved"
	ActionUserCreated           ActivityAction = "user_created"
	ActionUserUpdated           ActivityAction = "user_updated"
	ActionUserDeleted           ActivityAction = "user_deleted"
	ActionProductCreated        ActivityAction = "product_created"
	ActionProductUpdated        ActivityAction = "product_updated"
	ActionProductDeleted        ActivityAction = "product_deleted"
	ActionOrderCreated          ActivityAction = "order_created"
	ActionPaymentVerified       ActivityAction = "payment_verified"
	ActionPaymentFailed         ActivityAction = "payment_failed"
	ActionOrderStatusUpdated    ActivityAction = "order_status_updated"
	ActionOrderRefunded         ActivityAction = "order_refunded"
	ActionSubscriptionCreated   ActivityAction = "subscription_created"
	ActionSubscriptionActivated ActivityAction = "subscription_activated"
	ActionSubscriptionFailed    ActivityAction = "subscription_failed"
)

var allActions = map[ActivityAction]struct{}{
	ActionUserRegistered: {}, ActionUserLogin: {}, ActionUserLoginFailed: {}, ActionUserLogout: {},
	ActionUserApproved: {}, ActionUserCreated: {}, ActionUserUpdated: {}, ActionUserDeleted: {},
	ActionProductCreated: {}, ActionProductUpdated: {}, ActionProductDeleted: {},
	ActionOrderCreated: {}, ActionPaymentVerified: {}, ActionPaymentFailed: {},
	ActionOrderStatusUpdated: {}, ActionOrderRefunded: {},
	ActionSubscriptionCreated: {}, ActionSubscriptionActivated: {}, ActionSubscriptionFailed: {},
}

// Valid reports whether a is a known action
func (a ActivityAction) Valid() bool {
	_, ok := allActions[a]
	return ok
}

// ActivityLog is an append-only audit entry
type ActivityLog struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    *primitive.ObjectID    `bson:"userId,omitempty" json:"userId,omitempty"`
	Action    ActivityAction         `bson:"action" json:"action"`
	Details   string                 `bson:"details,omitempty" json:"details,omitempty"`
	Metadata  map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	IP        string                 `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string                 `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	CreatedAt time.Time              `bson:"createdAt" json:"createdAt"`
}

// ActivityLogFilter narrows audit queries
type ActivityLogFilter struct {
	UserID *primitive.ObjectID
	Action ActivityAction
	From   *time.Time
	To     *time.Time
}

// ActionCount is one row of the per-action aggregate
type ActionCount struct {
	Action ActivityAction `bson:"_id" json:"action"`
	Count  int64          `bson:"count" json:"count"`
}

// RequestMeta carries the client details recorded in audit entries
type RequestMeta struct {
	IP        string
	UserAgent string
}
