package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address is a postal address used for users and order shipping
type Address struct {
	Line1      string `bson:"line1" json:"line1" validate:"required,max=200"`
	Line2      string `bson:"line2,omitempty" json:"line2,omitempty" validate:"max=200"`
	City       string `bson:"city" json:"city" validate:"required,max=100"`
	State      string `bson:"state" json:"state" validate:"required,max=100"`
	Country    string `bson:"country" json:"country" validate:"required,max=100"`
	PostalCode string `bson:"postalCode" json:"postalCode" validate:"required,max=20"`
}

// User represents a reseller account (or an admin) in the system
type User struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name                string             `bson:"name" json:"name"`
	Email               string             `bson:"email" json:"email"`
	Password            string             `bson:"password" json:"-"`
	Phone               string             `bson:"phone,omitempty" json:"phone,omitempty"`
	IsApproved          bool               `bson:"isApproved" json:"isApproved"`
	IsAdmin             bool               `bson:"isAdmin" json:"isAdmin"`
	Address             Address            `bson:"address" json:"address"`
	VisitingCard        string             `bson:"visitingCard,omitempty" json:"visitingCard,omitempty"`
	OTPHash             string             `bson:"otpHash,omitempty" json:"-"`
	OTPExpiresAt        *time.Time         `bson:"otpExpiresAt,omitempty" json:"-"`
	OTPAttempts         int                `bson:"otpAttempts" json:"-"`
	IsSubscribed        bool               `bson:"isSubscribed" json:"isSubscribed"`
	SubscriptionEndDate *time.Time         `bson:"subscriptionEndDate,omitempty" json:"subscriptionEndDate,omitempty"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasActiveSubscription reports whether the subscription end date lies after now
func (u *User) HasActiveSubscription(now time.Time) bool {
	return u.IsSubscribed && u.SubscriptionEndDate != nil && u.SubscriptionEndDate.After(now)
}

// UserFilter narrows admin user listings
type UserFilter struct {
	Search     string
	IsApproved *bool
}

// UserUpdate carries the admin-editable fields of a user. Nil fields are left untouched.
type UserUpdate struct {
	Name       *string  `json:"name" validate:"omitempty,min=2,max=100"`
	Phone      *string  `json:"phone" validate:"omitempty,max=20"`
	Address    *Address `json:"address" validate:"omitempty"`
	IsApproved *bool    `json:"isApproved"`
	IsAdmin    *bool    `json:"isAdmin"`
	Password   *string  `json:"password" validate:"omitempty,min=8,max=72"`
}
