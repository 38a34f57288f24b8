package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects published by the storefront
const (
	SubjectUserRegistered     = "users.registered"
	SubjectOrderPaid          = "orders.paid"
	SubjectOrderStatusUpdated = "orders.status_updated"
	SubjectSubscriptionActive = "subscriptions.activated"
)

// Publisher emits domain events. Publishing is best effort; callers log failures and move on.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

// UserRegistered is published after a reseller signs up
type UserRegistered struct {
	UserID string    `json:"userId"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	At     time.Time `json:"at"`
}

// OrderPaid is published once an order's payment is verified
type OrderPaid struct {
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	PaymentID string    `json:"paymentId"`
	Total     float64   `json:"total"`
	Currency  string    `json:"currency"`
	At        time.Time `json:"at"`
}

// OrderStatusUpdated is published when an admin moves an order along
type OrderStatusUpdated struct {
	OrderID string    `json:"orderId"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	At      time.Time `json:"at"`
}

// SubscriptionActivated is published when a subscription payment is verified
type SubscriptionActivated struct {
	SubscriptionID string    `json:"subscriptionId"`
	UserID         string    `json:"userId"`
	Plan           string    `json:"plan"`
	EndDate        time.Time `json:"endDate"`
}

const (
	connectWait   = 5 * time.Second
	maxReconnects = 5
	reconnectWait = 2 * time.Second
)

// Connect dials the NATS server with reconnect handling
func Connect(url string, log *zap.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("printhub-backend"),
		nats.Timeout(connectWait),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes JSON encoded events on a NATS connection
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher creates a new NATSPublisher
func NewNATSPublisher(conn *nats.Conn) (*NATSPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("NATS connection cannot be nil")
	}
	return &NATSPublisher{conn: conn}, nil
}

// Publish marshals payload to JSON and publishes it on subject
func (p *NATSPublisher) Publish(_ context.Context, subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event for subject %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }
