package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/printhub/printhub-backend/pkg/razorpay"
	"go.uber.org/zap"
)

type webhookService struct {
	gateway  PaymentGateway
	appliers []GatewayPaymentApplier
	log      *zap.Logger
}

// NewWebhookService creates a WebhookService that offers each payment event to the appliers in order
func NewWebhookService(gateway PaymentGateway, log *zap.Logger, appliers ...GatewayPaymentApplier) WebhookService {
	return &webhookService{gateway: gateway, appliers: appliers, log: log}
}

// HandleWebhook verifies the body signature and applies payment.captured and payment.failed events.
// Other events, and payments for unknown gateway orders, are acknowledged and ignored.
func (s *webhookService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if signature == "" || !s.gateway.VerifyWebhookSignature(body, signature) {
		return ErrInvalidSignature
	}

	event, err := razorpay.ParseWebhookEvent(body)
	if err != nil {
		return fmt.Errorf("%w: malformed webhook body", ErrInvalidInput)
	}

	var captured bool
	switch event.Event {
	case razorpay.EventPaymentCaptured:
		captured = true
	case razorpay.EventPaymentFailed:
		captured = false
	default:
		s.log.Debug("ignoring webhook event", zap.String("event", event.Event))
		return nil
	}

	payment := event.Payload.Payment.Entity
	if payment.OrderID == "" {
		return fmt.Errorf("%w: payment without order id", ErrInvalidInput)
	}

	for _, applier := range s.appliers {
		err := applier.ApplyGatewayPayment(ctx, payment.OrderID, payment.ID, captured)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return err
	}

	s.log.Warn("webhook for unknown gateway order",
		zap.String("event", event.Event),
		zap.String("razorpayOrderId", payment.OrderID))
	return nil
}
