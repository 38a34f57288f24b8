package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// PaymentSignature computes the checkout signature for an order/payment pair
func PaymentSignature(orderID, paymentID, secret string) string {
	return sign([]byte(orderID+"|"+paymentID), secret)
}

// VerifyPaymentSignature checks the signature returned by the checkout widget
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	expected := PaymentSignature(orderID, paymentID, c.KeySecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the raw body
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if c.WebhookSecret == "" {
		return false
	}
	expected := sign(body, c.WebhookSecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// WebhookSignature computes the signature the gateway sends for body
func WebhookSignature(body []byte, secret string) string {
	return sign(body, secret)
}

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// WebhookEvent is the envelope of a gateway webhook delivery
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity Payment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ParseWebhookEvent decodes a webhook body
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)
