package services

import (
	"testing"

	"github.com/printhub/printhub-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCanTransitionMatchesWhitelist(t *testing.T) {
	allowed := map[models.OrderStatus][]models.OrderStatus{
		models.OrderStatusPlaced:         {models.OrderStatusPaid},
		models.OrderStatusProcessing:     {models.OrderStatusPaid, models.OrderStatusPlaced},
		models.OrderStatusOutForDelivery: {models.OrderStatusProcessing},
		models.OrderStatusDelivered:      {models.OrderStatusOutForDelivery},
		models.OrderStatusCancelled: {
			models.OrderStatusPending, models.OrderStatusPaid, models.OrderStatusPlaced, models.OrderStatusProcessing,
		},
	}

	for _, to := range models.AllOrderStatuses {
		for _, from := range models.AllOrderStatuses {
			want := false
			for _, f := range allowed[to] {
				if f == from {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestPaymentStatusesNotAdminReachable(t *testing.T) {
	for _, to := range []models.OrderStatus{models.OrderStatusPaid, models.OrderStatusFailed, models.OrderStatusRefunded} {
		for _, from := range models.AllOrderStatuses {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}
