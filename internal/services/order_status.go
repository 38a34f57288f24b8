package services

import "github.com/printhub/printhub-backend/internal/models"

// allowedPredecessors maps each admin-settable status to the statuses it may be reached from.
// paid, failed and refunded are absent: only payment verification and refunds set them.
var allowedPredecessors = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPlaced:         {models.OrderStatusPaid},
	models.OrderStatusProcessing:     {models.OrderStatusPaid, models.OrderStatusPlaced},
	models.OrderStatusOutForDelivery: {models.OrderStatusProcessing},
	models.OrderStatusDelivered:      {models.OrderStatusOutForDelivery},
	models.OrderStatusCancelled: {
		models.OrderStatusPending,
		models.OrderStatusPaid,
		models.OrderStatusPlaced,
		models.OrderStatusProcessing,
	},
}

var refundableStatuses = map[models.OrderStatus]bool{
	models.OrderStatusPaid:       true,
	models.OrderStatusPlaced:     true,
	models.OrderStatusProcessing: true,
	models.OrderStatusCancelled:  true,
}

// CanTransition reports whether an admin may move an order from one status to another
func CanTransition(from, to models.OrderStatus) bool {
	for _, allowed := range allowedPredecessors[to] {
		if allowed == from {
			return true
		}
	}
	return false
}
