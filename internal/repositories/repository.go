package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/printhub/printhub-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when a lookup matches no document
var ErrNotFound = errors.New("document not found")

// ErrDuplicateKey is returned when a unique index rejects a write
var ErrDuplicateKey = errors.New("duplicate key")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, filter models.UserFilter, page, limit int) ([]*models.User, int64, error)
	Count(ctx context.Context, filter models.UserFilter) (int64, error)

	// SetOTP stores a new passcode hash and resets the attempt counter
	SetOTP(ctx context.Context, id primitive.ObjectID, hash string, expiresAt time.Time) error
	ClearOTP(ctx context.Context, id primitive.ObjectID) error
	// ReserveOTPAttempt atomically counts an attempt against the stored code and returns the new count.
	// ErrNotFound means the code is gone, was replaced, or has used up its attempts.
	ReserveOTPAttempt(ctx context.Context, id primitive.ObjectID, otpHash string, limit int) (int, error)
	SetApproved(ctx context.Context, id primitive.ObjectID, approved bool) (*models.User, error)
	SetSubscription(ctx context.Context, id primitive.ObjectID, endDate time.Time) error
}

// ProductRepository defines the interface for product data operations
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByName(ctx context.Context, name string) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, search string, page, limit int) ([]*models.Product, int64, error)
	Count(ctx context.Context) (int64, error)
	// AdjustStock applies delta to the product quantity with $inc
	AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error
}

// OrderRepository defines the interface for order data operations.
// The Mark* methods only apply when the order is still in the expected status
// and report whether a document was changed.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByRazorpayOrderID(ctx context.Context, razorpayOrderID string) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter, page, limit int) ([]*models.Order, int64, error)
	CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error)

	MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID, signature string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id primitive.ObjectID, paymentID string) (bool, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (bool, error)
	MarkRefunded(ctx context.Context, id primitive.ObjectID, from models.OrderStatus, refundID string) (bool, error)
}

// SubscriptionRepository defines the interface for subscription data operations
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	FindByRazorpayOrderID(ctx context.Context, razorpayOrderID string) (*models.Subscription, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.Subscription, error)
	Activate(ctx context.Context, id primitive.ObjectID, paymentID, signature string, start, end time.Time) (bool, error)
	Cancel(ctx context.Context, id primitive.ObjectID, paymentID string) (bool, error)
}

// ActivityLogRepository defines the interface for the audit trail
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter models.ActivityLogFilter, page, limit int) ([]*models.ActivityLog, int64, error)
	CountByAction(ctx context.Context, filter models.ActivityLogFilter) ([]models.ActionCount, error)
}
