package services

import (
	"context"
	"errors"

	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/pkg/jwt"
	"github.com/printhub/printhub-backend/pkg/razorpay"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Domain errors. Handlers map these to HTTP statuses; wrap them with %w to add detail.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrEmailTaken            = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrAccountPending        = errors.New("account pending approval")
	ErrOTPExpired            = errors.New("otp expired")
	ErrOTPInvalid            = errors.New("invalid otp")
	ErrOTPLocked             = errors.New("too many attempts, please log in again")
	ErrVisitingCardRequired  = errors.New("visiting card is required")
	ErrInvalidUpload         = errors.New("visiting card must be a JPEG, PNG or PDF up to 5MB")
	ErrSelfAction            = errors.New("admins cannot remove or demote themselves")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrOrderProcessed        = errors.New("order already processed")
	ErrSubscriptionProcessed = errors.New("subscription already processed")
	ErrNotRefundable         = errors.New("order cannot be refunded")
	ErrInvalidSignature      = errors.New("payment verification failed")
	ErrUnknownPlan           = errors.New("unknown subscription plan")
)

// PaymentGateway is the subset of the Razorpay client the services use
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
	Refund(ctx context.Context, paymentID string, amount int64) (*razorpay.Refund, error)
}

// TokenService issues and parses session tokens
type TokenService interface {
	Issue(userID, email string, isAdmin bool) (string, error)
	Parse(token string) (*jwt.Claims, error)
}

// AuthService covers registration and the password + OTP sign-in flow
type AuthService interface {
	// Register creates an unapproved account and stores the visiting card
	Register(ctx context.Context, req *models.RegisterRequest, card *models.Upload, meta models.RequestMeta) (*models.User, error)

	// Login checks the password and emails a one-time code
	Login(ctx context.Context, req *models.LoginRequest, meta models.RequestMeta) error

	// VerifyOTP exchanges a valid code for a session token
	VerifyOTP(ctx context.Context, req *models.VerifyOTPRequest, meta models.RequestMeta) (*models.User, string, error)

	Logout(ctx context.Context, user *models.User, meta models.RequestMeta)

	// Authenticate resolves a session token to an approved user, or nil
	Authenticate(ctx context.Context, token string) *models.User
}

// UserService is the admin back office for accounts
type UserService interface {
	List(ctx context.Context, filter models.UserFilter, page, limit int) (*models.Page[*models.User], error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Create(ctx context.Context, req *models.CreateUserRequest, actor primitive.ObjectID, meta models.RequestMeta) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, upd *models.UserUpdate, actor primitive.ObjectID, meta models.RequestMeta) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID, actor primitive.ObjectID, meta models.RequestMeta) error
	Approve(ctx context.Context, id primitive.ObjectID, actor primitive.ObjectID, meta models.RequestMeta) (*models.User, error)
	VisitingCardURL(ctx context.Context, id primitive.ObjectID) (string, error)
}

// ProductService manages the catalog
type ProductService interface {
	List(ctx context.Context, search string, page, limit int) (*models.Page[*models.Product], error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Create(ctx context.Context, req *models.ProductRequest, actor primitive.ObjectID, meta models.RequestMeta) (*models.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, req *models.ProductRequest, actor primitive.ObjectID, meta models.RequestMeta) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID, actor primitive.ObjectID, meta models.RequestMeta) error
}

// GatewayPaymentApplier applies a payment outcome reported by the gateway webhook.
// It returns ErrNotFound when no local record carries the gateway order id.
type GatewayPaymentApplier interface {
	ApplyGatewayPayment(ctx context.Context, gatewayOrderID, paymentID string, captured bool) error
}

// OrderService handles checkout, payment verification and order administration
type OrderService interface {
	GatewayPaymentApplier

	Create(ctx context.Context, userID primitive.ObjectID, req *models.CreateOrderRequest, meta models.RequestMeta) (*models.CheckoutResponse, error)
	VerifyPayment(ctx context.Context, userID primitive.ObjectID, req *models.VerifyPaymentRequest, meta models.RequestMeta) (*models.Order, error)
	ListMine(ctx context.Context, userID primitive.ObjectID, page, limit int) (*models.Page[*models.Order], error)
	GetMine(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error)

	List(ctx context.Context, filter models.OrderFilter, page, limit int) (*models.Page[*models.Order], error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, to models.OrderStatus, actor primitive.ObjectID, meta models.RequestMeta) (*models.Order, error)
	Refund(ctx context.Context, id primitive.ObjectID, actor primitive.ObjectID, meta models.RequestMeta) (*models.Order, error)
}

// SubscriptionService sells and activates membership plans
type SubscriptionService interface {
	GatewayPaymentApplier

	Create(ctx context.Context, userID primitive.ObjectID, plan string, meta models.RequestMeta) (*models.SubscriptionCheckout, error)
	Verify(ctx context.Context, userID primitive.ObjectID, req *models.VerifyPaymentRequest, meta models.RequestMeta) (*models.Subscription, error)
	Mine(ctx context.Context, userID primitive.ObjectID) ([]*models.Subscription, error)
}

// WebhookService verifies and dispatches gateway webhooks
type WebhookService interface {
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}

// ActivityLogService records and queries the audit trail
type ActivityLogService interface {
	// Record appends an entry; failures are logged, never returned
	Record(ctx context.Context, entry *models.ActivityLog)
	List(ctx context.Context, filter models.ActivityLogFilter, page, limit int) (*models.ActivityLogPage, error)
}

// StatsService summarises the store for the admin dashboard
type StatsService interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
}
