package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/printhub/printhub-backend/internal/events"
	"github.com/printhub/printhub-backend/internal/metrics"
	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/repositories"
	"github.com/printhub/printhub-backend/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Plan is a purchasable subscription
type Plan struct {
	Name         string
	Amount       float64
	DurationDays int
}

// SubscriptionConfig lists the plans on sale
type SubscriptionConfig struct {
	Plans    []Plan
	Currency string
	KeyID    string
}

type subscriptionService struct {
	subRepo   repositories.SubscriptionRepository
	userRepo  repositories.UserRepository
	gateway   PaymentGateway
	activity  ActivityLogService
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
	cfg       SubscriptionConfig

	now func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(
	subRepo repositories.SubscriptionRepository,
	userRepo repositories.UserRepository,
	gateway PaymentGateway,
	activity ActivityLogService,
	publisher events.Publisher,
	m *metrics.Metrics,
	log *zap.Logger,
	cfg SubscriptionConfig,
) SubscriptionService {
	return &subscriptionService{
		subRepo:   subRepo,
		userRepo:  userRepo,
		gateway:   gateway,
		activity:  activity,
		publisher: publisher,
		metrics:   m,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *subscriptionService) findPlan(name string) (Plan, bool) {
	for _, p := range s.cfg.Plans {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Plan{}, false
}

func (s *subscriptionService) Create(ctx context.Context, userID primitive.ObjectID, planName string, meta models.RequestMeta) (*models.SubscriptionCheckout, error) {
	plan, ok := s.findPlan(planName)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownPlan, planName)
	}

	amount := utils.ToMinorUnits(plan.Amount)
	remote, err := s.gateway.CreateOrder(ctx, amount, s.cfg.Currency, "sub_"+userID.Hex(), map[string]string{
		"kind":   "subscription",
		"plan":   plan.Name,
		"userId": userID.Hex(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment order: %w", err)
	}

	sub := &models.Subscription{
		UserID:          userID,
		Plan:            plan.Name,
		Amount:          plan.Amount,
		DurationDays:    plan.DurationDays,
		Currency:        s.cfg.Currency,
		Status:          models.SubscriptionStatusPending,
		RazorpayOrderID: remote.ID,
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity(&userID, models.ActionSubscriptionCreated, "started "+plan.Name+" subscription", meta,
		map[string]interface{}{"subscriptionId": sub.ID.Hex(), "razorpayOrderId": remote.ID}))

	return &models.SubscriptionCheckout{
		Subscription: sub,
		KeyID:        s.cfg.KeyID,
		Amount:       amount,
		Currency:     s.cfg.Currency,
		GatewayID:    remote.ID,
	}, nil
}

func (s *subscriptionService) Verify(ctx context.Context, userID primitive.ObjectID, req *models.VerifyPaymentRequest, meta models.RequestMeta) (*models.Subscription, error) {
	sub, err := s.subRepo.FindByRazorpayOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, notFound(err, "subscription")
	}
	if sub.UserID != userID {
		return nil, fmt.Errorf("subscription %w", ErrNotFound)
	}

	switch sub.Status {
	case models.SubscriptionStatusPending:
	case models.SubscriptionStatusActive:
		return sub, nil
	default:
		return nil, ErrSubscriptionProcessed
	}

	if !s.gateway.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		if _, err := s.subRepo.Cancel(ctx, sub.ID, req.RazorpayPaymentID); err != nil {
			return nil, err
		}
		s.metrics.ObservePayment("subscription", "failed")
		s.activity.Record(ctx, activity(&userID, models.ActionSubscriptionFailed, "signature mismatch for subscription "+sub.ID.Hex(), meta,
			map[string]interface{}{"subscriptionId": sub.ID.Hex()}))
		return nil, ErrInvalidSignature
	}

	return s.activate(ctx, sub, req.RazorpayPaymentID, req.RazorpaySignature, meta)
}

// activate starts the subscription now, extending from the current end date when the user is still subscribed
func (s *subscriptionService) activate(ctx context.Context, sub *models.Subscription, paymentID, signature string, meta models.RequestMeta) (*models.Subscription, error) {
	user, err := s.userRepo.FindByID(ctx, sub.UserID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	now := s.now()
	base := now
	if user.HasActiveSubscription(now) {
		base = *user.SubscriptionEndDate
	}
	days := sub.DurationDays
	if days <= 0 {
		if plan, ok := s.findPlan(sub.Plan); ok {
			days = plan.DurationDays
		}
	}
	end := base.AddDate(0, 0, days)

	changed, err := s.subRepo.Activate(ctx, sub.ID, paymentID, signature, now, end)
	if err != nil {
		return nil, err
	}
	if !changed {
		current, err := s.subRepo.FindByRazorpayOrderID(ctx, sub.RazorpayOrderID)
		if err != nil {
			return nil, notFound(err, "subscription")
		}
		if current.Status == models.SubscriptionStatusActive {
			return current, nil
		}
		return nil, ErrSubscriptionProcessed
	}

	if err := s.userRepo.SetSubscription(ctx, sub.UserID, end); err != nil {
		return nil, err
	}

	sub.Status = models.SubscriptionStatusActive
	sub.RazorpayPaymentID = paymentID
	sub.RazorpaySignature = signature
	sub.StartDate = &now
	sub.EndDate = &end

	s.metrics.ObservePayment("subscription", "success")
	s.activity.Record(ctx, activity(&sub.UserID, models.ActionSubscriptionActivated, "activated "+sub.Plan+" subscription", meta,
		map[string]interface{}{"subscriptionId": sub.ID.Hex(), "endDate": end}))
	publish(ctx, s.publisher, s.log, s.metrics, events.SubjectSubscriptionActive, events.SubscriptionActivated{
		SubscriptionID: sub.ID.Hex(),
		UserID:         sub.UserID.Hex(),
		Plan:           sub.Plan,
		EndDate:        end,
	})
	return sub, nil
}

func (s *subscriptionService) Mine(ctx context.Context, userID primitive.ObjectID) ([]*models.Subscription, error) {
	return s.subRepo.FindByUserID(ctx, userID)
}

// ApplyGatewayPayment activates a subscription from a webhook delivery.
// A reported failure is recorded and the subscription stays pending for a retry.
func (s *subscriptionService) ApplyGatewayPayment(ctx context.Context, gatewayOrderID, paymentID string, captured bool) error {
	sub, err := s.subRepo.FindByRazorpayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return notFound(err, "subscription")
	}
	if sub.Status != models.SubscriptionStatusPending {
		return nil
	}

	meta := models.RequestMeta{UserAgent: "razorpay-webhook"}
	if !captured {
		s.metrics.ObservePayment("subscription", "failed")
		s.activity.Record(ctx, activity(&sub.UserID, models.ActionSubscriptionFailed, "gateway reported a failed attempt", meta,
			map[string]interface{}{"subscriptionId": sub.ID.Hex(), "razorpayPaymentId": paymentID}))
		return nil
	}

	_, err = s.activate(ctx, sub, paymentID, "", meta)
	if errors.Is(err, ErrSubscriptionProcessed) {
		return nil
	}
	return err
}
