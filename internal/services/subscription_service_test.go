package services

import (
	"context"
	"testing"
	"time"

	"github.com/printhub/printhub-backend/internal/events"
	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/pkg/razorpay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type subscriptionFixture struct {
	svc      *subscriptionService
	subs     *MockSubscriptionRepository
	users    *MockUserRepository
	gateway  *MockPaymentGateway
	activity *recordingActivity
	now      time.Time
}

func newSubscriptionFixture() *subscriptionFixture {
	f := &subscriptionFixture{
		subs:     new(MockSubscriptionRepository),
		users:    new(MockUserRepository),
		gateway:  new(MockPaymentGateway),
		activity: &recordingActivity{},
		now:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	svc := NewSubscriptionService(f.subs, f.users, f.gateway, f.activity, events.NoopPublisher{}, nil, zap.NewNop(),
		SubscriptionConfig{
			Plans:    []Plan{{Name: "annual", Amount: 4999, DurationDays: 365}, {Name: "monthly", Amount: 499, DurationDays: 30}},
			Currency: "INR",
			KeyID:    "rzp_test_key",
		}).(*subscriptionService)
	svc.now = func() time.Time { return f.now }
	f.svc = svc
	return f
}

func TestCreateSubscription(t *testing.T) {
	f := newSubscriptionFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	f.gateway.On("CreateOrder", ctx, int64(499900), "INR", "sub_"+userID.Hex(), mock.Anything).
		Return(&razorpay.Order{ID: "order_sub"}, nil)
	f.subs.On("Create", ctx, mock.AnythingOfType("*models.Subscription")).Return(nil)

	checkout, err := f.svc.Create(ctx, userID, "Annual", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "annual", checkout.Subscription.Plan)
	assert.Equal(t, 365, checkout.Subscription.DurationDays)
	assert.Equal(t, models.SubscriptionStatusPending, checkout.Subscription.Status)
	assert.Equal(t, "order_sub", checkout.GatewayID)
	assert.Equal(t, int64(499900), checkout.Amount)

	_, err = f.svc.Create(ctx, userID, "lifetime", models.RequestMeta{})
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func pendingSubscription(userID primitive.ObjectID) *models.Subscription {
	return &models.Subscription{
		ID:              primitive.NewObjectID(),
		UserID:          userID,
		Plan:            "monthly",
		DurationDays:    30,
		Status:          models.SubscriptionStatusPending,
		RazorpayOrderID: "order_sub",
	}
}

func TestVerifySubscription(t *testing.T) {
	ctx := context.Background()
	req := &models.VerifyPaymentRequest{RazorpayOrderID: "order_sub", RazorpayPaymentID: "pay_1", RazorpaySignature: "sig"}

	t.Run("starts from now", func(t *testing.T) {
		f := newSubscriptionFixture()
		user := &models.User{ID: primitive.NewObjectID()}
		sub := pendingSubscription(user.ID)
		end := f.now.AddDate(0, 0, 30)

		f.subs.On("FindByRazorpayOrderID", ctx, "order_sub").Return(sub, nil)
		f.gateway.On("VerifyPaymentSignature", "order_sub", "pay_1", "sig").Return(true)
		f.users.On("FindByID", ctx, user.ID).Return(user, nil)
		f.subs.On("Activate", ctx, sub.ID, "pay_1", "sig", f.now, end).Return(true, nil)
		f.users.On("SetSubscription", ctx, user.ID, end).Return(nil)

		got, err := f.svc.Verify(ctx, user.ID, req, models.RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionStatusActive, got.Status)
		assert.Equal(t, end, *got.EndDate)
		f.users.AssertExpectations(t)
	})

	t.Run("extends an active subscription", func(t *testing.T) {
		f := newSubscriptionFixture()
		current := f.now.AddDate(0, 0, 10)
		user := &models.User{ID: primitive.NewObjectID(), IsSubscribed: true, SubscriptionEndDate: &current}
		sub := pendingSubscription(user.ID)
		end := current.AddDate(0, 0, 30)

		f.subs.On("FindByRazorpayOrderID", ctx, "order_sub").Return(sub, nil)
		f.gateway.On("VerifyPaymentSignature", "order_sub", "pay_1", "sig").Return(true)
		f.users.On("FindByID", ctx, user.ID).Return(user, nil)
		f.subs.On("Activate", ctx, sub.ID, "pay_1", "sig", f.now, end).Return(true, nil)
		f.users.On("SetSubscription", ctx, user.ID, end).Return(nil)

		got, err := f.svc.Verify(ctx, user.ID, req, models.RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, end, *got.EndDate)
	})

	t.Run("signature mismatch cancels", func(t *testing.T) {
		f := newSubscriptionFixture()
		userID := primitive.NewObjectID()
		sub := pendingSubscription(userID)

		f.subs.On("FindByRazorpayOrderID", ctx, "order_sub").Return(sub, nil)
		f.gateway.On("VerifyPaymentSignature", "order_sub", "pay_1", "sig").Return(false)
		f.subs.On("Cancel", ctx, sub.ID, "pay_1").Return(true, nil)

		_, err := f.svc.Verify(ctx, userID, req, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrInvalidSignature)
		assert.Equal(t, []models.ActivityAction{models.ActionSubscriptionFailed}, f.activity.actions())
		f.users.AssertNotCalled(t, "SetSubscription", mock.Anything, mock.Anything, mock.Anything)
	})

	for _, status := range []models.SubscriptionStatus{models.SubscriptionStatusCancelled, models.SubscriptionStatusExpired} {
		t.Run(string(status)+" subscription rejected", func(t *testing.T) {
			f := newSubscriptionFixture()
			userID := primitive.NewObjectID()
			sub := pendingSubscription(userID)
			sub.Status = status
			f.subs.On("FindByRazorpayOrderID", ctx, "order_sub").Return(sub, nil)

			_, err := f.svc.Verify(ctx, userID, req, models.RequestMeta{})
			assert.ErrorIs(t, err, ErrSubscriptionProcessed)
			assert.NotErrorIs(t, err, ErrOrderProcessed)
			f.gateway.AssertNotCalled(t, "VerifyPaymentSignature", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("lost activation race", func(t *testing.T) {
		f := newSubscriptionFixture()
		user := &models.User{ID: primitive.NewObjectID()}
		sub := pendingSubscription(user.ID)
		end := f.now.AddDate(0, 0, 30)
		expired := *sub
		expired.Status = models.SubscriptionStatusExpired

		f.subs.On("FindByRazorpayOrderID", ctx, "order_sub").Return(sub, nil).Once()
		f.gateway.On("VerifyPaymentSignature", "order_sub", "pay_1", "sig").Return(true)
		f.users.On("FindByID", ctx, user.ID).Return(user, nil)
		f.subs.On("Activate", ctx, sub.ID, "pay_1", "sig", f.now, end).Return(false, nil)
		f.subs.On("FindByRazorpayOrderID", ctx, "order_sub").Return(&expired, nil).Once()

		_, err := f.svc.Verify(ctx, user.ID, req, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrSubscriptionProcessed)
		f.users.AssertNotCalled(t, "SetSubscription", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("someone elses subscription", func(t *testing.T) {
		f := newSubscriptionFixture()
		f.subs.On("FindByRazorpayOrderID", ctx, "order_sub").Return(pendingSubscription(primitive.NewObjectID()), nil)

		_, err := f.svc.Verify(ctx, primitive.NewObjectID(), req, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestApplyGatewaySubscriptionPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("failed attempt then capture activates", func(t *testing.T) {
		f := newSubscriptionFixture()
		user := &models.User{ID: primitive.NewObjectID()}
		sub := pendingSubscription(user.ID)
		end := f.now.AddDate(0, 0, 30)

		f.subs.On("FindByRazorpayOrderID", ctx, "order_sub").Return(sub, nil)
		require.NoError(t, f.svc.ApplyGatewayPayment(ctx, "order_sub", "pay_1", false))
		assert.Equal(t, models.SubscriptionStatusPending, sub.Status)

		f.users.On("FindByID", ctx, user.ID).Return(user, nil)
		f.subs.On("Activate", ctx, sub.ID, "pay_2", "", f.now, end).Return(true, nil)
		f.users.On("SetSubscription", ctx, user.ID, end).Return(nil)
		require.NoError(t, f.svc.ApplyGatewayPayment(ctx, "order_sub", "pay_2", true))

		assert.Equal(t, []models.ActivityAction{models.ActionSubscriptionFailed, models.ActionSubscriptionActivated}, f.activity.actions())
		f.subs.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything)
		f.subs.AssertExpectations(t)
		f.users.AssertExpectations(t)
	})

	t.Run("failed attempt then valid verify activates", func(t *testing.T) {
		f := newSubscriptionFixture()
		user := &models.User{ID: primitive.NewObjectID()}
		sub := pendingSubscription(user.ID)
		end := f.now.AddDate(0, 0, 30)

		f.subs.On("FindByRazorpayOrderID", ctx, "order_sub").Return(sub, nil)
		require.NoError(t, f.svc.ApplyGatewayPayment(ctx, "order_sub", "pay_1", false))

		f.gateway.On("VerifyPaymentSignature", "order_sub", "pay_2", "sig").Return(true)
		f.users.On("FindByID", ctx, user.ID).Return(user, nil)
		f.subs.On("Activate", ctx, sub.ID, "pay_2", "sig", f.now, end).Return(true, nil)
		f.users.On("SetSubscription", ctx, user.ID, end).Return(nil)

		got, err := f.svc.Verify(ctx, user.ID, &models.VerifyPaymentRequest{
			RazorpayOrderID: "order_sub", RazorpayPaymentID: "pay_2", RazorpaySignature: "sig",
		}, models.RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionStatusActive, got.Status)
	})

	for _, status := range []models.SubscriptionStatus{models.SubscriptionStatusActive, models.SubscriptionStatusCancelled, models.SubscriptionStatusExpired} {
		t.Run(string(status)+" subscription ignored", func(t *testing.T) {
			f := newSubscriptionFixture()
			sub := pendingSubscription(primitive.NewObjectID())
			sub.Status = status
			f.subs.On("FindByRazorpayOrderID", ctx, "order_sub").Return(sub, nil)

			require.NoError(t, f.svc.ApplyGatewayPayment(ctx, "order_sub", "pay_1", true))
			require.NoError(t, f.svc.ApplyGatewayPayment(ctx, "order_sub", "pay_1", false))
			f.subs.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, f.activity.actions())
		})
	}
}
