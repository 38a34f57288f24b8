package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/printhub/printhub-backend/internal/events"
	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/repositories"
	"github.com/printhub/printhub-backend/pkg/mailer"
	"github.com/printhub/printhub-backend/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type authFixture struct {
	svc      *authService
	users    *MockUserRepository
	mail     *mailer.MockMailer
	store    *storage.MemoryStore
	activity *recordingActivity
	now      time.Time
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:    new(MockUserRepository),
		mail:     mailer.NewMockMailer(zap.NewNop()),
		store:    storage.NewMemoryStore("http://files.test"),
		activity: &recordingActivity{},
		now:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	svc := NewAuthService(f.users, staticTokens{}, f.mail, f.store, f.activity, events.NoopPublisher{}, nil, zap.NewNop(),
		AuthConfig{OTPTTL: 10 * time.Minute, MaxOTPAttempts: 5}).(*authService)
	svc.bcryptCost = bcrypt.MinCost
	svc.now = func() time.Time { return f.now }
	f.svc = svc
	return f
}

func hashed(t *testing.T, s string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestRegister(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.users.On("FindByEmail", ctx, "jane@acme.in").Return(nil, repositories.ErrNotFound)
	f.users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)

	req := &models.RegisterRequest{Name: " Jane ", Email: "Jane@Acme.in ", Password: "s3cretpass", Phone: "9999999999"}
	user, err := f.svc.Register(ctx, req, &models.Upload{Filename: "card.png", Data: pngHeader}, models.RequestMeta{IP: "10.0.0.1"})
	require.NoError(t, err)

	assert.Equal(t, "Jane", user.Name)
	assert.Equal(t, "jane@acme.in", user.Email)
	assert.False(t, user.IsApproved)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("s3cretpass")))

	stored, ok := f.store.Object(user.VisitingCard)
	require.True(t, ok)
	assert.Equal(t, pngHeader, stored)
	assert.Equal(t, []models.ActivityAction{models.ActionUserRegistered}, f.activity.actions())
	assert.Equal(t, "10.0.0.1", f.activity.entries[0].IP)
	f.users.AssertExpectations(t)
}

func TestRegisterRejects(t *testing.T) {
	ctx := context.Background()
	req := &models.RegisterRequest{Name: "Jane", Email: "jane@acme.in", Password: "s3cretpass"}

	t.Run("missing card", func(t *testing.T) {
		f := newAuthFixture()
		_, err := f.svc.Register(ctx, req, nil, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrVisitingCardRequired)
	})

	t.Run("wrong type", func(t *testing.T) {
		f := newAuthFixture()
		_, err := f.svc.Register(ctx, req, &models.Upload{Filename: "card.txt", ContentType: "text/plain", Data: []byte("hi")}, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrInvalidUpload)
	})

	t.Run("too large", func(t *testing.T) {
		f := newAuthFixture()
		big := make([]byte, maxVisitingCard+1)
		_, err := f.svc.Register(ctx, req, &models.Upload{Filename: "card.pdf", ContentType: "application/pdf", Data: big}, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrInvalidUpload)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByEmail", ctx, "jane@acme.in").Return(&models.User{}, nil)
		_, err := f.svc.Register(ctx, req, &models.Upload{Filename: "card.png", Data: pngHeader}, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestLoginSendsOTP(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := &models.User{ID: primitive.NewObjectID(), Name: "Jane", Email: "jane@acme.in", Password: hashed(t, "s3cretpass"), IsApproved: true}

	var storedHash string
	f.users.On("FindByEmail", ctx, "jane@acme.in").Return(user, nil)
	f.users.On("SetOTP", ctx, user.ID, mock.AnythingOfType("string"), f.now.Add(10*time.Minute)).
		Run(func(args mock.Arguments) { storedHash = args.String(2) }).
		Return(nil)

	err := f.svc.Login(ctx, &models.LoginRequest{Email: "jane@acme.in", Password: "s3cretpass"}, models.RequestMeta{})
	require.NoError(t, err)

	sent := f.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@acme.in", sent[0].To)

	code := regexp.MustCompile(`\b\d{6}\b`).FindString(sent[0].TextBody)
	require.NotEmpty(t, code)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(code)))
	f.users.AssertExpectations(t)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByEmail", ctx, "nobody@acme.in").Return(nil, repositories.ErrNotFound)
		err := f.svc.Login(ctx, &models.LoginRequest{Email: "nobody@acme.in", Password: "whatever1"}, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, []models.ActivityAction{models.ActionUserLoginFailed}, f.activity.actions())
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture()
		user := &models.User{ID: primitive.NewObjectID(), Password: hashed(t, "right-pass"), IsApproved: true}
		f.users.On("FindByEmail", ctx, "jane@acme.in").Return(user, nil)
		err := f.svc.Login(ctx, &models.LoginRequest{Email: "jane@acme.in", Password: "wrong-pass"}, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Empty(t, f.mail.Sent())
	})

	t.Run("pending approval", func(t *testing.T) {
		f := newAuthFixture()
		user := &models.User{ID: primitive.NewObjectID(), Password: hashed(t, "right-pass")}
		f.users.On("FindByEmail", ctx, "jane@acme.in").Return(user, nil)
		err := f.svc.Login(ctx, &models.LoginRequest{Email: "jane@acme.in", Password: "right-pass"}, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrAccountPending)
		assert.Empty(t, f.mail.Sent())
	})
}

func TestVerifyOTP(t *testing.T) {
	ctx := context.Background()

	newUser := func(t *testing.T, f *authFixture, attempts int, expiresIn time.Duration) *models.User {
		expires := f.now.Add(expiresIn)
		return &models.User{
			ID:           primitive.NewObjectID(),
			Email:        "jane@acme.in",
			IsApproved:   true,
			OTPHash:      hashed(t, "123456"),
			OTPExpiresAt: &expires,
			OTPAttempts:  attempts,
		}
	}

	t.Run("success issues token", func(t *testing.T) {
		f := newAuthFixture()
		user := newUser(t, f, 2, 5*time.Minute)
		f.users.On("FindByEmail", ctx, "jane@acme.in").Return(user, nil)
		f.users.On("ReserveOTPAttempt", ctx, user.ID, user.OTPHash, 5).Return(3, nil)
		f.users.On("ClearOTP", ctx, user.ID).Return(nil)

		got, token, err := f.svc.VerifyOTP(ctx, &models.VerifyOTPRequest{Email: "jane@acme.in", OTP: "123456"}, models.RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, "token-"+user.ID.Hex(), token)
		assert.Empty(t, got.OTPHash)
		assert.Zero(t, got.OTPAttempts)
		assert.Equal(t, []models.ActivityAction{models.ActionUserLogin}, f.activity.actions())
		f.users.AssertExpectations(t)
	})

	t.Run("wrong code increments attempts", func(t *testing.T) {
		f := newAuthFixture()
		user := newUser(t, f, 1, 5*time.Minute)
		f.users.On("FindByEmail", ctx, "jane@acme.in").Return(user, nil)
		f.users.On("ReserveOTPAttempt", ctx, user.ID, user.OTPHash, 5).Return(2, nil)

		_, _, err := f.svc.VerifyOTP(ctx, &models.VerifyOTPRequest{Email: "jane@acme.in", OTP: "654321"}, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrOTPInvalid)
		f.users.AssertNotCalled(t, "ClearOTP", mock.Anything, mock.Anything)
	})

	t.Run("last wrong attempt clears code", func(t *testing.T) {
		f := newAuthFixture()
		user := newUser(t, f, 4, 5*time.Minute)
		f.users.On("FindByEmail", ctx, "jane@acme.in").Return(user, nil)
		f.users.On("ReserveOTPAttempt", ctx, user.ID, user.OTPHash, 5).Return(5, nil)
		f.users.On("ClearOTP", ctx, user.ID).Return(nil)

		_, _, err := f.svc.VerifyOTP(ctx, &models.VerifyOTPRequest{Email: "jane@acme.in", OTP: "654321"}, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrOTPInvalid)
		f.users.AssertExpectations(t)
	})

	t.Run("locked after cap even with right code", func(t *testing.T) {
		f := newAuthFixture()
		user := newUser(t, f, 5, 5*time.Minute)
		f.users.On("FindByEmail", ctx, "jane@acme.in").Return(user, nil)
		f.users.On("ReserveOTPAttempt", ctx, user.ID, user.OTPHash, 5).Return(0, repositories.ErrNotFound)
		f.users.On("ClearOTP", ctx, user.ID).Return(nil)

		_, _, err := f.svc.VerifyOTP(ctx, &models.VerifyOTPRequest{Email: "jane@acme.in", OTP: "123456"}, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrOTPLocked)
		f.users.AssertExpectations(t)
	})

	t.Run("expired", func(t *testing.T) {
		f := newAuthFixture()
		user := newUser(t, f, 0, -time.Second)
		f.users.On("FindByEmail", ctx, "jane@acme.in").Return(user, nil)
		f.users.On("ClearOTP", ctx, user.ID).Return(nil)

		_, _, err := f.svc.VerifyOTP(ctx, &models.VerifyOTPRequest{Email: "jane@acme.in", OTP: "123456"}, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrOTPExpired)
	})

	t.Run("no code issued", func(t *testing.T) {
		f := newAuthFixture()
		user := &models.User{ID: primitive.NewObjectID(), IsApproved: true}
		f.users.On("FindByEmail", ctx, "jane@acme.in").Return(user, nil)

		_, _, err := f.svc.VerifyOTP(ctx, &models.VerifyOTPRequest{Email: "jane@acme.in", OTP: "123456"}, models.RequestMeta{})
		assert.ErrorIs(t, err, ErrOTPExpired)
	})
}

// otpUsers keeps one user in memory and applies the attempt reservation the way the Mongo filter does
type otpUsers struct {
	repositories.UserRepository

	mu   sync.Mutex
	user models.User
}

func (r *otpUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if email != r.user.Email {
		return nil, repositories.ErrNotFound
	}
	u := r.user
	return &u, nil
}

func (r *otpUsers) ReserveOTPAttempt(_ context.Context, _ primitive.ObjectID, otpHash string, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.user.OTPHash == "" || r.user.OTPHash != otpHash || r.user.OTPAttempts >= limit {
		return 0, repositories.ErrNotFound
	}
	r.user.OTPAttempts++
	return r.user.OTPAttempts, nil
}

func (r *otpUsers) ClearOTP(context.Context, primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user.OTPHash = ""
	r.user.OTPExpiresAt = nil
	r.user.OTPAttempts = 0
	return nil
}

func TestVerifyOTPParallelGuessesShareAttemptBudget(t *testing.T) {
	f := newAuthFixture()
	expires := f.now.Add(5 * time.Minute)
	users := &otpUsers{user: models.User{
		ID:           primitive.NewObjectID(),
		Email:        "jane@acme.in",
		IsApproved:   true,
		OTPHash:      hashed(t, "123456"),
		OTPExpiresAt: &expires,
	}}
	f.svc.userRepo = users

	const guesses = 40
	results := make(chan error, guesses)
	var wg sync.WaitGroup
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := f.svc.VerifyOTP(context.Background(),
				&models.VerifyOTPRequest{Email: "jane@acme.in", OTP: fmt.Sprintf("%06d", 900000+i)}, models.RequestMeta{})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	compared := 0
	for err := range results {
		switch {
		case errors.Is(err, ErrOTPInvalid):
			compared++
		case errors.Is(err, ErrOTPLocked), errors.Is(err, ErrOTPExpired):
		default:
			t.Fatalf("unexpected result %v", err)
		}
	}
	assert.Equal(t, 5, compared)

	// the right code is no longer accepted once the budget is spent
	_, _, err := f.svc.VerifyOTP(context.Background(), &models.VerifyOTPRequest{Email: "jane@acme.in", OTP: "123456"}, models.RequestMeta{})
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	approved := &models.User{ID: primitive.NewObjectID(), IsApproved: true}
	pending := &models.User{ID: primitive.NewObjectID()}
	f.users.On("FindByID", ctx, approved.ID).Return(approved, nil)
	f.users.On("FindByID", ctx, pending.ID).Return(pending, nil)

	assert.Equal(t, approved, f.svc.Authenticate(ctx, "token-"+approved.ID.Hex()))
	assert.Nil(t, f.svc.Authenticate(ctx, "token-"+pending.ID.Hex()))
	assert.Nil(t, f.svc.Authenticate(ctx, "garbage"))
	assert.Nil(t, f.svc.Authenticate(ctx, ""))
}
