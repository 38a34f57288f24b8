package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/printhub/printhub-backend/internal/events"
	"github.com/printhub/printhub-backend/internal/metrics"
	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/repositories"
	"github.com/printhub/printhub-backend/internal/utils"
	"github.com/printhub/printhub-backend/pkg/mailer"
	"github.com/printhub/printhub-backend/pkg/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpLength          = 6
	maxVisitingCard    = 5 << 20
	visitingCardPrefix = "visiting-cards"
)

var allowedCardTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// AuthConfig holds the tunables of the sign-in flow
type AuthConfig struct {
	OTPTTL         time.Duration
	MaxOTPAttempts int
}

type authService struct {
	userRepo  repositories.UserRepository
	tokens    TokenService
	mail      mailer.Mailer
	store     storage.Store
	activity  ActivityLogService
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
	cfg       AuthConfig

	bcryptCost int
	now        func() time.Time
}

// NewAuthService creates a new AuthService implementation
func NewAuthService(
	userRepo repositories.UserRepository,
	tokens TokenService,
	mail mailer.Mailer,
	store storage.Store,
	activity ActivityLogService,
	publisher events.Publisher,
	m *metrics.Metrics,
	log *zap.Logger,
	cfg AuthConfig,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		tokens:     tokens,
		mail:       mail,
		store:      store,
		activity:   activity,
		publisher:  publisher,
		metrics:    m,
		log:        log,
		cfg:        cfg,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// Register handles reseller sign-up
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest, card *models.Upload, meta models.RequestMeta) (*models.User, error) {
	if card == nil || len(card.Data) == 0 {
		return nil, ErrVisitingCardRequired
	}
	contentType := card.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(card.Data)
	}
	if !allowedCardTypes[contentType] || len(card.Data) > maxVisitingCard {
		return nil, ErrInvalidUpload
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	key, err := s.store.Upload(ctx, visitingCardPrefix, card.Filename, contentType, card.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store visiting card: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Password:     string(hash),
		Phone:        strings.TrimSpace(req.Phone),
		Address:      req.Address,
		VisitingCard: key,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.activity.Record(ctx, activity(&user.ID, models.ActionUserRegistered, "registered "+user.Email, meta, nil))
	publish(ctx, s.publisher, s.log, s.metrics, events.SubjectUserRegistered, events.UserRegistered{
		UserID: user.ID.Hex(),
		Email:  user.Email,
		Name:   user.Name,
		At:     user.CreatedAt,
	})
	return user, nil
}

// Login verifies the password and sends a fresh one-time code
func (s *authService) Login(ctx context.Context, req *models.LoginRequest, meta models.RequestMeta) error {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.activity.Record(ctx, activity(nil, models.ActionUserLoginFailed, "unknown email", meta,
				map[string]interface{}{"email": strings.ToLower(req.Email)}))
			return ErrInvalidCredentials
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.activity.Record(ctx, activity(&user.ID, models.ActionUserLoginFailed, "wrong password", meta, nil))
		return ErrInvalidCredentials
	}
	if !user.IsApproved {
		return ErrAccountPending
	}

	code, err := utils.GenerateNumericCode(otpLength)
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash otp: %w", err)
	}
	if err := s.userRepo.SetOTP(ctx, user.ID, string(hash), s.now().Add(s.cfg.OTPTTL)); err != nil {
		return err
	}

	subject, html, text, err := mailer.OTPEmail(user.Name, code, s.cfg.OTPTTL)
	if err != nil {
		return err
	}
	if err := s.mail.Send(ctx, user.Email, subject, html, text); err != nil {
		return fmt.Errorf("failed to send otp: %w", err)
	}

	s.metrics.IncOTPIssued()
	return nil
}

// VerifyOTP checks the emailed code and issues a session token
func (s *authService) VerifyOTP(ctx context.Context, req *models.VerifyOTPRequest, meta models.RequestMeta) (*models.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !user.IsApproved {
		return nil, "", ErrAccountPending
	}

	if user.OTPHash == "" || user.OTPExpiresAt == nil {
		return nil, "", ErrOTPExpired
	}
	if s.now().After(*user.OTPExpiresAt) {
		if err := s.userRepo.ClearOTP(ctx, user.ID); err != nil {
			s.log.Warn("failed to clear expired otp", zap.String("userId", user.ID.Hex()), zap.Error(err))
		}
		return nil, "", ErrOTPExpired
	}
	// the slot is taken before the compare so parallel guesses share one budget
	attempts, err := s.userRepo.ReserveOTPAttempt(ctx, user.ID, user.OTPHash, s.cfg.MaxOTPAttempts)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, "", err
		}
		if err := s.userRepo.ClearOTP(ctx, user.ID); err != nil {
			return nil, "", err
		}
		return nil, "", ErrOTPLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.OTPHash), []byte(req.OTP)); err != nil {
		s.metrics.IncOTPFailure()
		if attempts >= s.cfg.MaxOTPAttempts {
			if err := s.userRepo.ClearOTP(ctx, user.ID); err != nil {
				return nil, "", err
			}
		}
		s.activity.Record(ctx, activity(&user.ID, models.ActionUserLoginFailed, "wrong otp", meta,
			map[string]interface{}{"attempts": attempts}))
		return nil, "", ErrOTPInvalid
	}

	if err := s.userRepo.ClearOTP(ctx, user.ID); err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(user.ID.Hex(), user.Email, user.IsAdmin)
	if err != nil {
		return nil, "", err
	}

	user.OTPHash = ""
	user.OTPExpiresAt = nil
	user.OTPAttempts = 0
	s.activity.Record(ctx, activity(&user.ID, models.ActionUserLogin, "signed in", meta, nil))
	return user, token, nil
}

func (s *authService) Logout(ctx context.Context, user *models.User, meta models.RequestMeta) {
	if user == nil {
		return
	}
	s.activity.Record(ctx, activity(&user.ID, models.ActionUserLogout, "signed out", meta, nil))
}

func (s *authService) Authenticate(ctx context.Context, token string) *models.User {
	if token == "" {
		return nil
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.log.Error("failed to load session user", zap.String("userId", claims.UserID), zap.Error(err))
		}
		return nil
	}
	if !user.IsApproved {
		return nil
	}
	return user
}
