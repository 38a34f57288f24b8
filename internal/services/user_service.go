package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/repositories"
	"github.com/printhub/printhub-backend/pkg/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type userService struct {
	userRepo  repositories.UserRepository
	store     storage.Store
	activity  ActivityLogService
	urlExpiry time.Duration

	bcryptCost int
}

// NewUserService creates a new UserService
func NewUserService(userRepo repositories.UserRepository, store storage.Store, activity ActivityLogService, urlExpiry time.Duration) UserService {
	return &userService{
		userRepo:   userRepo,
		store:      store,
		activity:   activity,
		urlExpiry:  urlExpiry,
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (s *userService) List(ctx context.Context, filter models.UserFilter, page, limit int) (*models.Page[*models.User], error) {
	users, total, err := s.userRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}
	return newPage(users, total, page, limit), nil
}

func (s *userService) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// Create adds an account directly, skipping the visiting card and approval queue
func (s *userService) Create(ctx context.Context, req *models.CreateUserRequest, actor primitive.ObjectID, meta models.RequestMeta) (*models.User, error) {
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

	user := &models.User{
		Name:       strings.TrimSpace(req.Name),
		Email:      email,
		Password:   string(hash),
		Phone:      strings.TrimSpace(req.Phone),
		Address:    req.Address,
		IsApproved: req.IsApproved,
		IsAdmin:    req.IsAdmin,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.activity.Record(ctx, activity(idPtr(actor), models.ActionUserCreated, "created user "+user.Email, meta,
		map[string]interface{}{"targetUserId": user.ID.Hex()}))
	return user, nil
}

func (s *userService) Update(ctx context.Context, id primitive.ObjectID, upd *models.UserUpdate, actor primitive.ObjectID, meta models.RequestMeta) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}

	if id == actor && upd.IsAdmin != nil && !*upd.IsAdmin {
		return nil, ErrSelfAction
	}

	if upd.Name != nil {
		user.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Phone != nil {
		user.Phone = strings.TrimSpace(*upd.Phone)
	}
	if upd.Address != nil {
		user.Address = *upd.Address
	}
	if upd.IsApproved != nil {
		user.IsApproved = *upd.IsApproved
	}
	if upd.IsAdmin != nil {
		user.IsAdmin = *upd.IsAdmin
	}
	if upd.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hash)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, notFound(err, "user")
	}

	s.activity.Record(ctx, activity(idPtr(actor), models.ActionUserUpdated, "updated user "+user.Email, meta,
		map[string]interface{}{"targetUserId": user.ID.Hex()}))
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id primitive.ObjectID, actor primitive.ObjectID, meta models.RequestMeta) error {
	if id == actor {
		return ErrSelfAction
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return notFound(err, "user")
	}
	s.activity.Record(ctx, activity(idPtr(actor), models.ActionUserDeleted, "deleted user", meta,
		map[string]interface{}{"targetUserId": id.Hex()}))
	return nil
}

func (s *userService) Approve(ctx context.Context, id primitive.ObjectID, actor primitive.ObjectID, meta models.RequestMeta) (*models.User, error) {
	user, err := s.userRepo.SetApproved(ctx, id, true)
	if err != nil {
		return nil, notFound(err, "user")
	}
	s.activity.Record(ctx, activity(idPtr(actor), models.ActionUserApproved, "approved user "+user.Email, meta,
		map[string]interface{}{"targetUserId": user.ID.Hex()}))
	return user, nil
}

// VisitingCardURL returns a short-lived download link for the user's visiting card
func (s *userService) VisitingCardURL(ctx context.Context, id primitive.ObjectID) (string, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return "", notFound(err, "user")
	}
	if user.VisitingCard == "" {
		return "", fmt.Errorf("visiting card %w", ErrNotFound)
	}
	link, err := s.store.PresignedURL(ctx, user.VisitingCard, s.urlExpiry)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return "", fmt.Errorf("visiting card %w", ErrNotFound)
		}
		return "", err
	}
	return link, nil
}
