package services

import (
	"context"
	"time"

	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/repositories"
	"go.uber.org/zap"
)

type activityLogService struct {
	repo repositories.ActivityLogRepository
	log  *zap.Logger
}

// NewActivityLogService creates a new ActivityLogService
func NewActivityLogService(repo repositories.ActivityLogRepository, log *zap.Logger) ActivityLogService {
	return &activityLogService{repo: repo, log: log}
}

func (s *activityLogService) Record(ctx context.Context, entry *models.ActivityLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Error("failed to record activity",
			zap.String("action", string(entry.Action)),
			zap.Error(err))
	}
}

func (s *activityLogService) List(ctx context.Context, filter models.ActivityLogFilter, page, limit int) (*models.ActivityLogPage, error) {
	entries, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByAction(ctx, filter)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []models.ActionCount{}
	}
	return &models.ActivityLogPage{
		Page:   *newPage(entries, total, page, limit),
		Counts: counts,
	}, nil
}
