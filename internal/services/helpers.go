package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/printhub/printhub-backend/internal/events"
	"github.com/printhub/printhub-backend/internal/metrics"
	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/repositories"
	"github.com/printhub/printhub-backend/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// notFound converts a repository miss into the service sentinel
func notFound(err error, what string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return err
}

func newPage[T any](items []T, total int64, page, limit int) *models.Page[T] {
	if items == nil {
		items = []T{}
	}
	return &models.Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: utils.TotalPages(total, limit),
	}
}

func publish(ctx context.Context, pub events.Publisher, log *zap.Logger, m *metrics.Metrics, subject string, payload interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, subject, payload); err != nil {
		m.IncPublishError(subject)
		log.Warn("event publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

func activity(userID *primitive.ObjectID, action models.ActivityAction, details string, meta models.RequestMeta, md map[string]interface{}) *models.ActivityLog {
	return &models.ActivityLog{
		UserID:    userID,
		Action:    action,
		Details:   details,
		Metadata:  md,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	}
}

func idPtr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}
