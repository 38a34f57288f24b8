package services

import (
	"context"

	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/repositories"
)

type statsService struct {
	userRepo    repositories.UserRepository
	productRepo repositories.ProductRepository
	orderRepo   repositories.OrderRepository
}

// NewStatsService creates a new StatsService
func NewStatsService(userRepo repositories.UserRepository, productRepo repositories.ProductRepository, orderRepo repositories.OrderRepository) StatsService {
	return &statsService{userRepo: userRepo, productRepo: productRepo, orderRepo: orderRepo}
}

func (s *statsService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	totalUsers, err := s.userRepo.Count(ctx, models.UserFilter{})
	if err != nil {
		return nil, err
	}
	unapproved := false
	pending, err := s.userRepo.Count(ctx, models.UserFilter{IsApproved: &unapproved})
	if err != nil {
		return nil, err
	}
	products, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	orders := make(map[models.OrderStatus]int64, len(models.AllOrderStatuses))
	for _, status := range models.AllOrderStatuses {
		orders[status] = byStatus[status]
	}

	return &models.DashboardStats{
		TotalUsers:     totalUsers,
		PendingUsers:   pending,
		TotalProducts:  products,
		OrdersByStatus: orders,
	}, nil
}
