package service

import (
	"context"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/domain"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/repository"
	"go.uber.org/zap"
)

// OrderService serves order reads and the admin status update.
type OrderService struct {
	repo   repository.OrderRepository
	logger *zap.Logger
}

func NewOrderService(repo repository.OrderRepository, logger *zap.Logger) *OrderService {
	return &OrderService{repo: repo, logger: logger}
}

func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return s.repo.OrdersByUserID(ctx, userID)
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	return s.repo.OrderByID(ctx, orderID, userID)
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	if !status.Valid() {
		return &ValidationError{Violations: []string{"Invalid order status"}}
	}
	if err := s.repo.SetOrderStatus(ctx, orderID, status); err != nil {
		return err
	}
	s.logger.Info("order_status_updated",
		zap.Int64("order_id", orderID),
		zap.String("status", string(status)),
	)
	return nil
}
