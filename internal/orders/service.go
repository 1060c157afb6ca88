package orders

import (
	"context"

	"go.uber.org/zap"

	"github.com/goattech/giftflow/pkg/logger"
)

// Service creates orders on behalf of the gift redemption flow
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new orders service
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// CreateGiftOrder creates the zero-price order for a claimed gift and
// returns its id. The caller owns the at-most-once guarantee; this call
// performs no dedup of its own.
func (s *Service) CreateGiftOrder(ctx context.Context, req *CreateGiftOrderRequest) (int64, error) {
	orderID, err := s.repo.CreateGiftOrder(ctx, req)
	if err != nil {
		return 0, err
	}

	logger.WithContext(ctx).Info("Gift order created",
		zap.Int64("order_id", orderID),
		zap.Int64("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity),
	)

	return orderID, nil
}
