package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/apiclient"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orders apiclient.OrderAPI
	logger zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orders apiclient.OrderAPI, logger zerolog.Logger) OrderService {
	return &orderService{
		orders: orders,
		logger: logger.With().Str("service", "order").Logger(),
	}
}

func (s *orderService) History(ctx context.Context, force bool) ([]model.Order, error) {
	orders, err := s.orders.OrderHistory(ctx, force)
	if err != nil {
		return nil, fmt.Errorf("failed to get order history: %w", err)
	}
	return orders, nil
}

func (s *orderService) Current(ctx context.Context, force bool) ([]model.Order, error) {
	orders, err := s.orders.CurrentOrders(ctx, force)
	if err != nil {
		return nil, fmt.Errorf("failed to get current orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) Detail(ctx context.Context, id int64, force bool) (*model.Order, error) {
	order, err := s.orders.Order(ctx, id, force)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// Cancel checks the latest order status before asking the backend to
// cancel.
func (s *orderService) Cancel(ctx context.Context, id int64, reason string) error {
	order, err := s.Detail(ctx, id, true)
	if err != nil {
		return err
	}
	if !order.Status.Cancellable() {
		return model.ErrOrderNotCancellable
	}

	if err := s.orders.CancelOrder(ctx, id, strings.TrimSpace(reason)); err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	s.logger.Info().Int64("order_id", id).Msg("order cancelled")
	return nil
}

func (s *orderService) RespondToModification(ctx context.Context, id int64, action string) error {
	action = strings.ToLower(strings.TrimSpace(action))
	if action != model.ModificationAccept && action != model.ModificationReject {
		return model.ErrInvalidAction
	}

	order, err := s.Detail(ctx, id, true)
	if err != nil {
		return err
	}
	if !order.Status.AwaitingApproval() {
		return model.ErrOrderNotAwaiting
	}

	if err := s.orders.ConfirmModification(ctx, id, action); err != nil {
		return fmt.Errorf("failed to confirm modification: %w", err)
	}
	s.logger.Info().Int64("order_id", id).Str("action", action).Msg("order modification answered")
	return nil
}

func (s *orderService) Rate(ctx context.Context, id int64, rating model.OrderRating) error {
	if rating.Rating < 1 || rating.Rating > 5 {
		return model.ErrInvalidRating
	}

	order, err := s.Detail(ctx, id, false)
	if err != nil {
		return err
	}
	if !order.Status.Rateable() {
		return model.ErrOrderNotRateable
	}

	rating.Comment = strings.TrimSpace(rating.Comment)
	if err := s.orders.RateOrder(ctx, id, rating); err != nil {
		return fmt.Errorf("failed to rate order: %w", err)
	}
	return nil
}
