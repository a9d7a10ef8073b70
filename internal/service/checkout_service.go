package service

import (
	"context"
	"fmt"
	"strconv"

	"storefront/internal/apiclient"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultPaymentMethod = "cod"

// checkoutService implements CheckoutService.
type checkoutService struct {
	cart      apiclient.CartAPI
	account   apiclient.AccountAPI
	orders    apiclient.OrderAPI
	rewards   apiclient.RewardsAPI
	selection RetailerSelection
	logger    zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	cart apiclient.CartAPI,
	account apiclient.AccountAPI,
	orders apiclient.OrderAPI,
	rewards apiclient.RewardsAPI,
	selection RetailerSelection,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		cart:      cart,
		account:   account,
		orders:    orders,
		rewards:   rewards,
		selection: selection,
		logger:    logger.With().Str("service", "checkout").Logger(),
	}
}

// Summary loads the cart and address book of the current retailer. Loyalty
// details are optional.
func (s *checkoutService) Summary(ctx context.Context, force bool) (*CheckoutSummary, error) {
	retailerID := s.selection.CurrentRetailer()
	if retailerID == 0 {
		return nil, model.ErrRetailerNotSelected
	}
	summary := &CheckoutSummary{RetailerID: retailerID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cart, err := s.cart.Cart(gctx, retailerID, force)
		if err != nil {
			return fmt.Errorf("failed to get cart: %w", err)
		}
		summary.Cart = cart
		return nil
	})
	g.Go(func() error {
		addresses, err := s.account.Addresses(gctx, force)
		if err != nil {
			return fmt.Errorf("failed to get addresses: %w", err)
		}
		summary.Addresses = addresses
		return nil
	})
	g.Go(func() error {
		loyalty, err := s.rewards.Loyalty(gctx, retailerID, force)
		if err != nil {
			s.logger.Debug().Err(err).Int64("retailer_id", retailerID).Msg("loyalty unavailable")
			return nil
		}
		summary.Loyalty = loyalty
		return nil
	})
	g.Go(func() error {
		cfg, err := s.rewards.RewardConfig(gctx, retailerID, force)
		if err != nil {
			s.logger.Debug().Err(err).Int64("retailer_id", retailerID).Msg("reward config unavailable")
			return nil
		}
		summary.RewardConfig = cfg
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	summary.DefaultAddressID = defaultAddress(summary.Addresses)
	return summary, nil
}

// defaultAddress prefers the address marked default, then the first one.
func defaultAddress(addresses []model.Address) int64 {
	for _, a := range addresses {
		if a.IsDefault {
			return a.ID
		}
	}
	if len(addresses) > 0 {
		return addresses[0].ID
	}
	return 0
}

func (s *checkoutService) PlaceOrder(ctx context.Context, req CheckoutRequest) (*model.Order, error) {
	if req.AddressID == 0 {
		return nil, model.ErrAddressRequired
	}
	retailerID := s.selection.CurrentRetailer()
	if retailerID == 0 {
		return nil, model.ErrRetailerNotSelected
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = defaultPaymentMethod
	}

	order, err := s.orders.PlaceOrder(ctx, model.PlaceOrderRequest{
		RetailerID:          strconv.FormatInt(retailerID, 10),
		AddressID:           req.AddressID,
		PaymentMethod:       req.PaymentMethod,
		DeliveryMode:        req.DeliveryMode,
		SpecialInstructions: req.SpecialInstructions,
		UsePoints:           req.UsePoints,
	})
	if err != nil {
		s.logger.Warn().Err(err).Int64("retailer_id", retailerID).Msg("failed to place order")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Int64("retailer_id", retailerID).
		Msg("order placed")
	return order, nil
}
