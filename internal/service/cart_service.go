package service

import (
	"context"
	"fmt"
	"sync"

	"storefront/internal/apiclient"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	cart      apiclient.CartAPI
	catalog   apiclient.CatalogAPI
	selection RetailerSelection
	lines     *lineQueue
	logger    zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cart apiclient.CartAPI,
	catalog apiclient.CatalogAPI,
	selection RetailerSelection,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cart:      cart,
		catalog:   catalog,
		selection: selection,
		lines:     newLineQueue(),
		logger:    logger.With().Str("service", "cart").Logger(),
	}
}

func (s *cartService) Get(ctx context.Context, force bool) (*model.Cart, error) {
	retailerID := s.selection.CurrentRetailer()
	if retailerID == 0 {
		return nil, model.ErrRetailerNotSelected
	}

	cart, err := s.cart.Cart(ctx, retailerID, force)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return cart, nil
}

// Add puts a product in the cart. The quantity is clamped to the product's
// order limits when the product is known in the current retailer.
func (s *cartService) Add(ctx context.Context, productID int64, quantity int) (*model.CartMutationResponse, error) {
	if quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}

	if retailerID := s.selection.CurrentRetailer(); retailerID != 0 {
		product, err := s.catalog.Product(ctx, retailerID, productID, false)
		if err != nil {
			s.logger.Debug().Err(err).Int64("product_id", productID).Msg("product bounds unknown, sending quantity as is")
		} else if clamped := product.Bounds().Clamp(quantity); clamped != quantity {
			s.logger.Debug().
				Int64("product_id", productID).
				Int("requested", quantity).
				Int("clamped", clamped).
				Msg("clamped add to cart quantity")
			quantity = clamped
		}
	}

	resp, err := s.cart.AddToCart(ctx, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}
	return resp, nil
}

// UpdateQuantity changes a cart line. Updates of the same line are sent one
// at a time in the order they arrive, so the last one sent wins.
func (s *cartService) UpdateQuantity(ctx context.Context, itemID int64, quantity int) (*model.CartMutationResponse, error) {
	if quantity < 1 {
		quantity = 1
	}

	release, err := s.lines.acquire(ctx, itemID)
	if err != nil {
		return nil, err
	}
	defer release()

	if retailerID := s.selection.CurrentRetailer(); retailerID != 0 {
		if cart, err := s.cart.Cart(ctx, retailerID, false); err == nil {
			if item, ok := cart.Item(itemID); ok && item.StockQuantity > 0 && quantity > item.StockQuantity {
				quantity = item.StockQuantity
			}
		}
	}

	resp, err := s.cart.UpdateCartItem(ctx, itemID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return resp, nil
}

func (s *cartService) Remove(ctx context.Context, itemID int64) error {
	release, err := s.lines.acquire(ctx, itemID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.cart.RemoveCartItem(ctx, itemID); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// lineQueue runs operations on the same key one after another in arrival
// order.
type lineQueue struct {
	mu    sync.Mutex
	tails map[int64]chan struct{}
}

func newLineQueue() *lineQueue {
	return &lineQueue{tails: make(map[int64]chan struct{})}
}

// acquire waits for every earlier holder of key. A caller that gives up
// while waiting still keeps its place, so later callers stay ordered.
func (q *lineQueue) acquire(ctx context.Context, key int64) (func(), error) {
	q.mu.Lock()
	prev := q.tails[key]
	mine := make(chan struct{})
	q.tails[key] = mine
	q.mu.Unlock()

	release := func() {
		q.mu.Lock()
		if q.tails[key] == mine {
			delete(q.tails, key)
		}
		q.mu.Unlock()
		close(mine)
	}

	if prev == nil {
		return release, nil
	}
	select {
	case <-prev:
		return release, nil
	case <-ctx.Done():
		go func() {
			<-prev
			release()
		}()
		return nil, ctx.Err()
	}
}
