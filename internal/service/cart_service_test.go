package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCartService_Get_RequiresRetailer(t *testing.T) {
	cart := new(MockCartAPI)
	svc := NewCartService(cart, new(MockCatalogAPI), &fakeSelection{}, zerolog.Nop())

	_, err := svc.Get(context.Background(), false)
	assert.ErrorIs(t, err, model.ErrRetailerNotSelected)
	cart.AssertNotCalled(t, "Cart", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartService_Add(t *testing.T) {
	maxQty := 4
	product := &model.Product{ID: 42, StockQuantity: 10, MinimumOrderQuantity: 2, MaximumOrderQuantity: &maxQty}

	tests := []struct {
		name      string
		retailer  int64
		productFn func(m *MockCatalogAPI)
		requested int
		sent      int
		wantErr   error
	}{
		{
			name:      "zero quantity is rejected",
			requested: 0,
			wantErr:   model.ErrInvalidQuantity,
		},
		{
			name:     "below minimum is raised",
			retailer: 7,
			productFn: func(m *MockCatalogAPI) {
				m.On("Product", mock.Anything, int64(7), int64(42), false).Return(product, nil)
			},
			requested: 1,
			sent:      2,
		},
		{
			name:     "above maximum is lowered",
			retailer: 7,
			productFn: func(m *MockCatalogAPI) {
				m.On("Product", mock.Anything, int64(7), int64(42), false).Return(product, nil)
			},
			requested: 9,
			sent:      4,
		},
		{
			name:     "unknown product is sent as is",
			retailer: 7,
			productFn: func(m *MockCatalogAPI) {
				m.On("Product", mock.Anything, int64(7), int64(42), false).Return(nil, errors.New("gone"))
			},
			requested: 9,
			sent:      9,
		},
		{
			name:      "no retailer skips the lookup",
			requested: 3,
			sent:      3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := new(MockCartAPI)
			catalog := new(MockCatalogAPI)
			if tt.productFn != nil {
				tt.productFn(catalog)
			}
			svc := NewCartService(cart, catalog, &fakeSelection{retailer: tt.retailer}, zerolog.Nop())

			if tt.wantErr == nil {
				cart.On("AddToCart", mock.Anything, int64(42), tt.sent).Return(&model.CartMutationResponse{Message: "ok"}, nil)
			}

			resp, err := svc.Add(context.Background(), 42, tt.requested)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				cart.AssertNotCalled(t, "AddToCart", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", resp.Message)
			cart.AssertExpectations(t)
		})
	}
}

func TestCartService_UpdateQuantity_Bounds(t *testing.T) {
	cart := new(MockCartAPI)
	svc := NewCartService(cart, new(MockCatalogAPI), &fakeSelection{retailer: 7}, zerolog.Nop())

	cart.On("Cart", mock.Anything, int64(7), false).Return(&model.Cart{
		Items: []model.CartItem{{ID: 3, Quantity: 2, StockQuantity: 5}},
	}, nil)
	cart.On("UpdateCartItem", mock.Anything, int64(3), 1).Return(&model.CartMutationResponse{}, nil).Once()
	cart.On("UpdateCartItem", mock.Anything, int64(3), 5).Return(&model.CartMutationResponse{}, nil).Once()

	_, err := svc.UpdateQuantity(context.Background(), 3, 0)
	require.NoError(t, err)
	_, err = svc.UpdateQuantity(context.Background(), 3, 50)
	require.NoError(t, err)

	cart.AssertExpectations(t)
}

func TestCartService_UpdateQuantity_SerialisedPerLine(t *testing.T) {
	cart := new(MockCartAPI)
	svc := NewCartService(cart, new(MockCatalogAPI), &fakeSelection{}, zerolog.Nop())

	release := make(chan struct{})
	started := make(chan int, 3)

	var mu sync.Mutex
	var order []int
	var active, maxActive int

	cart.On("UpdateCartItem", mock.Anything, int64(3), mock.AnythingOfType("int")).
		Run(func(args mock.Arguments) {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			order = append(order, args.Int(2))
			mu.Unlock()

			started <- args.Int(2)
			<-release

			mu.Lock()
			active--
			mu.Unlock()
		}).
		Return(&model.CartMutationResponse{}, nil)

	var wg sync.WaitGroup
	for _, qty := range []int{2, 3, 4} {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			_, err := svc.UpdateQuantity(context.Background(), 3, qty)
			assert.NoError(t, err)
		}(qty)
		// Make arrival order deterministic.
		if qty == 2 {
			<-started
		} else {
			time.Sleep(20 * time.Millisecond)
		}
	}

	close(release)
	wg.Wait()

	assert.Equal(t, 1, maxActive)
	assert.Equal(t, []int{2, 3, 4}, order, "updates reach the backend in send order")
}

func TestCartService_UpdateQuantity_OtherLinesNotBlocked(t *testing.T) {
	cart := new(MockCartAPI)
	svc := NewCartService(cart, new(MockCatalogAPI), &fakeSelection{}, zerolog.Nop())

	release := make(chan struct{})
	cart.On("UpdateCartItem", mock.Anything, int64(1), 2).
		Run(func(mock.Arguments) { <-release }).
		Return(&model.CartMutationResponse{}, nil)
	cart.On("UpdateCartItem", mock.Anything, int64(2), 2).Return(&model.CartMutationResponse{}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.UpdateQuantity(context.Background(), 1, 2)
	}()

	_, err := svc.UpdateQuantity(context.Background(), 2, 2)
	require.NoError(t, err)

	close(release)
	<-done
}

func TestLineQueue_CancelledWaiterKeepsOrder(t *testing.T) {
	q := newLineQueue()

	first, err := q.acquire(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = q.acquire(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)

	acquired := make(chan struct{})
	go func() {
		third, err := q.acquire(context.Background(), 1)
		if assert.NoError(t, err) {
			third()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("third caller ran before the first released")
	case <-time.After(50 * time.Millisecond):
	}

	first()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("third caller never ran")
	}
}
